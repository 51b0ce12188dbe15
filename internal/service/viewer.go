package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"bimquery/internal/config"

	"go.uber.org/zap"
)

// tokenSafetyMargin is how much remaining validity a cached token needs;
// anything closer to expiry is treated as stale and refreshed.
const tokenSafetyMargin = time.Minute

// Viewable is one translated view of a model.
type Viewable struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
}

// ViewerProperty is one raw property tuple of a viewer element.
type ViewerProperty struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    any    `json:"value"`
	Type     string `json:"type,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// ViewerObject is one element record as the viewer provider returns it.
type ViewerObject struct {
	ObjectID   int64            `json:"objectid"`
	Name       string           `json:"name"`
	Properties []ViewerProperty `json:"properties"`
}

// ViewerSource is the ingest-facing contract of the model-viewer data
// provider.
type ViewerSource interface {
	ListViewables(ctx context.Context, urn string) ([]Viewable, error)
	FetchProperties(ctx context.Context, urn, guid string) ([]ViewerObject, error)
	IsEnabled() bool
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// ViewerClient fetches translated model data from the viewer provider,
// authenticating with client credentials. Tokens are cached per permission
// scope and refreshed when their remaining validity drops under the safety
// margin.
type ViewerClient struct {
	config     *config.ViewerConfig
	httpClient *http.Client
	log        *zap.SugaredLogger

	mu     sync.Mutex
	tokens map[string]cachedToken
}

// NewViewerClient creates a new viewer provider client
func NewViewerClient(cfg *config.ViewerConfig, log *zap.SugaredLogger) *ViewerClient {
	return &ViewerClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		log:    log,
		tokens: make(map[string]cachedToken),
	}
}

// IsEnabled returns whether provider credentials are configured
func (c *ViewerClient) IsEnabled() bool {
	return c.config.Enabled
}

// AccessToken returns a valid token for the scope, fetching a fresh one
// when the cache misses or the cached token is about to expire.
func (c *ViewerClient) AccessToken(ctx context.Context, scope string) (string, error) {
	if !c.config.Enabled {
		return "", fmt.Errorf("viewer provider: %w", ErrNotConfigured)
	}

	c.mu.Lock()
	cached, ok := c.tokens[scope]
	c.mu.Unlock()
	if ok && time.Until(cached.expiresAt) > tokenSafetyMargin {
		return cached.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("scope", scope)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	token := cachedToken{
		accessToken: result.AccessToken,
		expiresAt:   time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}
	c.mu.Lock()
	c.tokens[scope] = token
	c.mu.Unlock()

	c.log.Infow("Fetched provider access token", "scope", scope, "expires_in", result.ExpiresIn)
	return token.accessToken, nil
}

// ListViewables returns the translated viewables of a model URN.
func (c *ViewerClient) ListViewables(ctx context.Context, urn string) ([]Viewable, error) {
	var result struct {
		Data struct {
			Metadata []Viewable `json:"metadata"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/modelderivative/v2/designdata/%s/metadata", c.config.BaseURL, url.PathEscape(urn))
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("failed to list viewables: %w", err)
	}
	return result.Data.Metadata, nil
}

// FetchProperties downloads all element property tuples of one viewable.
func (c *ViewerClient) FetchProperties(ctx context.Context, urn, guid string) ([]ViewerObject, error) {
	var result struct {
		Data struct {
			Collection []ViewerObject `json:"collection"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/modelderivative/v2/designdata/%s/metadata/%s/properties",
		c.config.BaseURL, url.PathEscape(urn), url.PathEscape(guid))
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch properties: %w", err)
	}
	return result.Data.Collection, nil
}

func (c *ViewerClient) getJSON(ctx context.Context, endpoint string, target any) error {
	token, err := c.AccessToken(ctx, c.config.Scope)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// Ensure ViewerClient implements ViewerSource
var _ ViewerSource = (*ViewerClient)(nil)
