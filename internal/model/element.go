package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Element represents one BIM component row for a translated model.
// Rows are bulk-replaced per model URN on every ingest run.
type Element struct {
	ID                   int64           `json:"id" db:"id"`
	ModelURN             string          `json:"model_urn" db:"model_urn"`
	ViewableGUID         string          `json:"viewable_guid,omitempty" db:"viewable_guid"`
	ElementID            int64           `json:"element_id" db:"element_id"`
	Name                 string          `json:"name" db:"name"`
	Category             string          `json:"category" db:"category"`
	TypeName             string          `json:"type_name,omitempty" db:"type_name"`
	FamilyName           string          `json:"family_name,omitempty" db:"family_name"`
	IsAsset              bool            `json:"is_asset" db:"is_asset"`
	Level                string          `json:"level,omitempty" db:"level"`
	RoomType             string          `json:"room_type,omitempty" db:"room_type"`
	RoomName             string          `json:"room_name,omitempty" db:"room_name"`
	SystemType           string          `json:"system_type,omitempty" db:"system_type"`
	SystemName           string          `json:"system_name,omitempty" db:"system_name"`
	Manufacturer         string          `json:"manufacturer,omitempty" db:"manufacturer"`
	ModelName            string          `json:"model_name,omitempty" db:"model_name"`
	Specification        string          `json:"specification,omitempty" db:"specification"`
	ClassificationTitle  string          `json:"classification_title,omitempty" db:"classification_title"`
	ClassificationNumber string          `json:"classification_number,omitempty" db:"classification_number"`
	Properties           PropertyMap     `json:"properties,omitempty" db:"properties"`
	Embedding            pgvector.Vector `json:"-" db:"embedding"`
	EmbeddingModel       string          `json:"-" db:"embedding_model"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// ElementVector is the minimal projection used by semantic retrieval.
type ElementVector struct {
	ElementID int64           `db:"element_id"`
	Embedding pgvector.Vector `db:"embedding"`
}

// PropertyMap is the flattened "Group.Name" -> display value mapping of an
// element, stored as JSONB.
type PropertyMap map[string]string

// PropertyKey builds the flattened key for a property tuple.
func PropertyKey(group, name string) string {
	group = strings.TrimSpace(group)
	name = strings.TrimSpace(name)
	if group == "" {
		return name
	}
	return group + "." + name
}

// Value implements driver.Valuer interface
func (p PropertyMap) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface
func (p *PropertyMap) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), p)
	}
	return json.Unmarshal(bytes, p)
}
