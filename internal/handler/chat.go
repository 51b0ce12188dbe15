package handler

import (
	"errors"
	"fmt"
	"net/http"

	"bimquery/internal/model"
	"bimquery/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles question-resolution HTTP requests
type ChatHandler struct {
	chat    *service.ChatService
	catalog *service.CatalogBuilder
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService, catalog *service.CatalogBuilder) *ChatHandler {
	return &ChatHandler{chat: chat, catalog: catalog}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.chat.Resolve(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Catalog handles GET /api/v1/models/:urn/catalog
func (h *ChatHandler) Catalog(c *gin.Context) {
	urn := c.Param("urn")
	if urn == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Model URN is required"})
		return
	}

	snapshot, err := h.catalog.Build(c.Request.Context(), urn)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if len(snapshot.Categories) == 0 {
		err := fmt.Errorf("%w: %s", service.ErrDataNotReady, urn)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// statusFor maps the pipeline error taxonomy to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrQueryConstruction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInference):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrDataNotReady):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
