package handler

import (
	"net/http"

	"bimquery/internal/model"
	"bimquery/internal/service"

	"github.com/gin-gonic/gin"
)

// IngestHandler handles ingest HTTP requests
type IngestHandler struct {
	ingest *service.IngestService
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

// Ingest handles POST /api/v1/ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req model.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.ingest.Ingest(c.Request.Context(), req.ModelURN)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}
