package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"serio/internal/core/apperror"
	"serio/internal/core/id"
	"serio/internal/infrastructure/storage/postgres"
)

// ArchiveHandler serves archived document snapshots.
type ArchiveHandler struct {
	*BaseHandler
	archive *postgres.ArchiveService
}

// NewArchiveHandler creates a new archive handler.
func NewArchiveHandler(base *BaseHandler, archive *postgres.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{
		BaseHandler: base,
		archive:     archive,
	}
}

// Get handles GET /archive/:id
func (h *ArchiveHandler) Get(c *gin.Context) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid archive id"))
		return
	}

	rec, err := h.archive.Get(c.Request.Context(), recID)
	if err != nil {
		h.Error(c, apperror.NewNotFound("archive record", recID.String()).WithCause(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           rec.ID.String(),
		"documentType": rec.DocumentType,
		"documentId":   rec.DocumentID,
		"number":       rec.Number,
		"payload":      json.RawMessage(rec.Payload),
		"archivedBy":   rec.ArchivedBy,
		"archivedAt":   rec.ArchivedAt,
	})
}
