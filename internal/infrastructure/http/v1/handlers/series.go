package handlers

import (
	"github.com/gin-gonic/gin"

	"serio/internal/domain/series"
	"serio/internal/infrastructure/http/v1/dto"
)

// SeriesHandler exposes the numbering series to the dashboard.
type SeriesHandler struct {
	*BaseHandler
	service *series.Service
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(base *BaseHandler, service *series.Service) *SeriesHandler {
	return &SeriesHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Get handles GET /series
func (h *SeriesHandler) Get(c *gin.Context) {
	h.OK(c, dto.FromSnapshot(h.service.Snapshot()))
}

// Next handles GET /series/next
func (h *SeriesHandler) Next(c *gin.Context) {
	number := h.service.NextAvailable()
	h.OK(c, dto.NextResponse{
		Number:  number,
		Display: h.service.Display(number),
	})
}

// History handles GET /series/history
func (h *SeriesHandler) History(c *gin.Context) {
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	q.Defaults()

	entries := h.service.History(q.Limit, q.Offset)
	h.OK(c, dto.HistoryResponse{
		Items:  dto.FromHistory(entries),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// Skip handles POST /series/skips
func (h *SeriesHandler) Skip(c *gin.Context) {
	var req dto.SkipRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.Skip(c.Request.Context(), req.Number, req.Reason, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry.ID.String())
}

// Reserve handles POST /series/reservations
func (h *SeriesHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.Reserve(c.Request.Context(), req.Number, req.ReservedFor, req.Notes, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry.ID.String())
}

// Release handles DELETE /series/reservations/:number
func (h *SeriesHandler) Release(c *gin.Context) {
	number, ok := h.ParamNumber(c)
	if !ok {
		return
	}

	if _, err := h.service.Release(c.Request.Context(), number, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
