package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"serio/internal/core/apperror"
	"serio/internal/domain/invoicing"
	"serio/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler creates numbered invoices.
type InvoiceHandler struct {
	*BaseHandler
	workflow *invoicing.Workflow
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, workflow *invoicing.Workflow) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		workflow:    workflow,
	}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	draft, err := req.ToDraft()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unit price").WithDetail("error", err.Error()))
		return
	}

	inv, err := h.workflow.CreateInvoice(c.Request.Context(), *draft, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromInvoice(inv))
}
