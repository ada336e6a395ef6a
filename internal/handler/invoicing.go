package handler

import (
	"net/http"

	"github.com/Yeferson-gm/test-crazy-b/internal/apierror"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoicingHandler struct{ svc service.InvoicingService }

func NewInvoicingHandler(svc service.InvoicingService) *InvoicingHandler {
	return &InvoicingHandler{svc: svc}
}

// CreateInvoice godoc
// @Summary      Emitir comprobante electrónico
// @Description  Emite boleta/factura para una venta completada: asigna correlativo por serie, llama al gateway fiscal y persiste los artefactos.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateInvoiceRequest true "Venta, tipo y serie"
// @Success      201  {object} dto.InvoiceResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      502  {object} apierror.APIError
// @Router       /v1/invoices [post]
func (h *InvoicingHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CancelInvoice godoc
// @Summary      Anular comprobante
// @Description  Marca el comprobante como anulado localmente y registra el motivo.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID del comprobante"
// @Param        body body dto.CancelInvoiceRequest true "Motivo de anulación"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/invoices/{id}/cancel [post]
func (h *InvoicingHandler) CancelInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CancelInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CancelInvoice(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetInvoice godoc
// @Summary      Obtener comprobante por ID
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del comprobante"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id} [get]
func (h *InvoicingHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetInvoiceByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListStoreInvoices godoc
// @Summary      Listar comprobantes de una tienda
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        store_id   path  string true  "UUID de la tienda"
// @Param        status     query string false "accepted | cancelled"
// @Param        start_date query string false "Fecha inicial YYYY-MM-DD"
// @Param        end_date   query string false "Fecha final YYYY-MM-DD"
// @Param        page       query int    false "Página (default 1)"
// @Param        limit      query int    false "Registros por página (default 20)"
// @Success      200 {object} dto.InvoiceListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/stores/{store_id}/invoices [get]
func (h *InvoicingHandler) ListStoreInvoices(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("store_id invalido"))
		return
	}
	var filter dto.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.GetStoreInvoices(c.Request.Context(), storeID, filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
