package handler

import (
	"net/http"
	"strconv"

	"github.com/Yeferson-gm/test-crazy-b/internal/apierror"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/middleware"
	"github.com/Yeferson-gm/test-crazy-b/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashRegistersHandler struct{ svc service.CashRegisterService }

func NewCashRegistersHandler(svc service.CashRegisterService) *CashRegistersHandler {
	return &CashRegistersHandler{svc: svc}
}

// OpenRegister godoc
// @Summary      Abrir caja
// @Description  Abre una sesión de caja para la tienda. Solo puede haber una caja abierta por tienda.
// @Tags         cash-registers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.OpenCashRegisterRequest true "Tienda y monto de apertura"
// @Success      201  {object} dto.CashRegisterResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cash-registers/open [post]
func (h *CashRegistersHandler) OpenRegister(c *gin.Context) {
	var req dto.OpenCashRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.OpenRegister(c.Request.Context(), userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CloseRegister godoc
// @Summary      Cerrar caja
// @Description  Cierra la sesión: calcula el monto esperado (apertura + ventas en efectivo) y la diferencia contra el monto declarado.
// @Tags         cash-registers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CloseCashRegisterRequest true "Caja y monto de cierre"
// @Success      200  {object} dto.CashRegisterResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cash-registers/close [post]
func (h *CashRegistersHandler) CloseRegister(c *gin.Context) {
	var req dto.CloseCashRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseRegister(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentRegister godoc
// @Summary      Caja abierta de la tienda
// @Description  Retorna la sesión abierta con sus ventas completadas.
// @Tags         cash-registers
// @Produce      json
// @Security     BearerAuth
// @Param        store_id path string true "UUID de la tienda"
// @Success      200 {object} dto.CashRegisterDetailResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/stores/{store_id}/cash-registers/current [get]
func (h *CashRegistersHandler) GetCurrentRegister(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("store_id invalido"))
		return
	}
	resp, err := h.svc.GetCurrentRegister(c.Request.Context(), storeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRegister godoc
// @Summary      Obtener caja por ID
// @Tags         cash-registers
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la caja"
// @Success      200 {object} dto.CashRegisterDetailResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cash-registers/{id} [get]
func (h *CashRegistersHandler) GetRegister(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetRegisterByID(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetHistory godoc
// @Summary      Historial de cajas de la tienda
// @Tags         cash-registers
// @Produce      json
// @Security     BearerAuth
// @Param        store_id path  string true  "UUID de la tienda"
// @Param        page     query int    false "Página (default 1)"
// @Param        limit    query int    false "Registros por página (default 20)"
// @Success      200 {object} map[string]interface{}
// @Router       /v1/stores/{store_id}/cash-registers [get]
func (h *CashRegistersHandler) GetHistory(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("store_id invalido"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, total, err := h.svc.GetHistory(c.Request.Context(), storeID, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"registers": items,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// CreatePaymentRecord godoc
// @Summary      Registrar pago
// @Description  Agrega un registro de pago (append-only) a una venta.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePaymentRecordRequest true "Detalle del pago"
// @Success      201  {object} dto.PaymentRecordResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/payments [post]
func (h *CashRegistersHandler) CreatePaymentRecord(c *gin.Context) {
	var req dto.CreatePaymentRecordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePaymentRecord(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSalePayments godoc
// @Summary      Pagos de una venta
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        sale_id path string true "UUID de la venta"
// @Success      200 {array} dto.PaymentRecordResponse
// @Router       /v1/sales/{sale_id}/payments [get]
func (h *CashRegistersHandler) GetSalePayments(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetSalePayments(c.Request.Context(), saleID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
