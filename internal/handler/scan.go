package handler

import (
	"net/http"

	"github.com/Yeferson-gm/test-crazy-b/internal/apierror"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/middleware"
	"github.com/Yeferson-gm/test-crazy-b/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScanHandler struct{ svc service.ScanService }

func NewScanHandler(svc service.ScanService) *ScanHandler { return &ScanHandler{svc: svc} }

// CreateSession godoc
// @Summary      Crear sesión de escaneo
// @Description  Crea una sesión de emparejamiento (TTL 1h) para usar el teléfono como lector de códigos.
// @Tags         scan
// @Produce      json
// @Security     BearerAuth
// @Success      201 {object} dto.ScanSessionResponse
// @Router       /v1/scan/sessions [post]
func (h *ScanHandler) CreateSession(c *gin.Context) {
	resp, err := h.svc.CreateSession(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ConnectSession godoc
// @Summary      Conectar teléfono a la sesión
// @Tags         scan
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID de sesión"
// @Success      200 {object} dto.ScanSessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/scan/sessions/{id}/connect [post]
func (h *ScanHandler) ConnectSession(c *gin.Context) {
	resp, err := h.svc.ConnectSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSessionStatus godoc
// @Summary      Estado de la sesión de escaneo
// @Description  Consultado por el terminal; entrega el último código escaneado una sola vez.
// @Tags         scan
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "ID de sesión"
// @Success      200 {object} dto.ScanSessionResponse
// @Router       /v1/scan/sessions/{id} [get]
func (h *ScanHandler) GetSessionStatus(c *gin.Context) {
	resp, err := h.svc.GetSessionStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitScan godoc
// @Summary      Enviar código escaneado
// @Description  El teléfono publica el código; se resuelve contra el catálogo de la tienda del operador.
// @Tags         scan
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "ID de sesión"
// @Param        body body dto.ScanBarcodeRequest true "Código de barras"
// @Success      200  {object} dto.ScanResultResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/scan/sessions/{id}/scan [post]
func (h *ScanHandler) SubmitScan(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de sesión invalido"))
		return
	}
	var req dto.ScanBarcodeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	storeID, _ := uuid.Parse(claims.StoreID)

	resp, err := h.svc.SubmitScan(c.Request.Context(), sessionID, storeID, req.Barcode)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
