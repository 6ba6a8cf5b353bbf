package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Paqueteo-api/internal/application/consistency"
	"github.com/jhoicas/Paqueteo-api/internal/application/dto"
)

// ConsistencyHandler maneja las peticiones HTTP del motor de conciliación (protegido).
type ConsistencyHandler struct {
	engine *consistency.Engine
}

// NewConsistencyHandler construye el handler.
func NewConsistencyHandler(engine *consistency.Engine) *ConsistencyHandler {
	return &ConsistencyHandler{engine: engine}
}

// ValidatePackage godoc
// @Summary      Conciliar un paquete contra el ERP y el WMS
// @Tags         consistency
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Package ID"
// @Success      200  {array}   dto.InconsistencyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/consistency/packages/{id}/validate [post]
func (h *ConsistencyHandler) ValidatePackage(c *fiber.Ctx) error {
	found, err := h.engine.ValidatePackage(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInconsistencyListResponse(found))
}

// Detect godoc
// @Summary      Barrido de conciliación sobre los paquetes activos
// @Tags         consistency
// @Security     Bearer
// @Produce      json
// @Param        whs_code  query  string  false  "Filtrar por bodega (vacío = todas)"
// @Success      200  {array}  dto.InconsistencyResponse
// @Router       /api/consistency/detect [post]
func (h *ConsistencyHandler) Detect(c *fiber.Ctx) error {
	list, err := h.engine.DetectInconsistencies(c.Context(), c.Query("whs_code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInconsistencyListResponse(list))
}

// ListUnresolved godoc
// @Summary      Inconsistencias vigentes sin resolver
// @Tags         consistency
// @Security     Bearer
// @Produce      json
// @Param        whs_code  query  string  false  "Filtrar por bodega"
// @Success      200  {array}  dto.InconsistencyResponse
// @Router       /api/consistency/inconsistencies [get]
func (h *ConsistencyHandler) ListUnresolved(c *fiber.Ctx) error {
	list, err := h.engine.ListUnresolved(c.Context(), c.Query("whs_code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInconsistencyListResponse(list))
}

// ListByPackage godoc
// @Summary      Historial de inconsistencias de un paquete (resueltas incluidas)
// @Tags         consistency
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Package ID"
// @Success      200  {array}   dto.InconsistencyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/consistency/packages/{id}/inconsistencies [get]
func (h *ConsistencyHandler) ListByPackage(c *fiber.Ctx) error {
	list, err := h.engine.ListByPackage(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInconsistencyListResponse(list))
}

// Resolve godoc
// @Summary      Resolver una inconsistencia
// @Tags         consistency
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Inconsistency ID"
// @Param        body  body  dto.ResolveInconsistencyRequest  true  "action"
// @Success      200  {object}  dto.InconsistencyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/consistency/inconsistencies/{id}/resolve [post]
func (h *ConsistencyHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveInconsistencyRequest
	if !validateBody(c, &in) {
		return nil
	}
	inc, err := h.engine.ResolveInconsistency(c.Context(), c.Params("id"), GetUserID(c), in.Action)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewInconsistencyResponse(inc))
}

// ValidateBarcode godoc
// @Summary      Validar formato y colisión de un código de barras
// @Tags         consistency
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateBarcodeRequest  true  "barcode"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/consistency/validate-barcode [post]
func (h *ConsistencyHandler) ValidateBarcode(c *fiber.Ctx) error {
	var in dto.ValidateBarcodeRequest
	if !validateBody(c, &in) {
		return nil
	}
	if err := h.engine.ValidateBarcode(c.Context(), in.Barcode); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"valid": true})
}
