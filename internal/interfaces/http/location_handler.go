package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Paqueteo-api/internal/application/dto"
	"github.com/jhoicas/Paqueteo-api/internal/application/location"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// LocationHandler maneja las peticiones HTTP de movimientos de paquete (protegido).
type LocationHandler struct {
	uc *location.TrackerUseCase
}

// NewLocationHandler construye el handler.
func NewLocationHandler(uc *location.TrackerUseCase) *LocationHandler {
	return &LocationHandler{uc: uc}
}

// Move godoc
// @Summary      Mover paquete a otra bodega/bin
// @Tags         location
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        body  body  dto.MovePackageRequest  true  "to_whs_code, to_bin_entry, source, notes"
// @Success      200  {object}  dto.PackageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/move [post]
func (h *LocationHandler) Move(c *fiber.Ctx) error {
	var in dto.MovePackageRequest
	if !validateBody(c, &in) {
		return nil
	}
	pkg, err := h.uc.MovePackage(c.Context(), location.MoveInput{
		PackageID:  c.Params("id"),
		ToWhsCode:  in.ToWhsCode,
		ToBinEntry: in.ToBinEntry,
		Source:     entity.SourceOperationRef{Type: in.SourceType, ID: in.SourceID, LineID: in.SourceLineID},
		Notes:      in.Notes,
	}, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageResponse(pkg))
}

// LogMovement godoc
// @Summary      Registrar un movimiento ya ejecutado en el sistema externo
// @Tags         location
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        body  body  dto.LogMovementRequest  true  "from/to, source, notes"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/movements [post]
func (h *LocationHandler) LogMovement(c *fiber.Ctx) error {
	var in dto.LogMovementRequest
	if !validateBody(c, &in) {
		return nil
	}
	err := h.uc.LogMovement(c.Context(), location.LogMovementInput{
		PackageID:    c.Params("id"),
		FromWhsCode:  in.FromWhsCode,
		FromBinEntry: in.FromBinEntry,
		ToWhsCode:    in.ToWhsCode,
		ToBinEntry:   in.ToBinEntry,
		Source:       entity.SourceOperationRef{Type: in.SourceType, ID: in.SourceID},
		Notes:        in.Notes,
	}, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "movimiento registrado"})
}

// History godoc
// @Summary      Historial de ubicaciones del paquete
// @Tags         location
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Package ID"
// @Success      200  {array}   dto.LocationHistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/movements [get]
func (h *LocationHandler) History(c *fiber.Ctx) error {
	list, err := h.uc.LocationHistory(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LocationHistoryResponse, 0, len(list))
	for _, hist := range list {
		out = append(out, dto.NewLocationHistoryResponse(hist))
	}
	return c.JSON(out)
}
