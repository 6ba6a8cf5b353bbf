package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Paqueteo-api/internal/application/contents"
	"github.com/jhoicas/Paqueteo-api/internal/application/dto"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// ContentHandler maneja las peticiones HTTP de contenido y ledger de paquetes (protegido).
type ContentHandler struct {
	uc *contents.ContentUseCase
}

// NewContentHandler construye el handler.
func NewContentHandler(uc *contents.ContentUseCase) *ContentHandler {
	return &ContentHandler{uc: uc}
}

// AddItem godoc
// @Summary      Agregar ítem a un paquete
// @Tags         contents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        body  body  dto.ItemRequest  true  "item_code, quantity, unit_type, bin_entry, batch, serial, source"
// @Success      200  {object}  dto.ContentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/items [post]
func (h *ContentHandler) AddItem(c *fiber.Ctx) error {
	var in dto.ItemRequest
	if !validateBody(c, &in) {
		return nil
	}
	content, err := h.uc.AddItem(c.Context(), itemInput(c.Params("id"), in), GetWhsCode(c), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewContentResponse(content))
}

// RemoveItem godoc
// @Summary      Retirar ítem de un paquete
// @Tags         contents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        body  body  dto.ItemRequest  true  "item_code, quantity, unit_type, batch, serial, source"
// @Success      200  {object}  dto.ContentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/items/remove [post]
func (h *ContentHandler) RemoveItem(c *fiber.Ctx) error {
	var in dto.ItemRequest
	if !validateBody(c, &in) {
		return nil
	}
	content, err := h.uc.RemoveItem(c.Context(), itemInput(c.Params("id"), in), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewContentResponse(content))
}

// GetContents godoc
// @Summary      Contenido actual del paquete
// @Tags         contents
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Package ID"
// @Success      200  {array}   dto.ContentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/contents [get]
func (h *ContentHandler) GetContents(c *fiber.Ctx) error {
	list, err := h.uc.GetContents(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ContentResponse, 0, len(list))
	for _, content := range list {
		out = append(out, dto.NewContentResponse(content))
	}
	return c.JSON(out)
}

// GetItemQuantity godoc
// @Summary      Cantidad proyectada de un ítem en el paquete
// @Tags         contents
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        item  path  string  true  "Item code"
// @Success      200  {object}  map[string]string
// @Router       /api/packages/{id}/items/{item}/quantity [get]
func (h *ContentHandler) GetItemQuantity(c *fiber.Ctx) error {
	qty, err := h.uc.GetItemQuantity(c.Context(), c.Params("id"), c.Params("item"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"item_code": c.Params("item"), "quantity": qty})
}

// LogTransaction godoc
// @Summary      Asiento de auditoría directo al ledger
// @Tags         contents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        body  body  dto.LogTransactionRequest  true  "type, item_code, quantity, source, notes"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/transactions [post]
func (h *ContentHandler) LogTransaction(c *fiber.Ctx) error {
	var in dto.LogTransactionRequest
	if !validateBody(c, &in) {
		return nil
	}
	err := h.uc.LogTransaction(c.Context(), contents.LogTransactionInput{
		PackageID: c.Params("id"),
		Type:      in.Type,
		ItemCode:  in.ItemCode,
		Quantity:  in.Quantity,
		UnitType:  in.UnitType,
		Batch:     in.Batch,
		Serial:    in.Serial,
		Source:    entity.SourceOperationRef{Type: in.SourceType, ID: in.SourceID, LineID: in.SourceLineID},
		Notes:     in.Notes,
	}, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "transacción registrada"})
}

// TransactionHistory godoc
// @Summary      Historial del ledger del paquete (paginado por cursor)
// @Tags         contents
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true   "Package ID"
// @Param        after_id  query  string  false  "Último ID visto (cursor)"
// @Param        limit     query  int     false  "Máximo de entradas (default 100)"
// @Success      200  {array}  dto.TransactionResponse
// @Router       /api/packages/{id}/transactions [get]
func (h *ContentHandler) TransactionHistory(c *fiber.Ctx) error {
	list, err := h.uc.TransactionHistory(c.Context(), c.Params("id"), c.Query("after_id"), c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.NewTransactionResponse(t))
	}
	return c.JSON(out)
}

// itemInput mapea el DTO a la entrada del caso de uso.
func itemInput(packageID string, in dto.ItemRequest) contents.ItemInput {
	return contents.ItemInput{
		PackageID: packageID,
		ItemCode:  in.ItemCode,
		Quantity:  in.Quantity,
		UnitType:  in.UnitType,
		BinEntry:  in.BinEntry,
		Batch:     in.Batch,
		Serial:    in.Serial,
		Source:    entity.SourceOperationRef{Type: in.SourceType, ID: in.SourceID, LineID: in.SourceLineID},
		Notes:     in.Notes,
	}
}
