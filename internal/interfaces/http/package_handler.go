package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Paqueteo-api/internal/application/dto"
	"github.com/jhoicas/Paqueteo-api/internal/application/packages"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
)

// PackageHandler maneja las peticiones HTTP del ciclo de vida de paquetes (protegido).
type PackageHandler struct {
	uc *packages.LifecycleUseCase
}

// NewPackageHandler construye el handler.
func NewPackageHandler(uc *packages.LifecycleUseCase) *PackageHandler {
	return &PackageHandler{uc: uc}
}

// Create godoc
// @Summary      Crear paquete
// @Tags         packages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePackageRequest  true  "source_type/source_id o bin_entry, provisional, notes, attributes"
// @Success      201   {object}  dto.PackageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/packages [post]
func (h *PackageHandler) Create(c *fiber.Ctx) error {
	session := packages.Session{UserID: GetUserID(c), WhsCode: GetWhsCode(c)}
	if session.UserID == "" || session.WhsCode == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreatePackageRequest
	if !validateBody(c, &in) {
		return nil
	}
	pkg, err := h.uc.CreatePackage(c.Context(), session, packages.CreatePackageInput{
		SourceType:   in.SourceType,
		SourceID:     in.SourceID,
		SourceLineID: in.SourceLineID,
		BinEntry:     in.BinEntry,
		Provisional:  in.Provisional,
		Notes:        in.Notes,
		Attributes:   in.Attributes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPackageResponse(pkg))
}

// List godoc
// @Summary      Listar paquetes activos de la bodega de la sesión (paginado)
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Tamaño de página (máx 100)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.PackagePageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/packages [get]
func (h *PackageHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	page.Normalize()
	pkgs, err := h.uc.ListActivePackages(c.Context(), GetWhsCode(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackagePageResponse(pkgs, page))
}

// GetByID godoc
// @Summary      Consultar paquete por ID
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Package ID"
// @Success      200  {object}  dto.PackageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/packages/{id} [get]
func (h *PackageHandler) GetByID(c *fiber.Ctx) error {
	pkg, err := h.uc.GetPackage(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageResponse(pkg))
}

// GetByBarcode godoc
// @Summary      Consultar paquete por código de barras
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Param        barcode  path  string  true  "Barcode"
// @Success      200  {object}  dto.PackageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/packages/barcode/{barcode} [get]
func (h *PackageHandler) GetByBarcode(c *fiber.Ctx) error {
	pkg, err := h.uc.GetPackageByBarcode(c.Context(), c.Params("barcode"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageResponse(pkg))
}

// Close godoc
// @Summary      Cerrar paquete (terminal)
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Package ID"
// @Success      200  {object}  dto.PackageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/close [post]
func (h *PackageHandler) Close(c *fiber.Ctx) error {
	pkg, err := h.uc.ClosePackage(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageResponse(pkg))
}

// Cancel godoc
// @Summary      Cancelar paquete (terminal, motivo obligatorio)
// @Tags         packages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        body  body  dto.CancelPackageRequest  true  "reason"
// @Success      200  {object}  dto.PackageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/cancel [post]
func (h *PackageHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelPackageRequest
	if !validateBody(c, &in) {
		return nil
	}
	pkg, err := h.uc.CancelPackage(c.Context(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageResponse(pkg))
}

// Lock godoc
// @Summary      Bloquear paquete (conteo/auditoría)
// @Tags         packages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Package ID"
// @Param        body  body  dto.LockPackageRequest  false  "reason"
// @Success      200  {object}  dto.PackageResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/lock [post]
func (h *PackageHandler) Lock(c *fiber.Ctx) error {
	var in dto.LockPackageRequest
	// body opcional
	_ = c.BodyParser(&in)
	pkg, err := h.uc.LockPackage(c.Context(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageResponse(pkg))
}

// Unlock godoc
// @Summary      Desbloquear paquete
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Package ID"
// @Success      200  {object}  dto.PackageResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/packages/{id}/unlock [post]
func (h *PackageHandler) Unlock(c *fiber.Ctx) error {
	pkg, err := h.uc.UnlockPackage(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageResponse(pkg))
}

// ActivateBySource godoc
// @Summary      Activar en bloque los paquetes provisionales de una operación origen
// @Tags         packages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SourceBatchRequest  true  "source_type, source_id"
// @Success      200  {object}  map[string]int
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/packages/activate-by-source [post]
func (h *PackageHandler) ActivateBySource(c *fiber.Ctx) error {
	var in dto.SourceBatchRequest
	if !validateBody(c, &in) {
		return nil
	}
	n, err := h.uc.ActivatePackagesBySource(c.Context(), in.SourceType, in.SourceID, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"activated": n})
}

// CancelBySource godoc
// @Summary      Cancelar en bloque los paquetes provisionales de una operación abortada
// @Tags         packages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SourceBatchRequest  true  "source_type, source_id, reason"
// @Success      200  {object}  map[string]int
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/packages/cancel-by-source [post]
func (h *PackageHandler) CancelBySource(c *fiber.Ctx) error {
	var in dto.SourceBatchRequest
	if !validateBody(c, &in) {
		return nil
	}
	if in.Reason == "" {
		return respondError(c, domain.ErrInvalidInput)
	}
	n, err := h.uc.CancelPackagesBySource(c.Context(), in.SourceType, in.SourceID, in.Reason, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cancelled": n})
}

// ListBySource godoc
// @Summary      Paquetes activos de una operación origen
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Param        source_type  query  string  true  "Tipo de operación origen"
// @Param        source_id    query  string  true  "ID de la operación origen"
// @Success      200  {array}   dto.PackageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/packages/by-source [get]
func (h *PackageHandler) ListBySource(c *fiber.Ctx) error {
	pkgs, err := h.uc.GetActivePackagesBySource(c.Context(), c.Query("source_type"), c.Query("source_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPackageListResponse(pkgs))
}

// CreateAttributeDefinition godoc
// @Summary      Registrar definición de atributo de paquete
// @Tags         packages
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAttributeDefinitionRequest  true  "name, type, required"
// @Success      201  {object}  dto.AttributeDefinitionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/packages/attribute-definitions [post]
func (h *PackageHandler) CreateAttributeDefinition(c *fiber.Ctx) error {
	var in dto.CreateAttributeDefinitionRequest
	if !validateBody(c, &in) {
		return nil
	}
	def, err := h.uc.CreateAttributeDefinition(c.Context(), in.Name, in.Type, in.Required)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewAttributeDefinitionResponse(def))
}

// ListAttributeDefinitions godoc
// @Summary      Listar definiciones de atributos de paquete
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.AttributeDefinitionResponse
// @Router       /api/packages/attribute-definitions [get]
func (h *PackageHandler) ListAttributeDefinitions(c *fiber.Ctx) error {
	defs, err := h.uc.ListAttributeDefinitions(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.AttributeDefinitionResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, dto.NewAttributeDefinitionResponse(d))
	}
	return c.JSON(out)
}

// GetAttributeDefinition godoc
// @Summary      Consultar definición de atributo por ID
// @Tags         packages
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Definition ID"
// @Success      200  {object}  dto.AttributeDefinitionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/packages/attribute-definitions/{id} [get]
func (h *PackageHandler) GetAttributeDefinition(c *fiber.Ctx) error {
	def, err := h.uc.GetAttributeDefinition(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewAttributeDefinitionResponse(def))
}
