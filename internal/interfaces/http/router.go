package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Paqueteo-api/internal/application/consistency"
	"github.com/jhoicas/Paqueteo-api/internal/application/contents"
	"github.com/jhoicas/Paqueteo-api/internal/application/location"
	"github.com/jhoicas/Paqueteo-api/internal/application/packages"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LifecycleUC   *packages.LifecycleUseCase
	ContentUC     *contents.ContentUseCase
	TrackerUC     *location.TrackerUseCase
	ConsistencyEC *consistency.Engine
	JWTSecret     string
}

// Router registra las rutas de la API. Todo el dominio va protegido con Bearer
// Token; la identidad (user_id, whs_code) viaja en los claims.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Packages: ciclo de vida y atributos
	pkgHandler := NewPackageHandler(deps.LifecycleUC)
	pkgs := protected.Group("/packages")
	pkgs.Post("/", pkgHandler.Create)
	pkgs.Get("/", pkgHandler.List)
	pkgs.Get("/by-source", pkgHandler.ListBySource)
	pkgs.Post("/activate-by-source", pkgHandler.ActivateBySource)
	pkgs.Post("/cancel-by-source", pkgHandler.CancelBySource)
	pkgs.Post("/attribute-definitions", pkgHandler.CreateAttributeDefinition)
	pkgs.Get("/attribute-definitions", pkgHandler.ListAttributeDefinitions)
	pkgs.Get("/attribute-definitions/:id", pkgHandler.GetAttributeDefinition)
	pkgs.Get("/barcode/:barcode", pkgHandler.GetByBarcode)
	pkgs.Get("/:id", pkgHandler.GetByID)
	pkgs.Post("/:id/close", pkgHandler.Close)
	pkgs.Post("/:id/cancel", pkgHandler.Cancel)
	pkgs.Post("/:id/lock", pkgHandler.Lock)
	pkgs.Post("/:id/unlock", pkgHandler.Unlock)

	// Contents: proyección + ledger
	contentHandler := NewContentHandler(deps.ContentUC)
	pkgs.Post("/:id/items", contentHandler.AddItem)
	pkgs.Post("/:id/items/remove", contentHandler.RemoveItem)
	pkgs.Get("/:id/contents", contentHandler.GetContents)
	pkgs.Get("/:id/items/:item/quantity", contentHandler.GetItemQuantity)
	pkgs.Post("/:id/transactions", contentHandler.LogTransaction)
	pkgs.Get("/:id/transactions", contentHandler.TransactionHistory)

	// Location: movimientos e historial
	locHandler := NewLocationHandler(deps.TrackerUC)
	pkgs.Post("/:id/move", locHandler.Move)
	pkgs.Post("/:id/movements", locHandler.LogMovement)
	pkgs.Get("/:id/movements", locHandler.History)

	// Consistency: conciliación contra ERP/WMS
	consHandler := NewConsistencyHandler(deps.ConsistencyEC)
	cons := protected.Group("/consistency")
	cons.Post("/packages/:id/validate", consHandler.ValidatePackage)
	cons.Get("/packages/:id/inconsistencies", consHandler.ListByPackage)
	cons.Post("/detect", consHandler.Detect)
	cons.Get("/inconsistencies", consHandler.ListUnresolved)
	cons.Post("/inconsistencies/:id/resolve", consHandler.Resolve)
	cons.Post("/validate-barcode", consHandler.ValidateBarcode)
}
