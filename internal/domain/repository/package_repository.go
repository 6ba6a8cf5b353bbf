package repository

import "github.com/jhoicas/Paqueteo-api/internal/domain/entity"

// PackageRepository define el puerto de persistencia del agregado Package.
// Las mutaciones de un mismo paquete se linealizan con GetForUpdate dentro
// de una transacción (SELECT FOR UPDATE sobre la fila del paquete).
type PackageRepository interface {
	Create(p *entity.Package) error
	GetByID(id string) (*entity.Package, error)
	GetByBarcode(barcode string) (*entity.Package, error)
	// GetForUpdate bloquea la fila del paquete para la transacción actual.
	GetForUpdate(id string) (*entity.Package, error)
	// UpdateStatus persiste status y metadatos de cierre/cancelación/bloqueo.
	UpdateStatus(p *entity.Package) error
	// UpdateLocation persiste la proyección de ubicación actual (whs + bin).
	UpdateLocation(p *entity.Package) error
	ListActive(whsCode string, limit, offset int) ([]*entity.Package, error)
	ListBySource(sourceType, sourceID string, onlyActive bool) ([]*entity.Package, error)
	// ActivateBySource activa en bloque los paquetes provisionales de una
	// operación origen. Devuelve cuántos activó.
	ActivateBySource(sourceType, sourceID string) (int, error)
	// CancelBySource cancela en bloque los paquetes provisionales de una
	// operación origen abortada. Devuelve cuántos canceló.
	CancelBySource(sourceType, sourceID, reason, userID string) (int, error)
	ExistsBarcode(barcode string) (bool, error)
	CountByBarcode(barcode string) (int, error)
}
