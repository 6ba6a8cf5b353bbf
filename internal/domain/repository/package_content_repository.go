package repository

import "github.com/jhoicas/Paqueteo-api/internal/domain/entity"

// PackageContentRepository puerto para la proyección de contenido actual.
// Usado dentro de transacciones para mantener ledger y proyección en acuerdo.
type PackageContentRepository interface {
	Get(packageID, itemCode string) (*entity.PackageContent, error)
	// GetForUpdate bloquea la fila de contenido (SELECT FOR UPDATE).
	GetForUpdate(packageID, itemCode string) (*entity.PackageContent, error)
	Upsert(c *entity.PackageContent) error
	ListByPackage(packageID string) ([]*entity.PackageContent, error)
	// UpdateLocationByPackage mueve todas las filas de contenido de un paquete
	// a la nueva bodega/bin. El contenido viaja completo con el paquete.
	UpdateLocationByPackage(packageID, whsCode string, binEntry *int) error
}
