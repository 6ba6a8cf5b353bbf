package repository

import "github.com/jhoicas/Paqueteo-api/internal/domain/entity"

// PackageLocationRepository puerto del historial de ubicaciones (append-only).
type PackageLocationRepository interface {
	Create(h *entity.PackageLocationHistory) error
	ListByPackage(packageID string) ([]*entity.PackageLocationHistory, error)
	// LastByPackage devuelve la última entrada o nil si no hay movimientos.
	LastByPackage(packageID string) (*entity.PackageLocationHistory, error)
}
