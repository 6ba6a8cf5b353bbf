package repository

import "github.com/jhoicas/Paqueteo-api/internal/domain/entity"

// InconsistencyRepository puerto del almacén de inconsistencias.
// La clave lógica (package_id, item_code, type) evita duplicados entre scans.
type InconsistencyRepository interface {
	Create(inc *entity.PackageInconsistency) error
	Update(inc *entity.PackageInconsistency) error
	GetByID(id string) (*entity.PackageInconsistency, error)
	// GetByKey devuelve la inconsistencia más reciente para la clave lógica,
	// resuelta o no; nil si nunca se ha detectado.
	GetByKey(packageID, itemCode, incType string) (*entity.PackageInconsistency, error)
	ListUnresolved(whsCode string) ([]*entity.PackageInconsistency, error)
	ListByPackage(packageID string) ([]*entity.PackageInconsistency, error)
}
