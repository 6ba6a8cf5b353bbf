package location

import (
	"context"

	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del tracker de ubicación atados a esa tx. El append al
// historial, el update de la proyección del paquete y la reubicación de
// sus filas de contenido suceden todos o ninguno.
type TxRunner interface {
	RunLocation(ctx context.Context, fn func(
		pkgRepo repository.PackageRepository,
		locRepo repository.PackageLocationRepository,
		contentRepo repository.PackageContentRepository,
		txnRepo repository.PackageTransactionRepository,
	) error) error
}
