package packages

import (
	"context"

	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el ciclo de vida:
// asignación de barcode + fila del paquete + asiento de auditoría.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		pkgRepo repository.PackageRepository,
		txnRepo repository.PackageTransactionRepository,
		seqRepo repository.BarcodeSequenceRepository,
	) error) error
}
