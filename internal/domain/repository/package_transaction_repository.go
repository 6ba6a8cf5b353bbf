package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// PackageTransactionRepository puerto del ledger append-only.
// Solo Create: las entradas nunca se actualizan ni se borran.
type PackageTransactionRepository interface {
	Create(t *entity.PackageTransaction) error
	// ListByPackage devuelve entradas ordenadas por (created_at, id) a partir
	// del cursor afterID (vacío = desde el inicio). Secuencia reiniciable:
	// el caller puede retomar con el último ID visto.
	ListByPackage(packageID, afterID string, limit int) ([]*entity.PackageTransaction, error)
	// SumByPackageItem suma con signo del ledger para (paquete, ítem);
	// la cantidad derivada del ledger para conciliación.
	SumByPackageItem(packageID, itemCode string) (decimal.Decimal, error)
}
