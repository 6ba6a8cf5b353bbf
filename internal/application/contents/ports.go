package contents

import (
	"context"

	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del ledger de contenido atados a esa tx. El par
// append-al-ledger + update-de-proyección es una unidad atómica.
type TxRunner interface {
	RunContents(ctx context.Context, fn func(
		pkgRepo repository.PackageRepository,
		contentRepo repository.PackageContentRepository,
		txnRepo repository.PackageTransactionRepository,
	) error) error
}
