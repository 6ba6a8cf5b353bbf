package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Paqueteo-api/internal/application/contents"
	"github.com/jhoicas/Paqueteo-api/internal/application/location"
	"github.com/jhoicas/Paqueteo-api/internal/application/packages"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// Ensure TxRunner implements the application TxRunner ports.
var _ packages.TxRunner = (*TxRunner)(nil)
var _ contents.TxRunner = (*TxRunner)(nil)
var _ location.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción con los repos del ciclo de vida (paquete, ledger,
// secuencia de barcode) y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	pkgRepo repository.PackageRepository,
	txnRepo repository.PackageTransactionRepository,
	seqRepo repository.BarcodeSequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewPackageRepository(tx), NewPackageTransactionRepository(tx), NewBarcodeSequenceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunContents inicia una transacción con los repos del ledger de contenido.
func (r *TxRunner) RunContents(ctx context.Context, fn func(
	pkgRepo repository.PackageRepository,
	contentRepo repository.PackageContentRepository,
	txnRepo repository.PackageTransactionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewPackageRepository(tx), NewPackageContentRepository(tx), NewPackageTransactionRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunLocation inicia una transacción con los repos del tracker de ubicación.
// Incluye el repo de contenido: las filas de contenido viajan con el paquete.
func (r *TxRunner) RunLocation(ctx context.Context, fn func(
	pkgRepo repository.PackageRepository,
	locRepo repository.PackageLocationRepository,
	contentRepo repository.PackageContentRepository,
	txnRepo repository.PackageTransactionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewPackageRepository(tx), NewPackageLocationRepository(tx), NewPackageContentRepository(tx), NewPackageTransactionRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
