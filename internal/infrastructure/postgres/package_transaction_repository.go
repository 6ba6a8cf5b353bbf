package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

var _ repository.PackageTransactionRepository = (*PackageTransactionRepo)(nil)

// PackageTransactionRepo ledger append-only sobre PostgreSQL. Solo INSERT y
// SELECT: no existen UPDATE ni DELETE para este adaptador.
type PackageTransactionRepo struct {
	q Querier
}

// NewPackageTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPackageTransactionRepository(q Querier) *PackageTransactionRepo {
	return &PackageTransactionRepo{q: q}
}

// Create persiste una entrada del ledger.
func (r *PackageTransactionRepo) Create(t *entity.PackageTransaction) error {
	query := `
		INSERT INTO package_transactions
			(id, package_id, type, item_code, quantity, unit_type, batch, serial,
			 source_type, source_id, source_line_id, user_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.PackageID, t.Type, nullIfEmpty(t.ItemCode), t.Quantity, t.UnitType, t.Batch, t.Serial,
		nullIfEmpty(t.Source.Type), nullIfEmpty(t.Source.ID), t.Source.LineID, t.UserID, t.Notes, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create package transaction: %w", err)
	}
	return nil
}

// ListByPackage lista entradas ordenadas por (created_at, id) desde el cursor
// afterID (vacío = desde el inicio). Keyset para que la secuencia sea
// reiniciable sin depender de offsets.
func (r *PackageTransactionRepo) ListByPackage(packageID, afterID string, limit int) ([]*entity.PackageTransaction, error) {
	query := `
		SELECT id, package_id, type, item_code, quantity, unit_type, batch, serial,
		       source_type, source_id, source_line_id, user_id, notes, created_at
		FROM package_transactions
		WHERE package_id = $1`
	args := []any{packageID}
	if afterID != "" {
		query += `
		  AND (created_at, id) > (SELECT created_at, id FROM package_transactions WHERE id = $2)`
		args = append(args, afterID)
	}
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.PackageTransaction
	for rows.Next() {
		var t entity.PackageTransaction
		var itemCode, sourceType, sourceID *string
		if err := rows.Scan(&t.ID, &t.PackageID, &t.Type, &itemCode, &t.Quantity, &t.UnitType,
			&t.Batch, &t.Serial, &sourceType, &sourceID, &t.Source.LineID, &t.UserID, &t.Notes, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if itemCode != nil {
			t.ItemCode = *itemCode
		}
		if sourceType != nil {
			t.Source.Type = *sourceType
		}
		if sourceID != nil {
			t.Source.ID = *sourceID
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// SumByPackageItem suma con signo del ledger para (paquete, ítem).
func (r *PackageTransactionRepo) SumByPackageItem(packageID, itemCode string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM package_transactions
		WHERE package_id = $1 AND item_code = $2 AND type IN ($3, $4)`
	var sum decimal.Decimal
	err := r.q.QueryRow(context.Background(), query,
		packageID, itemCode, entity.TransactionTypeAdd, entity.TransactionTypeRemove).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger: %w", err)
	}
	return sum, nil
}
