package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

var _ repository.PackageContentRepository = (*PackageContentRepo)(nil)

// PackageContentRepo implementación sobre PostgreSQL (usable con pool o tx).
type PackageContentRepo struct {
	q Querier
}

// NewPackageContentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPackageContentRepository(q Querier) *PackageContentRepo {
	return &PackageContentRepo{q: q}
}

const contentColumns = `package_id, item_code, quantity, unit_type, whs_code, bin_entry, added_at, added_by, updated_at`

// Get obtiene la fila de contenido (nil si el ítem no está en el paquete).
func (r *PackageContentRepo) Get(packageID, itemCode string) (*entity.PackageContent, error) {
	query := `SELECT ` + contentColumns + ` FROM package_contents WHERE package_id = $1 AND item_code = $2`
	return r.scanOne(r.q.QueryRow(context.Background(), query, packageID, itemCode), "get content")
}

// GetForUpdate bloquea la fila de contenido con NOWAIT (ErrConflict si está tomada).
func (r *PackageContentRepo) GetForUpdate(packageID, itemCode string) (*entity.PackageContent, error) {
	query := `SELECT ` + contentColumns + ` FROM package_contents WHERE package_id = $1 AND item_code = $2 FOR UPDATE NOWAIT`
	c, err := r.scanOne(r.q.QueryRow(context.Background(), query, packageID, itemCode), "get content for update")
	if err != nil {
		if isLockNotAvailable(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return c, nil
}

// Upsert inserta o actualiza la cantidad proyectada (por paquete e ítem).
func (r *PackageContentRepo) Upsert(c *entity.PackageContent) error {
	query := `
		INSERT INTO package_contents (` + contentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (package_id, item_code)
		DO UPDATE SET quantity = EXCLUDED.quantity, whs_code = EXCLUDED.whs_code,
		              bin_entry = EXCLUDED.bin_entry, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		c.PackageID, c.ItemCode, c.Quantity, c.UnitType, c.WhsCode, c.BinEntry, c.AddedAt, c.AddedBy, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}
	return nil
}

// UpdateLocationByPackage reubica todas las filas de contenido del paquete.
func (r *PackageContentRepo) UpdateLocationByPackage(packageID, whsCode string, binEntry *int) error {
	query := `UPDATE package_contents SET whs_code = $2, bin_entry = $3, updated_at = now() WHERE package_id = $1`
	_, err := r.q.Exec(context.Background(), query, packageID, whsCode, binEntry)
	if err != nil {
		return fmt.Errorf("update content location: %w", err)
	}
	return nil
}

// ListByPackage lista el contenido actual del paquete ordenado por ítem.
func (r *PackageContentRepo) ListByPackage(packageID string) ([]*entity.PackageContent, error) {
	query := `SELECT ` + contentColumns + ` FROM package_contents WHERE package_id = $1 ORDER BY item_code`
	rows, err := r.q.Query(context.Background(), query, packageID)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()
	var list []*entity.PackageContent
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *PackageContentRepo) scanOne(row pgx.Row, op string) (*entity.PackageContent, error) {
	c, err := scanContent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func scanContent(row pgx.Row) (*entity.PackageContent, error) {
	var c entity.PackageContent
	err := row.Scan(&c.PackageID, &c.ItemCode, &c.Quantity, &c.UnitType, &c.WhsCode, &c.BinEntry, &c.AddedAt, &c.AddedBy, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
