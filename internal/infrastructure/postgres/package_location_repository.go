package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

var _ repository.PackageLocationRepository = (*PackageLocationRepo)(nil)

// PackageLocationRepo historial de ubicaciones append-only sobre PostgreSQL.
type PackageLocationRepo struct {
	q Querier
}

// NewPackageLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPackageLocationRepository(q Querier) *PackageLocationRepo {
	return &PackageLocationRepo{q: q}
}

const locationColumns = `id, package_id, movement_type, from_whs_code, from_bin_entry, from_bin_code,
	to_whs_code, to_bin_entry, to_bin_code, source_type, source_id, source_line_id, user_id, notes, created_at`

// Create persiste una entrada del historial.
func (r *PackageLocationRepo) Create(h *entity.PackageLocationHistory) error {
	query := `
		INSERT INTO package_location_history (` + locationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(context.Background(), query,
		h.ID, h.PackageID, h.MovementType, h.FromWhsCode, h.FromBinEntry, h.FromBinCode,
		h.ToWhsCode, h.ToBinEntry, h.ToBinCode,
		nullIfEmpty(h.Source.Type), nullIfEmpty(h.Source.ID), h.Source.LineID, h.UserID, h.Notes, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("create location history: %w", err)
	}
	return nil
}

// ListByPackage historial ordenado (más antiguo primero).
func (r *PackageLocationRepo) ListByPackage(packageID string) ([]*entity.PackageLocationHistory, error) {
	query := `SELECT ` + locationColumns + ` FROM package_location_history WHERE package_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, packageID)
	if err != nil {
		return nil, fmt.Errorf("list location history: %w", err)
	}
	defer rows.Close()
	var list []*entity.PackageLocationHistory
	for rows.Next() {
		h, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location history: %w", err)
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// LastByPackage última entrada del historial (nil si no hay movimientos).
func (r *PackageLocationRepo) LastByPackage(packageID string) (*entity.PackageLocationHistory, error) {
	query := `SELECT ` + locationColumns + ` FROM package_location_history WHERE package_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	h, err := scanLocation(r.q.QueryRow(context.Background(), query, packageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last location: %w", err)
	}
	return h, nil
}

func scanLocation(row pgx.Row) (*entity.PackageLocationHistory, error) {
	var h entity.PackageLocationHistory
	var sourceType, sourceID *string
	err := row.Scan(&h.ID, &h.PackageID, &h.MovementType, &h.FromWhsCode, &h.FromBinEntry, &h.FromBinCode,
		&h.ToWhsCode, &h.ToBinEntry, &h.ToBinCode, &sourceType, &sourceID, &h.Source.LineID, &h.UserID, &h.Notes, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sourceType != nil {
		h.Source.Type = *sourceType
	}
	if sourceID != nil {
		h.Source.ID = *sourceID
	}
	return &h, nil
}
