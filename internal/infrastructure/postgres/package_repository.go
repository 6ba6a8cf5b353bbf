package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

var _ repository.PackageRepository = (*PackageRepo)(nil)

// PackageRepo implementación de PackageRepository sobre PostgreSQL (usable con pool o tx).
type PackageRepo struct {
	q Querier
}

// NewPackageRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPackageRepository(q Querier) *PackageRepo {
	return &PackageRepo{q: q}
}

const packageColumns = `id, barcode, status, whs_code, bin_entry, bin_code, active,
	source_type, source_id, source_line_id, notes, attributes,
	created_at, created_by, updated_at, closed_at, closed_by, cancel_reason, lock_reason`

// Create persiste un paquete nuevo. Barcode duplicado -> ErrDuplicate.
func (r *PackageRepo) Create(p *entity.Package) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("serializar atributos: %w", err)
	}
	query := `
		INSERT INTO packages (` + packageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err = r.q.Exec(context.Background(), query,
		p.ID, p.Barcode, p.Status, p.WhsCode, p.BinEntry, p.BinCode, p.Active,
		nullIfEmpty(p.SourceType), nullIfEmpty(p.SourceID), p.SourceLineID, p.Notes, attrs,
		p.CreatedAt, p.CreatedBy, p.UpdatedAt, p.ClosedAt, nullIfEmpty(p.ClosedBy), p.CancelReason, p.LockReason,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

// GetByID obtiene un paquete por ID (nil si no existe).
func (r *PackageRepo) GetByID(id string) (*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get package")
}

// GetByBarcode obtiene un paquete por código de barras (nil si no existe).
func (r *PackageRepo) GetByBarcode(barcode string) (*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE barcode = $1 ORDER BY created_at LIMIT 1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, barcode), "get package by barcode")
}

// GetForUpdate bloquea la fila del paquete con NOWAIT: si otra transacción la
// tiene tomada devuelve ErrConflict en vez de encolarse en silencio.
func (r *PackageRepo) GetForUpdate(id string) (*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1 FOR UPDATE NOWAIT`
	pkg, err := r.scanOne(r.q.QueryRow(context.Background(), query, id), "get package for update")
	if err != nil {
		if isLockNotAvailable(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return pkg, nil
}

// UpdateStatus persiste status y metadatos de cierre/cancelación/bloqueo.
func (r *PackageRepo) UpdateStatus(p *entity.Package) error {
	query := `
		UPDATE packages
		SET status = $2, updated_at = $3, closed_at = $4, closed_by = $5,
		    cancel_reason = $6, lock_reason = $7
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.Status, p.UpdatedAt, p.ClosedAt, nullIfEmpty(p.ClosedBy), p.CancelReason, p.LockReason)
	if err != nil {
		return fmt.Errorf("update package status: %w", err)
	}
	return nil
}

// UpdateLocation persiste la proyección de ubicación actual.
func (r *PackageRepo) UpdateLocation(p *entity.Package) error {
	query := `
		UPDATE packages
		SET whs_code = $2, bin_entry = $3, bin_code = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, p.ID, p.WhsCode, p.BinEntry, p.BinCode, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update package location: %w", err)
	}
	return nil
}

// ListActive lista paquetes activos no cancelados, opcionalmente por bodega.
func (r *PackageRepo) ListActive(whsCode string, limit, offset int) ([]*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE active = TRUE AND status <> $1`
	args := []any{entity.PackageStatusCancelled}
	pos := 2
	if whsCode != "" {
		query += fmt.Sprintf(" AND whs_code = $%d", pos)
		args = append(args, whsCode)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.list(query, args, "list active packages")
}

// ListBySource lista paquetes de una operación origen; onlyActive filtra los provisionales.
func (r *PackageRepo) ListBySource(sourceType, sourceID string, onlyActive bool) ([]*entity.Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE source_type = $1 AND source_id = $2`
	if onlyActive {
		query += ` AND active = TRUE AND status <> '` + entity.PackageStatusCancelled + `'`
	}
	query += ` ORDER BY created_at`
	return r.list(query, []any{sourceType, sourceID}, "list packages by source")
}

// ActivateBySource activa en bloque los provisionales de una operación origen.
func (r *PackageRepo) ActivateBySource(sourceType, sourceID string) (int, error) {
	query := `
		UPDATE packages SET active = TRUE, updated_at = now()
		WHERE source_type = $1 AND source_id = $2 AND active = FALSE AND status = $3`
	tag, err := r.q.Exec(context.Background(), query, sourceType, sourceID, entity.PackageStatusOpen)
	if err != nil {
		return 0, fmt.Errorf("activate packages by source: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CancelBySource cancela en bloque los provisionales de una operación abortada.
func (r *PackageRepo) CancelBySource(sourceType, sourceID, reason, userID string) (int, error) {
	query := `
		UPDATE packages SET status = $4, cancel_reason = $5, closed_by = $6, closed_at = now(), updated_at = now()
		WHERE source_type = $1 AND source_id = $2 AND active = FALSE AND status = $3`
	tag, err := r.q.Exec(context.Background(), query,
		sourceType, sourceID, entity.PackageStatusOpen, entity.PackageStatusCancelled, reason, userID)
	if err != nil {
		return 0, fmt.Errorf("cancel packages by source: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ExistsBarcode indica si el código ya está asignado a algún paquete.
func (r *PackageRepo) ExistsBarcode(barcode string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM packages WHERE barcode = $1)`, barcode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists barcode: %w", err)
	}
	return exists, nil
}

// CountByBarcode cuenta paquetes con el mismo código (detección de duplicados).
func (r *PackageRepo) CountByBarcode(barcode string) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM packages WHERE barcode = $1`, barcode).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by barcode: %w", err)
	}
	return n, nil
}

func (r *PackageRepo) list(query string, args []any, op string) ([]*entity.Package, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var result []*entity.Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, pkg)
	}
	return result, rows.Err()
}

func (r *PackageRepo) scanOne(row pgx.Row, op string) (*entity.Package, error) {
	pkg, err := scanPackage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pkg, nil
}

func scanPackage(row pgx.Row) (*entity.Package, error) {
	var p entity.Package
	var sourceType, sourceID, closedBy *string
	var attrs []byte
	err := row.Scan(
		&p.ID, &p.Barcode, &p.Status, &p.WhsCode, &p.BinEntry, &p.BinCode, &p.Active,
		&sourceType, &sourceID, &p.SourceLineID, &p.Notes, &attrs,
		&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.ClosedAt, &closedBy, &p.CancelReason, &p.LockReason,
	)
	if err != nil {
		return nil, err
	}
	if sourceType != nil {
		p.SourceType = *sourceType
	}
	if sourceID != nil {
		p.SourceID = *sourceID
	}
	if closedBy != nil {
		p.ClosedBy = *closedBy
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
			return nil, fmt.Errorf("deserializar atributos: %w", err)
		}
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
