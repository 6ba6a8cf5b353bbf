package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

var _ repository.InconsistencyRepository = (*InconsistencyRepo)(nil)

// InconsistencyRepo almacén de inconsistencias sobre PostgreSQL.
// Referencia débil al paquete: sin FK de borrado, las filas sobreviven
// para auditoría.
type InconsistencyRepo struct {
	q Querier
}

// NewInconsistencyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInconsistencyRepository(q Querier) *InconsistencyRepo {
	return &InconsistencyRepo{q: q}
}

const inconsistencyColumns = `id, package_id, barcode, item_code, batch, serial, whs_code, bin_entry,
	erp_quantity, wms_quantity, package_quantity, type, severity, detected_at,
	resolved, resolved_by, resolution_action, resolved_at, error_message, notes`

// Create persiste una inconsistencia nueva.
func (r *InconsistencyRepo) Create(inc *entity.PackageInconsistency) error {
	query := `
		INSERT INTO package_inconsistencies (` + inconsistencyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(context.Background(), query,
		inc.ID, inc.PackageID, inc.Barcode, inc.ItemCode, inc.Batch, inc.Serial, inc.WhsCode, inc.BinEntry,
		inc.ErpQuantity, inc.WmsQuantity, inc.PackageQuantity, inc.Type, inc.Severity, inc.DetectedAt,
		inc.Resolved, inc.ResolvedBy, inc.ResolutionAction, inc.ResolvedAt, inc.ErrorMessage, inc.Notes)
	if err != nil {
		return fmt.Errorf("create inconsistency: %w", err)
	}
	return nil
}

// Update actualiza cantidades, severidad y estado de resolución.
func (r *InconsistencyRepo) Update(inc *entity.PackageInconsistency) error {
	query := `
		UPDATE package_inconsistencies
		SET barcode = $2, whs_code = $3, bin_entry = $4,
		    erp_quantity = $5, wms_quantity = $6, package_quantity = $7,
		    severity = $8, detected_at = $9, resolved = $10, resolved_by = $11,
		    resolution_action = $12, resolved_at = $13, error_message = $14, notes = $15
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		inc.ID, inc.Barcode, inc.WhsCode, inc.BinEntry,
		inc.ErpQuantity, inc.WmsQuantity, inc.PackageQuantity,
		inc.Severity, inc.DetectedAt, inc.Resolved, inc.ResolvedBy,
		inc.ResolutionAction, inc.ResolvedAt, inc.ErrorMessage, inc.Notes)
	if err != nil {
		return fmt.Errorf("update inconsistency: %w", err)
	}
	return nil
}

// GetByID obtiene una inconsistencia (nil si no existe).
func (r *InconsistencyRepo) GetByID(id string) (*entity.PackageInconsistency, error) {
	query := `SELECT ` + inconsistencyColumns + ` FROM package_inconsistencies WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get inconsistency")
}

// GetByKey obtiene la inconsistencia más reciente por clave lógica
// (paquete + ítem + tipo), resuelta o no.
func (r *InconsistencyRepo) GetByKey(packageID, itemCode, incType string) (*entity.PackageInconsistency, error) {
	query := `
		SELECT ` + inconsistencyColumns + `
		FROM package_inconsistencies
		WHERE package_id = $1 AND item_code = $2 AND type = $3
		ORDER BY detected_at DESC LIMIT 1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, packageID, itemCode, incType), "get inconsistency by key")
}

// ListUnresolved inconsistencias vigentes, opcionalmente por bodega.
func (r *InconsistencyRepo) ListUnresolved(whsCode string) ([]*entity.PackageInconsistency, error) {
	query := `SELECT ` + inconsistencyColumns + ` FROM package_inconsistencies WHERE resolved = FALSE`
	args := []any{}
	if whsCode != "" {
		query += ` AND whs_code = $1`
		args = append(args, whsCode)
	}
	query += ` ORDER BY severity, detected_at`
	return r.list(query, args, "list unresolved")
}

// ListByPackage todas las inconsistencias de un paquete (auditoría).
func (r *InconsistencyRepo) ListByPackage(packageID string) ([]*entity.PackageInconsistency, error) {
	query := `SELECT ` + inconsistencyColumns + ` FROM package_inconsistencies WHERE package_id = $1 ORDER BY detected_at`
	return r.list(query, []any{packageID}, "list by package")
}

func (r *InconsistencyRepo) list(query string, args []any, op string) ([]*entity.PackageInconsistency, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var result []*entity.PackageInconsistency
	for rows.Next() {
		inc, err := scanInconsistency(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, inc)
	}
	return result, rows.Err()
}

func (r *InconsistencyRepo) scanOne(row pgx.Row, op string) (*entity.PackageInconsistency, error) {
	inc, err := scanInconsistency(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inc, nil
}

func scanInconsistency(row pgx.Row) (*entity.PackageInconsistency, error) {
	var inc entity.PackageInconsistency
	err := row.Scan(&inc.ID, &inc.PackageID, &inc.Barcode, &inc.ItemCode, &inc.Batch, &inc.Serial,
		&inc.WhsCode, &inc.BinEntry, &inc.ErpQuantity, &inc.WmsQuantity, &inc.PackageQuantity,
		&inc.Type, &inc.Severity, &inc.DetectedAt, &inc.Resolved, &inc.ResolvedBy,
		&inc.ResolutionAction, &inc.ResolvedAt, &inc.ErrorMessage, &inc.Notes)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}
