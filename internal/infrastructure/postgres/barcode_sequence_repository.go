package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

var _ repository.BarcodeSequenceRepository = (*BarcodeSequenceRepo)(nil)

// BarcodeSequenceRepo contador persistido de códigos de barras.
// El incremento es un único UPDATE atómico (nunca read-then-increment):
// dos llamadas concurrentes jamás reciben el mismo valor, incluso entre
// instancias del servicio compartiendo la BD.
type BarcodeSequenceRepo struct {
	q Querier
}

// NewBarcodeSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBarcodeSequenceRepository(q Querier) *BarcodeSequenceRepo {
	return &BarcodeSequenceRepo{q: q}
}

// NextValue incrementa y devuelve el siguiente valor de la secuencia del
// prefijo, sembrándola en start si no existe (INSERT ON CONFLICT + RETURNING).
func (r *BarcodeSequenceRepo) NextValue(prefix string, start int64) (int64, error) {
	query := `
		INSERT INTO barcode_sequences (prefix, last_value)
		VALUES ($1, $2)
		ON CONFLICT (prefix)
		DO UPDATE SET last_value = barcode_sequences.last_value + 1
		RETURNING last_value`
	var value int64
	err := r.q.QueryRow(context.Background(), query, prefix, start).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next barcode sequence: %w", err)
	}
	return value, nil
}

// Current devuelve el último valor asignado (start-1 si la secuencia no existe).
func (r *BarcodeSequenceRepo) Current(prefix string, start int64) (int64, error) {
	var value int64
	err := r.q.QueryRow(context.Background(),
		`SELECT last_value FROM barcode_sequences WHERE prefix = $1`, prefix).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return start - 1, nil
		}
		return 0, fmt.Errorf("current barcode sequence: %w", err)
	}
	return value, nil
}
