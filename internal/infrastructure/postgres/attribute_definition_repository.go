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

var _ repository.AttributeDefinitionRepository = (*AttributeDefinitionRepo)(nil)

// AttributeDefinitionRepo definiciones de atributos de paquete sobre PostgreSQL.
type AttributeDefinitionRepo struct {
	q Querier
}

// NewAttributeDefinitionRepository construye el adaptador.
func NewAttributeDefinitionRepository(q Querier) *AttributeDefinitionRepo {
	return &AttributeDefinitionRepo{q: q}
}

// Create persiste una definición. Nombre duplicado -> ErrDuplicate.
func (r *AttributeDefinitionRepo) Create(def *entity.AttributeDefinition) error {
	query := `
		INSERT INTO attribute_definitions (id, name, type, required, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query, def.ID, def.Name, def.Type, def.Required, def.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create attribute definition: %w", err)
	}
	return nil
}

// List todas las definiciones configuradas.
func (r *AttributeDefinitionRepo) List() ([]*entity.AttributeDefinition, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT id, name, type, required, created_at FROM attribute_definitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list attribute definitions: %w", err)
	}
	defer rows.Close()
	var list []*entity.AttributeDefinition
	for rows.Next() {
		var d entity.AttributeDefinition
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Required, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attribute definition: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// GetByID obtiene una definición (nil si no existe).
func (r *AttributeDefinitionRepo) GetByID(id string) (*entity.AttributeDefinition, error) {
	var d entity.AttributeDefinition
	err := r.q.QueryRow(context.Background(),
		`SELECT id, name, type, required, created_at FROM attribute_definitions WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Type, &d.Required, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attribute definition: %w", err)
	}
	return &d, nil
}
