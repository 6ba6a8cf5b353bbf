package packages

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// CreateAttributeDefinition registra una definición de atributo configurable.
func (uc *LifecycleUseCase) CreateAttributeDefinition(ctx context.Context, name, attrType string, required bool) (*entity.AttributeDefinition, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	switch attrType {
	case entity.AttributeTypeText, entity.AttributeTypeNumber, entity.AttributeTypeDate, entity.AttributeTypeBool:
	default:
		return nil, domain.ErrInvalidInput
	}
	def := &entity.AttributeDefinition{
		ID:        uuid.New().String(),
		Name:      name,
		Type:      attrType,
		Required:  required,
		CreatedAt: time.Now(),
	}
	if err := uc.attrRepo.Create(def); err != nil {
		return nil, err
	}
	return def, nil
}

// ListAttributeDefinitions definiciones vigentes.
func (uc *LifecycleUseCase) ListAttributeDefinitions(ctx context.Context) ([]*entity.AttributeDefinition, error) {
	return uc.attrRepo.List()
}

// GetAttributeDefinition definición por ID, o ErrNotFound.
func (uc *LifecycleUseCase) GetAttributeDefinition(ctx context.Context, id string) (*entity.AttributeDefinition, error) {
	def, err := uc.attrRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, domain.ErrNotFound
	}
	return def, nil
}

// validateAttributes valida el mapa de atributos contra las definiciones
// configuradas: claves desconocidas, obligatorios ausentes y tipo de valor.
// El esquema vive en configuración; internamente el paquete guarda un mapa abierto.
func (uc *LifecycleUseCase) validateAttributes(attrs map[string]string) error {
	defs, err := uc.attrRepo.List()
	if err != nil {
		return err
	}
	byID := make(map[string]*entity.AttributeDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	for key, value := range attrs {
		def, ok := byID[key]
		if !ok {
			return domain.ErrInvalidInput
		}
		if !valueMatchesType(value, def.Type) {
			return domain.ErrInvalidInput
		}
	}
	for _, d := range defs {
		if d.Required {
			if v, ok := attrs[d.ID]; !ok || v == "" {
				return domain.ErrInvalidInput
			}
		}
	}
	return nil
}

func valueMatchesType(value, attrType string) bool {
	if value == "" {
		return true // vacío se valida solo por obligatoriedad
	}
	switch attrType {
	case entity.AttributeTypeNumber:
		_, err := decimal.NewFromString(value)
		return err == nil
	case entity.AttributeTypeDate:
		if _, err := time.Parse("2006-01-02", value); err == nil {
			return true
		}
		_, err := time.Parse(time.RFC3339, value)
		return err == nil
	case entity.AttributeTypeBool:
		_, err := strconv.ParseBool(value)
		return err == nil
	default:
		return true
	}
}
