package repository

import "github.com/jhoicas/Paqueteo-api/internal/domain/entity"

// AttributeDefinitionRepository puerto de las definiciones de atributos
// configurables de paquete (esquema externo, solo lectura para el dominio).
type AttributeDefinitionRepository interface {
	Create(def *entity.AttributeDefinition) error
	List() ([]*entity.AttributeDefinition, error)
	GetByID(id string) (*entity.AttributeDefinition, error)
}
