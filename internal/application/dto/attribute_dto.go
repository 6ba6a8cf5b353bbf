package dto

import (
	"time"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// CreateAttributeDefinitionRequest alta de una definición de atributo de paquete.
type CreateAttributeDefinitionRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Type     string `json:"type" validate:"required,oneof=TEXT NUMBER DATE BOOL"`
	Required bool   `json:"required"`
}

// AttributeDefinitionResponse salida de una definición de atributo.
type AttributeDefinitionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Required  bool      `json:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAttributeDefinitionResponse mapea la entidad a su representación HTTP.
func NewAttributeDefinitionResponse(def *entity.AttributeDefinition) AttributeDefinitionResponse {
	return AttributeDefinitionResponse{
		ID:        def.ID,
		Name:      def.Name,
		Type:      def.Type,
		Required:  def.Required,
		CreatedAt: def.CreatedAt,
	}
}
