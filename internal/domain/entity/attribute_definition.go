package entity

import "time"

// Tipos de dato admitidos para atributos configurables de paquete.
const (
	AttributeTypeText   = "TEXT"
	AttributeTypeNumber = "NUMBER"
	AttributeTypeDate   = "DATE"
	AttributeTypeBool   = "BOOL"
)

// AttributeDefinition definición externa de un atributo dinámico de paquete.
// El esquema (tipo, obligatoriedad) vive en configuración, no en el tipo Package:
// los valores se validan en la frontera y se guardan como mapa abierto.
type AttributeDefinition struct {
	ID        string
	Name      string
	Type      string
	Required  bool
	CreatedAt time.Time
}
