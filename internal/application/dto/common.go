package dto

// Paginación de listados. El tope duro evita que un caller pida la tabla
// completa de un tirón.
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PageRequest parámetros de página leídos del query string.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// Normalize aplica el límite por defecto y acota al tope.
func (p *PageRequest) Normalize() {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de la página devuelta. Count es el tamaño de la
// página, no el total de la tabla.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// NewPageResponse arma los metadatos a partir de la petición normalizada.
func NewPageResponse(req PageRequest, count int) PageResponse {
	return PageResponse{Limit: req.Limit, Offset: req.Offset, Count: count}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
