package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Paqueteo-api/internal/application/dto"
)

func TestPageRequest_Normalize(t *testing.T) {
	cases := []struct {
		name       string
		in         dto.PageRequest
		wantLimit  int
		wantOffset int
	}{
		{"cero usa el limite por defecto", dto.PageRequest{}, 20, 0},
		{"dentro del rango queda igual", dto.PageRequest{Limit: 50, Offset: 100}, 50, 100},
		{"por encima del tope se acota", dto.PageRequest{Limit: 500}, 100, 0},
		{"offset negativo se corrige", dto.PageRequest{Limit: 10, Offset: -5}, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			assert.Equal(t, tc.wantLimit, tc.in.Limit)
			assert.Equal(t, tc.wantOffset, tc.in.Offset)
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	req := dto.PageRequest{Limit: 20, Offset: 40}
	page := dto.NewPageResponse(req, 7)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 40, page.Offset)
	assert.Equal(t, 7, page.Count)
}
