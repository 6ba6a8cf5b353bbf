package wms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
)

var _ ports.WmsBinStockService = (*Client)(nil)

// Config conexión al servicio de bin-tracking del WMS.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client consulta cantidades por bin en el WMS. Es una fuente independiente
// del ERP; se usa como tercera opinión durante la conciliación.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type binStockResponse struct {
	ItemCode string          `json:"item_code"`
	BinEntry int             `json:"bin_entry"`
	Quantity decimal.Decimal `json:"quantity"`
}

// GetBinQuantity cantidad del ítem en el bin según el WMS. Bin o ítem sin
// registro devuelve cero sin error.
func (c *Client) GetBinQuantity(ctx context.Context, itemCode string, binEntry int) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bins/%d/stock?item=%s",
		c.cfg.BaseURL, binEntry, url.QueryEscape(itemCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wms: crear request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return decimal.Zero, fmt.Errorf("wms: timeout o cancelación: %w", ctx.Err())
		}
		return decimal.Zero, fmt.Errorf("wms: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, nil
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return decimal.Zero, fmt.Errorf("wms: HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var out binStockResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("wms: deserializar respuesta: %w", err)
	}
	return out.Quantity, nil
}
