package sapb1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
)

// Verificar en tiempo de compilación que Client implementa ErpService.
var _ ports.ErpService = (*Client)(nil)

// Config conexión al Service Layer de SAP Business One.
type Config struct {
	BaseURL   string // ej. https://sapserver:50000/b1s/v1
	CompanyDB string
	Username  string
	Password  string
	Timeout   time.Duration
}

// Client adaptador del ERP sobre el Service Layer (REST/OData) de SAP B1.
// Usa net/http de la librería estándar; la sesión (cookie B1SESSION) se
// renueva de forma perezosa cuando expira.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu       sync.Mutex
	loggedIn bool
}

// NewClient construye el adaptador. timeout cero usa 15 s.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
	}
}

// ── Estructuras del protocolo Service Layer ───────────────────────────────────

type loginRequest struct {
	CompanyDB string `json:"CompanyDB"`
	UserName  string `json:"UserName"`
	Password  string `json:"Password"`
}

type binLocationResponse struct {
	AbsEntry int    `json:"AbsEntry"`
	BinCode  string `json:"BinCode"`
}

type warehouseResponse struct {
	WarehouseCode string `json:"WarehouseCode"`
	WarehouseName string `json:"WarehouseName"`
}

type itemResponse struct {
	ItemCode         string `json:"ItemCode"`
	ItemName         string `json:"ItemName"`
	InventoryUOM     string `json:"InventoryUOM"`
	PurchaseUnit     string `json:"PurchaseUnit"`
	SalesUnit        string `json:"SalesUnit"`
	NumInBuy         string `json:"PurchaseItemsPerUnit"`
	NumInSale        string `json:"SalesItemsPerUnit"`
	Valid            string `json:"Valid"`
	WarehouseEntries []struct {
		WarehouseCode string  `json:"WarehouseCode"`
		InStock       float64 `json:"InStock"`
	} `json:"ItemWarehouseInfoCollection"`
}

type sqlQueryResponse struct {
	Value []struct {
		OnHand float64 `json:"OnHand"`
	} `json:"value"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// GetBinCode resuelve el código legible de un bin. Bin inexistente devuelve
// cadena vacía sin error (el caller decide si es ErrNotFound o huérfano).
func (c *Client) GetBinCode(ctx context.Context, binEntry int) (string, error) {
	var resp binLocationResponse
	status, err := c.get(ctx, fmt.Sprintf("/BinLocations(%d)", binEntry), &resp)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	return resp.BinCode, nil
}

// GetWarehouseName resuelve el nombre de una bodega (OWHS). Bodega inexistente
// devuelve cadena vacía sin error.
func (c *Client) GetWarehouseName(ctx context.Context, whsCode string) (string, error) {
	var resp warehouseResponse
	status, err := c.get(ctx, fmt.Sprintf("/Warehouses('%s')", url.PathEscape(whsCode)), &resp)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	return resp.WarehouseName, nil
}

// GetItemInfo consulta el maestro de artículos (OITM) con los factores de
// conversión de unidad.
func (c *Client) GetItemInfo(ctx context.Context, itemCode string) (*ports.ItemData, error) {
	var resp itemResponse
	status, err := c.get(ctx, fmt.Sprintf("/Items('%s')", url.PathEscape(itemCode)), &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	numInBuy, _ := decimal.NewFromString(resp.NumInBuy)
	numInSale, _ := decimal.NewFromString(resp.NumInSale)
	return &ports.ItemData{
		ItemCode:     resp.ItemCode,
		ItemName:     resp.ItemName,
		InventoryUoM: resp.InventoryUOM,
		PurchaseUoM:  resp.PurchaseUnit,
		SalesUoM:     resp.SalesUnit,
		NumInBuy:     numInBuy,
		NumInSale:    numInSale,
		Valid:        resp.Valid != "tNO",
	}, nil
}

// GetOnHandQuantity on-hand reportado por el ERP. Con binEntry usa la consulta
// provisionada PkgOnHandByBin (SQLQueries del Service Layer); sin bin suma el
// stock de la bodega desde ItemWarehouseInfoCollection.
func (c *Client) GetOnHandQuantity(ctx context.Context, itemCode, whsCode string, binEntry *int) (decimal.Decimal, error) {
	if binEntry != nil {
		path := fmt.Sprintf("/SQLQueries('PkgOnHandByBin')/List?itemCode='%s'&binAbs=%d",
			url.QueryEscape(itemCode), *binEntry)
		var resp sqlQueryResponse
		status, err := c.get(ctx, path, &resp)
		if err != nil {
			return decimal.Zero, err
		}
		if status == http.StatusNotFound || len(resp.Value) == 0 {
			return decimal.Zero, nil
		}
		return decimal.NewFromFloat(resp.Value[0].OnHand), nil
	}

	var resp itemResponse
	status, err := c.get(ctx, fmt.Sprintf("/Items('%s')?$select=ItemCode,ItemWarehouseInfoCollection", url.PathEscape(itemCode)), &resp)
	if err != nil {
		return decimal.Zero, err
	}
	if status == http.StatusNotFound {
		return decimal.Zero, nil
	}
	for _, wh := range resp.WarehouseEntries {
		if wh.WarehouseCode == whsCode {
			return decimal.NewFromFloat(wh.InStock), nil
		}
	}
	return decimal.Zero, nil
}

// ── Sesión y transporte ───────────────────────────────────────────────────────

// login abre sesión en el Service Layer; la cookie queda en el jar.
func (c *Client) login(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{
		CompanyDB: c.cfg.CompanyDB,
		UserName:  c.cfg.Username,
		Password:  c.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("sapb1: serializar login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/Login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sapb1: crear request login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sapb1: login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("sapb1: login HTTP %d: %s", resp.StatusCode, string(raw))
	}
	c.loggedIn = true
	return nil
}

// get ejecuta un GET autenticado; renueva la sesión una vez ante 401.
// Devuelve el status para que el caller distinga 404 de éxito.
func (c *Client) get(ctx context.Context, path string, out any) (int, error) {
	c.mu.Lock()
	if !c.loggedIn {
		if err := c.login(ctx); err != nil {
			c.mu.Unlock()
			return 0, err
		}
	}
	c.mu.Unlock()

	status, err := c.doGet(ctx, path, out)
	if err != nil {
		return status, err
	}
	if status == http.StatusUnauthorized {
		c.mu.Lock()
		c.loggedIn = false
		if err := c.login(ctx); err != nil {
			c.mu.Unlock()
			return 0, err
		}
		c.mu.Unlock()
		return c.doGet(ctx, path, out)
	}
	return status, nil
}

func (c *Client) doGet(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("sapb1: crear request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("sapb1: timeout o cancelación: %w", ctx.Err())
		}
		return 0, fmt.Errorf("sapb1: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("sapb1: leer respuesta: %w", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("sapb1: deserializar respuesta: %w", err)
		}
		return resp.StatusCode, nil
	case http.StatusNotFound, http.StatusUnauthorized:
		return resp.StatusCode, nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return resp.StatusCode, fmt.Errorf("sapb1: HTTP %d: %s", resp.StatusCode, string(raw))
	}
}
