package consistency_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Paqueteo-api/internal/application/barcode"
	"github.com/jhoicas/Paqueteo-api/internal/application/consistency"
	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakePkgRepo struct {
	packages map[string]*entity.Package
	barcodes map[string]int // conteo por barcode (para simular duplicados)
}

func newFakePkgRepo() *fakePkgRepo {
	return &fakePkgRepo{packages: make(map[string]*entity.Package), barcodes: make(map[string]int)}
}

func (r *fakePkgRepo) add(p *entity.Package) {
	r.packages[p.ID] = p
	r.barcodes[p.Barcode]++
}

func (r *fakePkgRepo) Create(p *entity.Package) error { r.add(p); return nil }
func (r *fakePkgRepo) GetByID(id string) (*entity.Package, error) {
	p, ok := r.packages[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}
func (r *fakePkgRepo) GetByBarcode(string) (*entity.Package, error)    { return nil, nil }
func (r *fakePkgRepo) GetForUpdate(id string) (*entity.Package, error) { return r.GetByID(id) }
func (r *fakePkgRepo) UpdateStatus(*entity.Package) error              { return nil }
func (r *fakePkgRepo) UpdateLocation(*entity.Package) error            { return nil }
func (r *fakePkgRepo) ListActive(whsCode string, limit, offset int) ([]*entity.Package, error) {
	var all []*entity.Package
	for _, p := range r.packages {
		if p.Active && p.Status != entity.PackageStatusCancelled && (whsCode == "" || p.WhsCode == whsCode) {
			all = append(all, p)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
func (r *fakePkgRepo) ListBySource(string, string, bool) ([]*entity.Package, error) {
	return nil, nil
}
func (r *fakePkgRepo) ActivateBySource(string, string) (int, error)               { return 0, nil }
func (r *fakePkgRepo) CancelBySource(string, string, string, string) (int, error) { return 0, nil }
func (r *fakePkgRepo) ExistsBarcode(code string) (bool, error) {
	return r.barcodes[code] > 0, nil
}
func (r *fakePkgRepo) CountByBarcode(code string) (int, error) { return r.barcodes[code], nil }

type fakeContentRepo struct {
	contents map[string][]*entity.PackageContent // por packageID
}

func (r *fakeContentRepo) Get(string, string) (*entity.PackageContent, error) { return nil, nil }
func (r *fakeContentRepo) GetForUpdate(string, string) (*entity.PackageContent, error) {
	return nil, nil
}
func (r *fakeContentRepo) Upsert(*entity.PackageContent) error { return nil }
func (r *fakeContentRepo) ListByPackage(packageID string) ([]*entity.PackageContent, error) {
	return r.contents[packageID], nil
}
func (r *fakeContentRepo) UpdateLocationByPackage(packageID, whsCode string, binEntry *int) error {
	for _, c := range r.contents[packageID] {
		c.WhsCode = whsCode
		c.BinEntry = binEntry
	}
	return nil
}

type fakeTxnRepo struct {
	sums map[string]decimal.Decimal // key: packageID|itemCode
}

func (r *fakeTxnRepo) Create(*entity.PackageTransaction) error { return nil }
func (r *fakeTxnRepo) ListByPackage(string, string, int) ([]*entity.PackageTransaction, error) {
	return nil, nil
}
func (r *fakeTxnRepo) SumByPackageItem(packageID, itemCode string) (decimal.Decimal, error) {
	if v, ok := r.sums[packageID+"|"+itemCode]; ok {
		return v, nil
	}
	return decimal.Zero, nil
}

type fakeIncRepo struct {
	mu   sync.Mutex
	incs map[string]*entity.PackageInconsistency // por ID
}

func newFakeIncRepo() *fakeIncRepo {
	return &fakeIncRepo{incs: make(map[string]*entity.PackageInconsistency)}
}

func (r *fakeIncRepo) Create(inc *entity.PackageInconsistency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inc
	r.incs[inc.ID] = &cp
	return nil
}
func (r *fakeIncRepo) Update(inc *entity.PackageInconsistency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inc
	r.incs[inc.ID] = &cp
	return nil
}
func (r *fakeIncRepo) GetByID(id string) (*entity.PackageInconsistency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc, ok := r.incs[id]
	if !ok {
		return nil, nil
	}
	cp := *inc
	return &cp, nil
}
func (r *fakeIncRepo) GetByKey(packageID, itemCode, incType string) (*entity.PackageInconsistency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.PackageInconsistency
	for _, inc := range r.incs {
		if inc.PackageID == packageID && inc.ItemCode == itemCode && inc.Type == incType {
			if latest == nil || inc.DetectedAt.After(latest.DetectedAt) {
				latest = inc
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}
func (r *fakeIncRepo) ListUnresolved(whsCode string) ([]*entity.PackageInconsistency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PackageInconsistency
	for _, inc := range r.incs {
		if !inc.Resolved && (whsCode == "" || inc.WhsCode == whsCode) {
			cp := *inc
			out = append(out, &cp)
		}
	}
	return out, nil
}
func (r *fakeIncRepo) ListByPackage(packageID string) ([]*entity.PackageInconsistency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PackageInconsistency
	for _, inc := range r.incs {
		if inc.PackageID == packageID {
			cp := *inc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeIncRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.incs)
}

type stubErp struct {
	bins     map[int]string
	onHand   map[string]decimal.Decimal // key: itemCode|whsCode
	failItem string                     // lookup de este ítem falla
}

func (e *stubErp) GetBinCode(_ context.Context, binEntry int) (string, error) {
	return e.bins[binEntry], nil
}
func (e *stubErp) GetWarehouseName(context.Context, string) (string, error) { return "", nil }
func (e *stubErp) GetItemInfo(context.Context, string) (*ports.ItemData, error) { return nil, nil }
func (e *stubErp) GetOnHandQuantity(_ context.Context, itemCode, whsCode string, _ *int) (decimal.Decimal, error) {
	if itemCode == e.failItem {
		return decimal.Zero, errors.New("service layer timeout")
	}
	if v, ok := e.onHand[itemCode+"|"+whsCode]; ok {
		return v, nil
	}
	return decimal.Zero, nil
}

type stubWms struct {
	quantities map[string]decimal.Decimal // key: itemCode|binEntry
}

func (w *stubWms) GetBinQuantity(_ context.Context, itemCode string, binEntry int) (decimal.Decimal, error) {
	if v, ok := w.quantities[itemCode+"|"+string(rune('0'+binEntry))]; ok {
		return v, nil
	}
	return decimal.Zero, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Arnés
// ──────────────────────────────────────────────────────────────────────────────

type harness struct {
	engine  *consistency.Engine
	pkgRepo *fakePkgRepo
	cRepo   *fakeContentRepo
	tRepo   *fakeTxnRepo
	incRepo *fakeIncRepo
	erp     *stubErp
	wms     *stubWms
}

func newHarness(policy consistency.Policy) *harness {
	pkgRepo := newFakePkgRepo()
	cRepo := &fakeContentRepo{contents: make(map[string][]*entity.PackageContent)}
	tRepo := &fakeTxnRepo{sums: make(map[string]decimal.Decimal)}
	incRepo := newFakeIncRepo()
	erp := &stubErp{bins: map[int]string{3: "A-01-03"}, onHand: make(map[string]decimal.Decimal)}
	wms := &stubWms{quantities: make(map[string]decimal.Decimal)}
	allocator := barcode.NewAllocator(barcode.Settings{Prefix: "PKG", Length: 8, Start: 1}, nil, pkgRepo)
	return &harness{
		engine:  consistency.NewEngine(pkgRepo, cRepo, tRepo, incRepo, erp, wms, allocator, policy),
		pkgRepo: pkgRepo,
		cRepo:   cRepo,
		tRepo:   tRepo,
		incRepo: incRepo,
		erp:     erp,
		wms:     wms,
	}
}

// seedPackage paquete con un único ítem: qty en ledger, erpQty en el ERP.
func (h *harness) seedPackage(id string, ledgerQty, erpQty int64) *entity.Package {
	bin := 3
	pkg := &entity.Package{
		ID:       id,
		Barcode:  "PKG0000000" + id[len(id)-1:],
		Status:   entity.PackageStatusOpen,
		WhsCode:  "BOD01",
		BinEntry: &bin,
		Active:   true,
	}
	h.pkgRepo.add(pkg)
	h.cRepo.contents[id] = []*entity.PackageContent{{
		PackageID: id,
		ItemCode:  "ITEM-A",
		Quantity:  decimal.NewFromInt(ledgerQty),
	}}
	h.tRepo.sums[id+"|ITEM-A"] = decimal.NewFromInt(ledgerQty)
	h.erp.onHand["ITEM-A|BOD01"] = decimal.NewFromInt(erpQty)
	// El WMS por defecto coincide con el ledger (sin mismatch de ubicación).
	h.wms.quantities["ITEM-A|"+string(rune('0'+bin))] = decimal.NewFromInt(ledgerQty)
	return pkg
}

func findByType(incs []*entity.PackageInconsistency, incType string) *entity.PackageInconsistency {
	for _, inc := range incs {
		if inc.Type == incType {
			return inc
		}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Detección por paquete
// ──────────────────────────────────────────────────────────────────────────────

func TestValidatePackage_SinDeriva(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 10, 10)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Empty(t, found, "ledger == ERP == WMS no debe producir inconsistencias")
}

func TestValidatePackage_QuantityMismatch(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 12, 10) // el paquete dice tener más que el ERP

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)

	inc := findByType(found, entity.InconsistencyQuantityMismatch)
	require.NotNil(t, inc)
	assert.True(t, inc.PackageQuantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, inc.ErpQuantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, entity.SeverityWarning, inc.Severity, "deriva de 2 unidades = WARNING")
}

func TestValidatePackage_DerivaGrandeEsCritica(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy()) // CRITICAL desde 10 unidades
	h.seedPackage("pkg-1", 25, 10)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)

	inc := findByType(found, entity.InconsistencyQuantityMismatch)
	require.NotNil(t, inc)
	assert.Equal(t, entity.SeverityCritical, inc.Severity)
}

func TestValidatePackage_MenosQueERPNoEsInconsistencia(t *testing.T) {
	// El ERP puede tener stock fuera de paquetes: ledger < ERP es normal.
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 5, 50)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Nil(t, findByType(found, entity.InconsistencyQuantityMismatch))
}

func TestValidatePackage_LocationMismatchViaWMS(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 10, 10) // ERP cuadra
	// Pero el bin-tracker independiente no ve el ítem en ese bin.
	h.wms.quantities["ITEM-A|3"] = decimal.NewFromInt(2)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)

	inc := findByType(found, entity.InconsistencyLocationMismatch)
	require.NotNil(t, inc, "ERP OK pero WMS en desacuerdo debe marcar LOCATION_MISMATCH")
	assert.True(t, inc.WmsQuantity.Equal(decimal.NewFromInt(2)))
}

func TestValidatePackage_BarcodeDuplicado(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	pkg := h.seedPackage("pkg-1", 10, 10)
	h.pkgRepo.barcodes[pkg.Barcode] = 2 // corrupción simulada del índice único

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)

	inc := findByType(found, entity.InconsistencyDuplicateBarcode)
	require.NotNil(t, inc)
	assert.Equal(t, entity.SeverityCritical, inc.Severity)
}

func TestValidatePackage_PaqueteHuerfano(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	pkg := h.seedPackage("pkg-1", 10, 10)
	delete(h.erp.bins, *pkg.BinEntry) // el bin ya no existe en el ERP

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)

	inc := findByType(found, entity.InconsistencyOrphanedPackage)
	require.NotNil(t, inc, "bin proyectado inexistente en el ERP = paquete huérfano")
	assert.Equal(t, entity.SeverityCritical, inc.Severity)
}

func TestValidatePackage_FalloDeLookupNoAborta(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 10, 10)
	h.cRepo.contents["pkg-1"] = append(h.cRepo.contents["pkg-1"], &entity.PackageContent{
		PackageID: "pkg-1",
		ItemCode:  "ITEM-B",
		Quantity:  decimal.NewFromInt(5),
	})
	h.tRepo.sums["pkg-1|ITEM-B"] = decimal.NewFromInt(5)
	h.erp.failItem = "ITEM-A" // ITEM-A falla; ITEM-B debe procesarse igual
	h.erp.onHand["ITEM-B|BOD01"] = decimal.NewFromInt(1)
	h.wms.quantities["ITEM-B|3"] = decimal.NewFromInt(5)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err, "el fallo de un ítem no debe abortar el scan")

	lookupErr := findByType(found, entity.InconsistencyLookupError)
	require.NotNil(t, lookupErr)
	assert.Equal(t, "ITEM-A", lookupErr.ItemCode)
	assert.Contains(t, lookupErr.ErrorMessage, "timeout")

	// ITEM-B sí se concilió: 5 en ledger vs 1 en ERP.
	mismatch := findByType(found, entity.InconsistencyQuantityMismatch)
	require.NotNil(t, mismatch)
	assert.Equal(t, "ITEM-B", mismatch.ItemCode)
}

func TestValidatePackage_Inexistente(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	_, err := h.engine.ValidatePackage(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia y reapertura
// ──────────────────────────────────────────────────────────────────────────────

func TestValidatePackage_RescanNoDuplica(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 12, 10)

	_, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	first := h.incRepo.count()

	for i := 0; i < 3; i++ {
		_, err = h.engine.ValidatePackage(context.Background(), "pkg-1")
		require.NoError(t, err)
	}
	assert.Equal(t, first, h.incRepo.count(),
		"re-scans con la misma causa raíz actualizan en sitio, no duplican")
}

func TestValidatePackage_RescanPreservaPrimeraDeteccion(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 12, 10)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	firstDetected := found[0].DetectedAt

	time.Sleep(5 * time.Millisecond)
	found, err = h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, firstDetected, found[0].DetectedAt,
		"una inconsistencia sin resolver conserva su marca de primera detección")
}

func TestResolve_YReapertura(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 12, 10)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	inc := found[0]

	resolved, err := h.engine.ResolveInconsistency(context.Background(), inc.ID, "supervisor", "ajuste manual en ERP")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "supervisor", resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	// Resolver dos veces es conflicto.
	_, err = h.engine.ResolveInconsistency(context.Background(), inc.ID, "supervisor", "otra vez")
	assert.ErrorIs(t, err, domain.ErrConflict)

	// La misma causa raíz reaparece: se reabre el mismo registro.
	found, err = h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, inc.ID, found[0].ID, "reapertura sobre el mismo registro, no un duplicado")
	assert.False(t, found[0].Resolved)
	assert.Empty(t, found[0].ResolvedBy)
}

func TestResolve_Inexistente(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	_, err := h.engine.ResolveInconsistency(context.Background(), "no-existe", "supervisor", "accion")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByPackage_IncluyeResueltas(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 12, 10)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = h.engine.ResolveInconsistency(context.Background(), found[0].ID, "supervisor", "ajuste manual en ERP")
	require.NoError(t, err)

	// El historial de auditoría del paquete conserva la resuelta.
	audit, err := h.engine.ListByPackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.True(t, audit[0].Resolved)

	unresolved, err := h.engine.ListUnresolved(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, unresolved)

	_, err = h.engine.ListByPackage(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Política de severidad
// ──────────────────────────────────────────────────────────────────────────────

func TestSeverity_EscalaPorAntiguedad(t *testing.T) {
	policy := consistency.DefaultPolicy()
	policy.CriticalAge = 10 * time.Millisecond
	h := newHarness(policy)
	h.seedPackage("pkg-1", 12, 10)

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, entity.SeverityWarning, found[0].Severity)

	time.Sleep(20 * time.Millisecond)
	found, err = h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, entity.SeverityCritical, found[0].Severity,
		"una inconsistencia vieja sin resolver escala a CRITICAL")
}

func TestSeverity_UmbralesConfigurables(t *testing.T) {
	policy := consistency.Policy{
		WarningThreshold:  decimal.NewFromInt(5),
		CriticalThreshold: decimal.NewFromInt(100),
		SweepConcurrency:  1,
	}
	h := newHarness(policy)
	h.seedPackage("pkg-1", 13, 10) // deriva 3, por debajo del umbral WARNING

	found, err := h.engine.ValidatePackage(context.Background(), "pkg-1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, entity.SeverityInfo, found[0].Severity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Sweep
// ──────────────────────────────────────────────────────────────────────────────

func TestDetectInconsistencies_BarreTodosLosActivos(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 12, 10)
	h.seedPackage("pkg-2", 10, 10)
	h.seedPackage("pkg-3", 30, 10)
	// ojo: seedPackage comparte ITEM-A|BOD01 en el ERP; la última siembra fija 10.

	list, err := h.engine.DetectInconsistencies(context.Background(), "BOD01")
	require.NoError(t, err)

	byPkg := map[string]bool{}
	for _, inc := range list {
		byPkg[inc.PackageID] = true
	}
	assert.True(t, byPkg["pkg-1"])
	assert.True(t, byPkg["pkg-3"])
	assert.False(t, byPkg["pkg-2"], "paquete sin deriva no debe aparecer")
}

func TestDetectInconsistencies_DevuelveVigentesSinResolver(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 12, 10)

	list, err := h.engine.DetectInconsistencies(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = h.engine.ResolveInconsistency(context.Background(), list[0].ID, "supervisor", "ajustado")
	require.NoError(t, err)

	// Vuelve a cuadrar: el siguiente sweep no la reabre ni la devuelve.
	h.tRepo.sums["pkg-1|ITEM-A"] = decimal.NewFromInt(10)
	h.cRepo.contents["pkg-1"][0].Quantity = decimal.NewFromInt(10)
	list, err = h.engine.DetectInconsistencies(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de barcode
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateBarcode_FormatoYColision(t *testing.T) {
	h := newHarness(consistency.DefaultPolicy())
	h.seedPackage("pkg-1", 10, 10) // barcode PKG00000001

	assert.ErrorIs(t, h.engine.ValidateBarcode(context.Background(), "XYZ"), domain.ErrInvalidInput)
	assert.ErrorIs(t, h.engine.ValidateBarcode(context.Background(), "PKG00000001"), domain.ErrDuplicate)
	assert.NoError(t, h.engine.ValidateBarcode(context.Background(), "PKG00000099"))
}
