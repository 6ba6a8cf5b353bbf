package contents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// ContentUseCase ledger append-only de cantidades por paquete más la
// proyección materializada de contenido actual, mantenidas en acuerdo
// transaccional.
type ContentUseCase struct {
	txRunner    TxRunner
	pkgRepo     repository.PackageRepository
	contentRepo repository.PackageContentRepository
	txnRepo     repository.PackageTransactionRepository
	erp         ports.ErpService
}

// NewContentUseCase construye el caso de uso.
func NewContentUseCase(
	txRunner TxRunner,
	pkgRepo repository.PackageRepository,
	contentRepo repository.PackageContentRepository,
	txnRepo repository.PackageTransactionRepository,
	erp ports.ErpService,
) *ContentUseCase {
	return &ContentUseCase{
		txRunner:    txRunner,
		pkgRepo:     pkgRepo,
		contentRepo: contentRepo,
		txnRepo:     txnRepo,
		erp:         erp,
	}
}

// ItemInput entrada para agregar o retirar un ítem de un paquete.
// UnitType vacío = unidad base; BUY/SALE se convierten con los factores del ERP.
type ItemInput struct {
	PackageID string
	ItemCode  string
	Quantity  decimal.Decimal
	UnitType  string
	BinEntry  *int
	Batch     string
	Serial    string
	Source    entity.SourceOperationRef
	Notes     string
}

// AddItem convierte la cantidad a unidad base, anexa una transacción positiva
// y actualiza (o crea) la fila de contenido, como unidad atómica. Rechaza si
// el paquete no está OPEN o si el bin solicitado no coincide con la ubicación
// proyectada del paquete sin un movimiento de por medio.
func (uc *ContentUseCase) AddItem(ctx context.Context, input ItemInput, whsCode, userID string) (*entity.PackageContent, error) {
	if input.PackageID == "" || input.ItemCode == "" || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	// Lookup de ítem y conversión de unidad fuera de la sección crítica.
	item, err := uc.erp.GetItemInfo(ctx, input.ItemCode)
	if err != nil {
		return nil, fmt.Errorf("item info %s: %w", input.ItemCode, err)
	}
	if item == nil || !item.Valid {
		return nil, domain.ErrNotFound
	}
	baseQty, err := toBaseUnits(input.Quantity, input.UnitType, item)
	if err != nil {
		return nil, err
	}

	var result *entity.PackageContent
	err = uc.txRunner.RunContents(ctx, func(
		pkgRepo repository.PackageRepository,
		contentRepo repository.PackageContentRepository,
		txnRepo repository.PackageTransactionRepository,
	) error {
		pkg, err := pkgRepo.GetForUpdate(input.PackageID)
		if err != nil {
			return err
		}
		if pkg == nil {
			return domain.ErrNotFound
		}
		if pkg.Status == entity.PackageStatusLocked {
			return domain.ErrPackageLocked
		}
		if !pkg.CanMutateContent() {
			return domain.ErrInvalidTransition
		}
		if input.BinEntry != nil && pkg.BinEntry != nil && *input.BinEntry != *pkg.BinEntry {
			return domain.ErrLocationMismatch
		}

		now := time.Now()
		content, err := contentRepo.GetForUpdate(input.PackageID, input.ItemCode)
		if err != nil {
			return err
		}
		if content == nil {
			content = &entity.PackageContent{
				PackageID: input.PackageID,
				ItemCode:  input.ItemCode,
				Quantity:  decimal.Zero,
				UnitType:  item.InventoryUoM,
				WhsCode:   whsCode,
				BinEntry:  pkg.BinEntry,
				AddedAt:   now,
				AddedBy:   userID,
			}
		}
		content.Quantity = content.Quantity.Add(baseQty)
		content.UpdatedAt = now
		if err := contentRepo.Upsert(content); err != nil {
			return err
		}
		if err := txnRepo.Create(&entity.PackageTransaction{
			ID:        uuid.New().String(),
			PackageID: input.PackageID,
			Type:      entity.TransactionTypeAdd,
			ItemCode:  input.ItemCode,
			Quantity:  baseQty,
			UnitType:  item.InventoryUoM,
			Batch:     input.Batch,
			Serial:    input.Serial,
			Source:    input.Source,
			UserID:    userID,
			Notes:     input.Notes,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem anexa una transacción negativa. Si el resultado fuera negativo se
// rechaza con ErrInsufficientQuantity y ni el ledger ni la proyección cambian:
// el ledger nunca representa cantidad on-hand negativa.
func (uc *ContentUseCase) RemoveItem(ctx context.Context, input ItemInput, userID string) (*entity.PackageContent, error) {
	if input.PackageID == "" || input.ItemCode == "" || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	item, err := uc.erp.GetItemInfo(ctx, input.ItemCode)
	if err != nil {
		return nil, fmt.Errorf("item info %s: %w", input.ItemCode, err)
	}
	if item == nil || !item.Valid {
		return nil, domain.ErrNotFound
	}
	baseQty, err := toBaseUnits(input.Quantity, input.UnitType, item)
	if err != nil {
		return nil, err
	}

	var result *entity.PackageContent
	err = uc.txRunner.RunContents(ctx, func(
		pkgRepo repository.PackageRepository,
		contentRepo repository.PackageContentRepository,
		txnRepo repository.PackageTransactionRepository,
	) error {
		pkg, err := pkgRepo.GetForUpdate(input.PackageID)
		if err != nil {
			return err
		}
		if pkg == nil {
			return domain.ErrNotFound
		}
		if pkg.Status == entity.PackageStatusLocked {
			return domain.ErrPackageLocked
		}
		if !pkg.CanMutateContent() {
			return domain.ErrInvalidTransition
		}

		content, err := contentRepo.GetForUpdate(input.PackageID, input.ItemCode)
		if err != nil {
			return err
		}
		if content == nil || content.Quantity.LessThan(baseQty) {
			return domain.ErrInsufficientQuantity
		}
		now := time.Now()
		content.Quantity = content.Quantity.Sub(baseQty)
		content.UpdatedAt = now
		if err := contentRepo.Upsert(content); err != nil {
			return err
		}
		if err := txnRepo.Create(&entity.PackageTransaction{
			ID:        uuid.New().String(),
			PackageID: input.PackageID,
			Type:      entity.TransactionTypeRemove,
			ItemCode:  input.ItemCode,
			Quantity:  baseQty.Neg(),
			UnitType:  item.InventoryUoM,
			Batch:     input.Batch,
			Serial:    input.Serial,
			Source:    input.Source,
			UserID:    userID,
			Notes:     input.Notes,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetContents lee la proyección de contenido actual del paquete.
func (uc *ContentUseCase) GetContents(ctx context.Context, packageID string) ([]*entity.PackageContent, error) {
	pkg, err := uc.pkgRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}
	return uc.contentRepo.ListByPackage(packageID)
}

// GetItemQuantity devuelve la cantidad proyectada de un ítem en el paquete
// (cero si el ítem no está presente). Por construcción siempre igual a la suma
// con signo del ledger para ese par.
func (uc *ContentUseCase) GetItemQuantity(ctx context.Context, packageID, itemCode string) (decimal.Decimal, error) {
	content, err := uc.contentRepo.Get(packageID, itemCode)
	if err != nil {
		return decimal.Zero, err
	}
	if content == nil {
		return decimal.Zero, nil
	}
	return content.Quantity, nil
}

// LogTransactionInput entrada para asientos de auditoría sin efecto en la
// proyección (eventos externos, notas de conteo, etc.).
type LogTransactionInput struct {
	PackageID string
	Type      string
	ItemCode  string
	Quantity  decimal.Decimal
	UnitType  string
	Batch     string
	Serial    string
	Source    entity.SourceOperationRef
	Notes     string
}

// LogTransaction la única vía de escritura al ledger para eventos no-contenido;
// también la usan internamente Lifecycle y Location para un trail unificado.
func (uc *ContentUseCase) LogTransaction(ctx context.Context, input LogTransactionInput, userID string) error {
	if input.PackageID == "" || input.Type == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunContents(ctx, func(
		pkgRepo repository.PackageRepository,
		_ repository.PackageContentRepository,
		txnRepo repository.PackageTransactionRepository,
	) error {
		pkg, err := pkgRepo.GetByID(input.PackageID)
		if err != nil {
			return err
		}
		if pkg == nil {
			return domain.ErrNotFound
		}
		return txnRepo.Create(&entity.PackageTransaction{
			ID:        uuid.New().String(),
			PackageID: input.PackageID,
			Type:      input.Type,
			ItemCode:  input.ItemCode,
			Quantity:  input.Quantity,
			UnitType:  input.UnitType,
			Batch:     input.Batch,
			Serial:    input.Serial,
			Source:    input.Source,
			UserID:    userID,
			Notes:     input.Notes,
			CreatedAt: time.Now(),
		})
	})
}

// TransactionHistory secuencia ordenada y reiniciable del ledger: el caller
// retoma pasando el último ID visto como afterID.
func (uc *ContentUseCase) TransactionHistory(ctx context.Context, packageID, afterID string, limit int) ([]*entity.PackageTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	return uc.txnRepo.ListByPackage(packageID, afterID, limit)
}

// toBaseUnits convierte a unidad base según los factores del maestro de ítems.
func toBaseUnits(qty decimal.Decimal, unitType string, item *ports.ItemData) (decimal.Decimal, error) {
	switch strings.ToUpper(unitType) {
	case "", "BASE", strings.ToUpper(item.InventoryUoM):
		return qty, nil
	case "BUY", strings.ToUpper(item.PurchaseUoM):
		if item.NumInBuy.GreaterThan(decimal.Zero) {
			return qty.Mul(item.NumInBuy), nil
		}
		return qty, nil
	case "SALE", strings.ToUpper(item.SalesUoM):
		if item.NumInSale.GreaterThan(decimal.Zero) {
			return qty.Mul(item.NumInSale), nil
		}
		return qty, nil
	default:
		return decimal.Zero, domain.ErrInvalidInput
	}
}
