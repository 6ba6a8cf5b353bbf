package location

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// TrackerUseCase movimientos de paquete entre bodegas/bins: log append-only
// más proyección de ubicación actual en el agregado. El contenido viaja
// completo con el paquete; movimientos parciales de ítems se expresan como
// Remove del paquete viejo + Add al nuevo vía el ledger de contenido.
type TrackerUseCase struct {
	txRunner TxRunner
	pkgRepo  repository.PackageRepository
	locRepo  repository.PackageLocationRepository
	erp      ports.ErpService
}

// NewTrackerUseCase construye el caso de uso.
func NewTrackerUseCase(
	txRunner TxRunner,
	pkgRepo repository.PackageRepository,
	locRepo repository.PackageLocationRepository,
	erp ports.ErpService,
) *TrackerUseCase {
	return &TrackerUseCase{txRunner: txRunner, pkgRepo: pkgRepo, locRepo: locRepo, erp: erp}
}

// MoveInput entrada para mover un paquete. El "from" no se recibe: se toma de
// la proyección actual bajo bloqueo de fila.
type MoveInput struct {
	PackageID  string
	ToWhsCode  string
	ToBinEntry *int
	Source     entity.SourceOperationRef
	Notes      string
}

// MovePackage valida el destino contra el ERP, anexa la entrada de historial y
// actualiza la proyección de ubicación, como unidad atómica. Las filas de
// contenido del paquete se reubican en la misma transacción. Paquete LOCKED
// devuelve ErrPackageLocked (conflicto, reintenta el caller tras unlock).
func (uc *TrackerUseCase) MovePackage(ctx context.Context, input MoveInput, userID string) (*entity.Package, error) {
	if input.PackageID == "" || input.ToWhsCode == "" {
		return nil, domain.ErrInvalidInput
	}

	// Resolver/validar el destino fuera de la sección crítica. Con bin, el bin
	// valida; movimiento a nivel de bodega valida el código de bodega.
	toBinCode := ""
	if input.ToBinEntry != nil {
		code, err := uc.erp.GetBinCode(ctx, *input.ToBinEntry)
		if err != nil {
			return nil, fmt.Errorf("resolver bin destino %d: %w", *input.ToBinEntry, err)
		}
		if code == "" {
			return nil, domain.ErrNotFound
		}
		toBinCode = code
	} else {
		name, err := uc.erp.GetWarehouseName(ctx, input.ToWhsCode)
		if err != nil {
			return nil, fmt.Errorf("resolver bodega destino %s: %w", input.ToWhsCode, err)
		}
		if name == "" {
			return nil, domain.ErrNotFound
		}
	}

	var result *entity.Package
	err := uc.txRunner.RunLocation(ctx, func(
		pkgRepo repository.PackageRepository,
		locRepo repository.PackageLocationRepository,
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
		if pkg.IsTerminal() {
			return domain.ErrInvalidTransition
		}

		movementType := entity.MovementTypeRelocate
		if pkg.WhsCode != input.ToWhsCode {
			movementType = entity.MovementTypeTransfer
		}
		now := time.Now()
		hist := &entity.PackageLocationHistory{
			ID:           uuid.New().String(),
			PackageID:    pkg.ID,
			MovementType: movementType,
			FromWhsCode:  pkg.WhsCode,
			FromBinEntry: pkg.BinEntry,
			FromBinCode:  pkg.BinCode,
			ToWhsCode:    input.ToWhsCode,
			ToBinEntry:   input.ToBinEntry,
			ToBinCode:    toBinCode,
			Source:       input.Source,
			UserID:       userID,
			Notes:        input.Notes,
			CreatedAt:    now,
		}
		if err := locRepo.Create(hist); err != nil {
			return err
		}
		pkg.WhsCode = input.ToWhsCode
		pkg.BinEntry = input.ToBinEntry
		pkg.BinCode = toBinCode
		pkg.UpdatedAt = now
		if err := pkgRepo.UpdateLocation(pkg); err != nil {
			return err
		}
		if err := contentRepo.UpdateLocationByPackage(pkg.ID, pkg.WhsCode, pkg.BinEntry); err != nil {
			return err
		}
		// Asiento MOVE en el ledger unificado.
		if err := txnRepo.Create(&entity.PackageTransaction{
			ID:        uuid.New().String(),
			PackageID: pkg.ID,
			Type:      entity.TransactionTypeMove,
			Source:    input.Source,
			UserID:    userID,
			Notes:     input.Notes,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result = pkg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LogMovementInput entrada para registrar un movimiento ya ocurrido en el
// sistema externo.
type LogMovementInput struct {
	PackageID    string
	FromWhsCode  string
	FromBinEntry *int
	ToWhsCode    string
	ToBinEntry   *int
	Source       entity.SourceOperationRef
	Notes        string
}

// LogMovement append de bajo nivel: confía en el caller, sin validar
// coherencia con la proyección. Actualiza la proyección al destino declarado.
// Con origen vacío, hereda el destino del último movimiento registrado.
func (uc *TrackerUseCase) LogMovement(ctx context.Context, input LogMovementInput, userID string) error {
	if input.PackageID == "" || input.ToWhsCode == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunLocation(ctx, func(
		pkgRepo repository.PackageRepository,
		locRepo repository.PackageLocationRepository,
		contentRepo repository.PackageContentRepository,
		_ repository.PackageTransactionRepository,
	) error {
		pkg, err := pkgRepo.GetForUpdate(input.PackageID)
		if err != nil {
			return err
		}
		if pkg == nil {
			return domain.ErrNotFound
		}
		if input.FromWhsCode == "" {
			last, err := locRepo.LastByPackage(input.PackageID)
			if err != nil {
				return err
			}
			if last != nil {
				input.FromWhsCode = last.ToWhsCode
				input.FromBinEntry = last.ToBinEntry
			} else {
				input.FromWhsCode = pkg.WhsCode
				input.FromBinEntry = pkg.BinEntry
			}
		}
		now := time.Now()
		if err := locRepo.Create(&entity.PackageLocationHistory{
			ID:           uuid.New().String(),
			PackageID:    pkg.ID,
			MovementType: entity.MovementTypeExternal,
			FromWhsCode:  input.FromWhsCode,
			FromBinEntry: input.FromBinEntry,
			ToWhsCode:    input.ToWhsCode,
			ToBinEntry:   input.ToBinEntry,
			Source:       input.Source,
			UserID:       userID,
			Notes:        input.Notes,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		pkg.WhsCode = input.ToWhsCode
		pkg.BinEntry = input.ToBinEntry
		pkg.BinCode = ""
		pkg.UpdatedAt = now
		if err := pkgRepo.UpdateLocation(pkg); err != nil {
			return err
		}
		return contentRepo.UpdateLocationByPackage(pkg.ID, pkg.WhsCode, pkg.BinEntry)
	})
}

// LocationHistory lectura ordenada del historial (append-only).
func (uc *TrackerUseCase) LocationHistory(ctx context.Context, packageID string) ([]*entity.PackageLocationHistory, error) {
	pkg, err := uc.pkgRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}
	return uc.locRepo.ListByPackage(packageID)
}
