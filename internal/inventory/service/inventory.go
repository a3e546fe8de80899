package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sistema-granja/granja-backend/internal/inventory/events"
	"github.com/sistema-granja/granja-backend/internal/inventory/repository"
	"github.com/sistema-granja/granja-backend/pkg/database"
	"github.com/sistema-granja/granja-backend/pkg/errors"
	"github.com/sistema-granja/granja-backend/pkg/logger"
	"github.com/sistema-granja/granja-backend/pkg/validate"
)

// InventoryService owns item lifecycle and the movement ledger. Every
// balance change goes through RecordMovement so the ledger and the
// cached balance can never drift apart.
type InventoryService struct {
	db           *database.DB
	itemRepo     *repository.ItemRepository
	movementRepo *repository.MovementRepository
	alerts       *AlertService
	notifier     *events.Notifier
	logger       *logger.Logger

	mu        sync.Mutex
	itemLocks map[string]*sync.Mutex
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	db *database.DB,
	itemRepo *repository.ItemRepository,
	movementRepo *repository.MovementRepository,
	alerts *AlertService,
	notifier *events.Notifier,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		db:           db,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		alerts:       alerts,
		notifier:     notifier,
		logger:       log,
		itemLocks:    make(map[string]*sync.Mutex),
	}
}

// lockItem serializes movements per item within this process. The row
// lock in the transaction covers other processes; this keeps local
// goroutines from piling up on the database lock. Mutexes are never
// evicted: the map is bounded by the catalog size, a few hundred items
// per farm at most.
func (s *InventoryService) lockItem(itemID string) func() {
	s.mu.Lock()
	l, ok := s.itemLocks[itemID]
	if !ok {
		l = &sync.Mutex{}
		s.itemLocks[itemID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Item operations

// NewItemInput carries the fields for item creation
type NewItemInput struct {
	Name           string                  `json:"name" validate:"required,min=2,max=120"`
	Description    *string                 `json:"description,omitempty"`
	Category       repository.ItemCategory `json:"category" validate:"required,oneof=feed vaccine medicine disinfectant other"`
	Unit           string                  `json:"unit" validate:"required,max=20"`
	InitialBalance decimal.Decimal         `json:"initial_balance"`
	MinimumBalance decimal.Decimal         `json:"minimum_balance"`
	ExpiryDate     *time.Time              `json:"expiry_date,omitempty"`
	StorageNotes   *string                 `json:"storage_notes,omitempty"`
	CreatedBy      *string                 `json:"created_by,omitempty"`
}

// CreateItem registers an item, assigns its internal code, and if an
// initial balance is given, opens the ledger with an adjustment
// movement so even the starting stock has an audit trail.
func (s *InventoryService) CreateItem(ctx context.Context, input NewItemInput) (*repository.Item, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.InitialBalance.IsNegative() || input.MinimumBalance.IsNegative() {
		return nil, errors.InvalidQuantity()
	}

	code, err := s.nextInternalCode(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	item := &repository.Item{
		InternalCode:   code,
		Name:           input.Name,
		Description:    input.Description,
		Category:       input.Category,
		Unit:           input.Unit,
		CurrentBalance: decimal.Zero,
		MinimumBalance: input.MinimumBalance,
		ExpiryDate:     input.ExpiryDate,
		StorageNotes:   input.StorageNotes,
		IsActive:       true,
		CreatedBy:      input.CreatedBy,
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("internal_code", item.InternalCode).
		Msg("item created")

	if input.InitialBalance.IsPositive() {
		reason := "initial stock"
		_, err := s.RecordMovement(ctx, MovementInput{
			ItemID:      item.ID,
			Kind:        repository.MovementAdjustment,
			Quantity:    input.InitialBalance,
			Reason:      &reason,
			PerformedBy: input.CreatedBy,
			OccurredAt:  time.Now(),
		})
		if err != nil {
			return nil, err
		}
		item.CurrentBalance = input.InitialBalance
	}

	return item, nil
}

// nextInternalCode builds codes like FEE0007: category prefix plus a
// zero-padded sequence per farm and category.
func (s *InventoryService) nextInternalCode(ctx context.Context, category repository.ItemCategory) (string, error) {
	count, err := s.itemRepo.CountByCategory(ctx, category)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", category.CodePrefix(), count+1), nil
}

// GetItem gets an item by ID
func (s *InventoryService) GetItem(ctx context.Context, id string) (*repository.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

// ListItems lists items matching the filter
func (s *InventoryService) ListItems(ctx context.Context, filter repository.ItemFilter) ([]*repository.Item, error) {
	return s.itemRepo.List(ctx, filter)
}

// UpdateItem changes item metadata. Balances are not updatable here;
// use RecordMovement with an adjustment.
func (s *InventoryService) UpdateItem(ctx context.Context, id string, upd repository.ItemUpdate) (*repository.Item, error) {
	if upd.MinimumBalance != nil && upd.MinimumBalance.IsNegative() {
		return nil, errors.InvalidQuantity()
	}
	if upd.Category != nil && !upd.Category.Valid() {
		return nil, errors.Validation(map[string]string{"category": "unknown category"})
	}

	item, err := s.itemRepo.UpdateMetadata(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	// A changed minimum or expiry can activate or clear alerts.
	if err := s.alerts.Reevaluate(ctx, item); err != nil {
		s.logger.Error().Err(err).Str("item_id", id).Msg("alert re-evaluation after update failed")
	}

	return item, nil
}

// DeactivateItem soft-deletes an item and resolves its alerts
func (s *InventoryService) DeactivateItem(ctx context.Context, id string) error {
	if err := s.itemRepo.SetActive(ctx, id, false); err != nil {
		return err
	}
	if err := s.alerts.ResolveAllForItem(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("item_id", id).Msg("failed to resolve alerts on deactivation")
	}
	s.logger.Info().Str("item_id", id).Msg("item deactivated")
	return nil
}

// ReactivateItem restores a soft-deleted item
func (s *InventoryService) ReactivateItem(ctx context.Context, id string) error {
	if err := s.itemRepo.SetActive(ctx, id, true); err != nil {
		return err
	}

	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.alerts.Reevaluate(ctx, item); err != nil {
		s.logger.Error().Err(err).Str("item_id", id).Msg("alert re-evaluation after reactivation failed")
	}

	s.logger.Info().Str("item_id", id).Msg("item reactivated")
	return nil
}

// Movement operations

// MovementInput carries the fields for recording a movement
type MovementInput struct {
	ItemID        string                  `json:"item_id" validate:"required,uuid"`
	Kind          repository.MovementKind `json:"kind" validate:"required"`
	Quantity      decimal.Decimal         `json:"quantity"`
	UnitCost      *decimal.Decimal        `json:"unit_cost,omitempty"`
	Reason        *string                 `json:"reason,omitempty"`
	BatchNumber   *string                 `json:"batch_number,omitempty"`
	Supplier      *string                 `json:"supplier,omitempty"`
	InvoiceNumber *string                 `json:"invoice_number,omitempty"`
	PerformedBy   *string                 `json:"performed_by,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// RecordMovement validates and appends one ledger entry, updating the
// cached balance in the same transaction. For adjustments the quantity
// is the absolute balance to set, not a delta.
func (s *InventoryService) RecordMovement(ctx context.Context, input MovementInput) (*repository.Movement, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Kind.Valid() {
		return nil, errors.Validation(map[string]string{
			"kind": "must be one of: entry_purchase, entry_donation, usage_consumption, usage_loss, adjustment",
		})
	}

	if input.Kind == repository.MovementAdjustment {
		if input.Quantity.IsNegative() {
			return nil, errors.InvalidQuantity()
		}
	} else if !input.Quantity.IsPositive() {
		return nil, errors.InvalidQuantity()
	}

	if input.OccurredAt.IsZero() {
		input.OccurredAt = time.Now()
	}
	if input.OccurredAt.After(time.Now()) {
		return nil, errors.InvalidTimestamp()
	}

	if input.Kind == repository.MovementUsageLoss && (input.Reason == nil || *input.Reason == "") {
		return nil, errors.MissingReason()
	}

	unlock := s.lockItem(input.ItemID)
	defer unlock()

	var movement *repository.Movement
	var item *repository.Item

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		item, err = s.itemRepo.GetByIDForUpdate(ctx, tx, input.ItemID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			return errors.ItemInactive(item.Name)
		}

		before := item.CurrentBalance
		after, err := nextBalance(input.Kind, before, input.Quantity, item.Name)
		if err != nil {
			return err
		}

		movement = &repository.Movement{
			ItemID:        item.ID,
			Kind:          input.Kind,
			Quantity:      input.Quantity,
			BalanceBefore: before,
			BalanceAfter:  after,
			UnitCost:      input.UnitCost,
			Reason:        input.Reason,
			BatchNumber:   input.BatchNumber,
			Supplier:      input.Supplier,
			InvoiceNumber: input.InvoiceNumber,
			PerformedBy:   input.PerformedBy,
			OccurredAt:    input.OccurredAt,
		}
		if err := s.movementRepo.Create(ctx, tx, movement); err != nil {
			return err
		}

		return s.itemRepo.UpdateBalance(ctx, tx, item.ID, before, after)
	})
	if err != nil {
		return nil, err
	}

	item.CurrentBalance = movement.BalanceAfter

	s.logger.WithItemID(item.ID).Info().
		Str("movement_id", movement.ID).
		Str("kind", string(movement.Kind)).
		Str("balance_after", movement.BalanceAfter.String()).
		Msg("movement recorded")

	s.notifier.MovementRecorded(ctx, item, movement)

	if err := s.alerts.Reevaluate(ctx, item); err != nil {
		s.logger.Error().Err(err).Str("item_id", item.ID).Msg("alert re-evaluation after movement failed")
	}

	return movement, nil
}

// nextBalance computes the balance after applying a movement.
func nextBalance(kind repository.MovementKind, before, quantity decimal.Decimal, itemName string) (decimal.Decimal, error) {
	switch {
	case kind.IsEntry():
		return before.Add(quantity), nil
	case kind.IsUsage():
		after := before.Sub(quantity)
		if after.IsNegative() {
			return decimal.Zero, errors.InsufficientStock(itemName)
		}
		return after, nil
	case kind == repository.MovementAdjustment:
		return quantity, nil
	default:
		return decimal.Zero, errors.Validation(map[string]string{"kind": "unknown movement kind"})
	}
}

// GetMovement gets a movement by ID
func (s *InventoryService) GetMovement(ctx context.Context, id string) (*repository.Movement, error) {
	return s.movementRepo.GetByID(ctx, id)
}

// ListMovements lists ledger entries matching the filter
func (s *InventoryService) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*repository.Movement, error) {
	return s.movementRepo.List(ctx, filter)
}
