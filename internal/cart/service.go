package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	// MinLineQuantity and MaxLineQuantity bound a single cart line.
	MinLineQuantity = 1
	MaxLineQuantity = 20
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type variantResolver interface {
	ResolveActiveVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error)
}

// Service exposes cart operations for the authenticated shopper.
type Service interface {
	GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetWithItems(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Sync(ctx context.Context, userID uuid.UUID, items []SyncItemInput) (*View, error)
	ActiveForCheckout(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	resolver variantResolver
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, resolver variantResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("variant resolver required")
	}
	return &service{repo: repo, tx: tx, resolver: resolver}, nil
}

// GetOrCreateActiveCart returns the user's active cart, creating it lazily.
func (s *service) GetOrCreateActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.getOrCreateActive(ctx, s.repo, userID)
}

func (s *service) getOrCreateActive(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := repo.Create(ctx, &models.Cart{UserID: userID, Status: enums.CartStatusActive})
	if err != nil {
		// lost the create race: another request inserted the active cart first
		if db.IsUniqueViolation(err, "idx_carts_user_active") {
			cart, findErr := repo.FindActiveByUser(ctx, userID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load cart after create race")
			}
			return cart, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

// GetWithItems returns the cart projection with per-line and cart totals. A
// user with no active cart gets an empty view rather than an error.
func (s *service) GetWithItems(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindActiveWithDetails(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return buildView(nil), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildView(cart), nil
}

// AddItem puts a variant into the active cart. Re-adding an existing line
// merges to min(existing+quantity, MaxLineQuantity) and refreshes the price
// snapshot to the variant's current price. The read-modify-write runs inside
// one transaction with the line row locked.
func (s *service) AddItem(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if quantity < MinLineQuantity || quantity > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between %d and %d", MinLineQuantity, MaxLineQuantity))
	}

	variant, _, err := s.resolver.ResolveActiveVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	var result *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.getOrCreateActive(ctx, repo, userID)
		if err != nil {
			return err
		}

		item, err := repo.FindItemForUpdate(ctx, cart.ID, variant.ID)
		switch {
		case err == nil:
			merged := item.Quantity + quantity
			if merged > MaxLineQuantity {
				merged = MaxLineQuantity
			}
			item.Quantity = merged
			item.UnitPriceSnapshot = variant.Price
			if _, err := repo.SaveItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
			}
			result = item
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = &models.CartItem{
				CartID:            cart.ID,
				VariantID:         variant.ID,
				Quantity:          quantity,
				UnitPriceSnapshot: variant.Price,
			}
			if _, err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
			result = item
			return nil
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItemQuantity sets an exact quantity on an owned line. The price
// snapshot is left alone; only AddItem re-prices.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < MinLineQuantity || quantity > MaxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between %d and %d", MinLineQuantity, MaxLineQuantity))
	}

	item, _, err := s.findOwnedMutableItem(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if _, err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return item, nil
}

// RemoveItem deletes an owned line.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, _, err := s.findOwnedMutableItem(ctx, itemID, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

func (s *service) findOwnedMutableItem(ctx context.Context, itemID, userID uuid.UUID) (*models.CartItem, *models.Cart, error) {
	item, cart, err := s.repo.FindItemByIDForUser(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if cart.Status == enums.CartStatusConverted {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart has already been converted to an order")
	}
	return item, cart, nil
}

// Clear removes every line from the active cart. Clearing an absent or empty
// cart is a no-op.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.DeleteItemsByCart(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Sync replaces the whole cart with the provided lines in one transaction.
// Quantities above the per-line cap are clamped; lines with unknown or
// inactive variants, or a non-positive quantity, are skipped without failing
// the request. Duplicate variant lines are merged before clamping.
func (s *service) Sync(ctx context.Context, userID uuid.UUID, items []SyncItemInput) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	merged := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, input := range items {
		if input.VariantID == uuid.Nil || input.Quantity < MinLineQuantity {
			continue
		}
		if _, seen := merged[input.VariantID]; !seen {
			order = append(order, input.VariantID)
		}
		merged[input.VariantID] += input.Quantity
	}

	resolved := make([]models.CartItem, 0, len(order))
	for _, variantID := range order {
		variant, _, err := s.resolver.ResolveActiveVariant(ctx, variantID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				continue
			}
			return nil, err
		}
		quantity := merged[variantID]
		if quantity > MaxLineQuantity {
			quantity = MaxLineQuantity
		}
		resolved = append(resolved, models.CartItem{
			VariantID:         variant.ID,
			Quantity:          quantity,
			UnitPriceSnapshot: variant.Price,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.getOrCreateActive(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := repo.ReplaceItems(ctx, cart.ID, resolved); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace cart items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetWithItems(ctx, userID)
}

// ActiveForCheckout returns the active cart with items for order conversion.
// An absent or empty cart fails validation rather than producing an empty
// order.
func (s *service) ActiveForCheckout(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindActiveWithDetails(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return cart, nil
}

// MarkConverted flags the cart converted inside the caller's transaction, so
// checkout flips the cart and writes the order atomically.
func (s *service) MarkConverted(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	now := time.Now().UTC()
	repo := s.repo.WithTx(tx)
	if err := repo.MarkStatus(ctx, cartID, enums.CartStatusConverted, &now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
	}
	return nil
}
