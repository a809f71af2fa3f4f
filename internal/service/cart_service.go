package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/cache"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/logger"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo  repository.RepoInterface
	cache cache.CartCache
	sfg   singleflight.Group // collapses concurrent cache misses for one user
}

func NewCartService(repo repository.RepoInterface, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

// GetCart returns the actor's active cart, creating it on first use.
func (s *CartService) GetCart(ctx context.Context, actor policy.Actor) (*domain.Cart, error) {
	if err := policy.Authorize(actor, policy.ActionManageCart, actor.ID); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	v, err, _ := s.sfg.Do(strconv.FormatInt(actor.ID, 10), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, actor.ID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("cart cache get failed", zap.Int64("user_id", actor.ID), zap.Error(err))
		}

		// Read before the store so a mutation committed in between makes the Set stale.
		version, verErr := s.cache.Version(ctx, actor.ID)
		if verErr != nil {
			log.Warn("cart cache version failed", zap.Int64("user_id", actor.ID), zap.Error(verErr))
		}

		cart, err = s.repo.GetOrCreateActiveCart(ctx, actor.ID)
		if err != nil {
			return nil, err
		}

		if verErr == nil {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			if err := s.cache.Set(cctx, actor.ID, cart, version); err != nil && !errors.Is(err, cache.ErrStale) {
				log.Warn("cart cache set failed", zap.Int64("user_id", actor.ID), zap.Error(err))
			}
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem adds quantity of a product, merging with an existing line for the
// same product. The merged quantity may not exceed the current stock.
func (s *CartService) AddItem(ctx context.Context, actor policy.Actor, productID int64, quantity int) (*domain.Cart, error) {
	if err := policy.Authorize(actor, policy.ActionManageCart, actor.ID); err != nil {
		return nil, err
	}
	if productID <= 0 {
		return nil, invalid("product_id", "must be a positive integer")
	}
	if quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}

	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		cart, err := tx.GetOrCreateActiveCart(ctx, actor.ID)
		if err != nil {
			return err
		}
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		var line *domain.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				line = &cart.Items[i]
				break
			}
		}

		total := quantity
		if line != nil {
			total += line.Quantity
		}
		if total > product.Quantity {
			return &repository.InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Quantity,
				Requested: total,
			}
		}

		price := domain.LinePrice(product.DiscountedPrice, total)
		if line != nil {
			return tx.UpdateCartItem(ctx, line.ID, total, price)
		}
		return tx.InsertCartItem(ctx, &domain.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  total,
			Price:     price,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, actor.ID)
}

// UpdateItem sets the quantity of a line in the actor's active cart and
// reprices it at the current discounted price.
func (s *CartService) UpdateItem(ctx context.Context, actor policy.Actor, itemID int64, quantity int) (*domain.Cart, error) {
	if err := policy.Authorize(actor, policy.ActionManageCart, actor.ID); err != nil {
		return nil, err
	}
	if itemID <= 0 {
		return nil, invalid("item_id", "must be a positive integer")
	}
	if quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}

	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		line, err := ownedItem(ctx, tx, actor.ID, itemID)
		if err != nil {
			return err
		}
		product, err := tx.GetProduct(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if quantity > product.Quantity {
			return &repository.InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Quantity,
				Requested: quantity,
			}
		}
		return tx.UpdateCartItem(ctx, itemID, quantity, domain.LinePrice(product.DiscountedPrice, quantity))
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, actor.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, actor policy.Actor, itemID int64) (*domain.Cart, error) {
	if err := policy.Authorize(actor, policy.ActionManageCart, actor.ID); err != nil {
		return nil, err
	}
	if itemID <= 0 {
		return nil, invalid("item_id", "must be a positive integer")
	}

	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		if _, err := ownedItem(ctx, tx, actor.ID, itemID); err != nil {
			return err
		}
		return tx.DeleteCartItem(ctx, itemID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, actor.ID)
}

// CompleteCart closes the actor's active cart. The next cart read starts a new one.
func (s *CartService) CompleteCart(ctx context.Context, actor policy.Actor) error {
	if err := policy.Authorize(actor, policy.ActionManageCart, actor.ID); err != nil {
		return err
	}

	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		cart, err := tx.GetActiveCart(ctx, actor.ID)
		if err != nil {
			return err
		}
		return tx.CompleteCart(ctx, cart.ID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, actor.ID)
	return nil
}

func ownedItem(ctx context.Context, tx repository.Store, userID, itemID int64) (*domain.CartItem, error) {
	cart, err := tx.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i], nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (s *CartService) reload(ctx context.Context, userID int64) (*domain.Cart, error) {
	s.invalidate(ctx, userID)
	return s.repo.GetActiveCart(ctx, userID)
}

func (s *CartService) invalidate(ctx context.Context, userID int64) {
	cctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(cctx, userID); err != nil {
		logger.FromContext(ctx).Warn("cart cache invalidate failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
