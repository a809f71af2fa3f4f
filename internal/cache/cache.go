package cache

import (
	"context"
	"errors"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
)

// CartCache holds cart views keyed by user. Every Delete bumps the user's
// version, and Set only writes when the version it was given is still
// current, so a read that raced a mutation cannot put the old cart back.
type CartCache interface {
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	Version(ctx context.Context, userID int64) (int64, error)
	Set(ctx context.Context, userID int64, cart *domain.Cart, version int64) error
	Delete(ctx context.Context, userID int64) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrStale     = errors.New("cache version changed")
)
