// Package service holds the storefront operations behind the HTTP surface:
// category registry, catalog, products, orders and admin login.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"storefront-service/internal/cache"
	"storefront-service/internal/domain"
)

// ErrValidation is the root of every client input error. The more specific
// sentinels below wrap it, so errors.Is(err, ErrValidation) holds for all of them.
var ErrValidation = errors.New("validation failed")

var (
	ErrTooManyImages     = fmt.Errorf("%w: a product can have at most %d images", ErrValidation, domain.MaxProductImages)
	ErrOrderNotCompleted = fmt.Errorf("%w: only orders with status %s can be deleted", ErrValidation, domain.OrderStatusCompleted)
	ErrUnknownProduct    = fmt.Errorf("%w: order references an unknown product", ErrValidation)
	ErrTotalMismatch     = fmt.Errorf("%w: totalAmount does not match the item prices", ErrValidation)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// readThrough serves key from c, loading and storing it on a miss.
// Cache failures are logged and never fail the read.
func readThrough[T any](ctx context.Context, c cache.Cache, logger *log.Logger, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		logger.Printf("WARN: cache read %q failed: %v", key, err)
	} else if hit {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value); err != nil {
		logger.Printf("WARN: cache write %q failed: %v", key, err)
	}
	return value, nil
}

func invalidate(ctx context.Context, c cache.Cache, logger *log.Logger, prefix string) {
	if err := c.DeletePrefix(ctx, prefix); err != nil {
		logger.Printf("WARN: cache invalidation of %q failed: %v", prefix, err)
	}
}
