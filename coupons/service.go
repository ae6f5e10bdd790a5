package coupons

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/livesync"
	"github.com/dmitrymomot/livesync/pkg/apiclient"
	"github.com/dmitrymomot/livesync/pkg/fingerprint"
	"github.com/dmitrymomot/livesync/pkg/realtime"
)

// Service keeps the storefront's coupon state in sync with the backend:
// cached coupon reads, coalesced validation, apply/remove mutations, and
// push-driven invalidation on the "coupons" namespace.
type Service struct {
	api    *apiclient.Client
	engine *livesync.Engine[Coupon, ValidationResult]
}

// New creates a coupon service on top of the backend API client and a
// realtime channel. Options pass through to the underlying engine, so callers
// can swap caches (e.g. a Redis result store) or attach analytics.
func New(api *apiclient.Client, channel *realtime.Channel, opts ...livesync.Option[Coupon, ValidationResult]) *Service {
	s := &Service{api: api}

	cfg := livesync.Config[Coupon]{
		Namespace:  "coupons",
		EntityName: "coupon",
		FetchByID: func(ctx context.Context, id string) (Coupon, error) {
			var c Coupon
			err := api.Get(ctx, "/coupons/"+id, &c)
			return c, err
		},
		FetchByKey: func(ctx context.Context, code string) (Coupon, error) {
			var c Coupon
			err := api.Get(ctx, "/coupons/code/"+code, &c)
			return c, err
		},
		FetchList: func(ctx context.Context, filter string) ([]Coupon, error) {
			path := "/coupons"
			if filter != "" {
				path += "?" + filter
			}
			var list []Coupon
			err := api.Get(ctx, path, &list)
			return list, err
		},
		CacheKeys: func(c Coupon) []string {
			return []string{"id:" + c.ID, "key:" + c.Code}
		},
		// A complete coupon payload always carries id, code, and discount
		// type; anything less invalidates instead of overwriting the cache.
		EntityFromPayload: func(data json.RawMessage) (Coupon, bool) {
			var c Coupon
			if err := json.Unmarshal(data, &c); err != nil || c.ID == "" || c.Code == "" || c.Type == "" {
				return Coupon{}, false
			}
			return c, true
		},
	}

	s.engine = livesync.New(cfg, channel, opts...)

	// The backend pushes usage_limit_reached when a shared coupon runs out;
	// the cached copy and its validation results are stale immediately.
	s.engine.OnPush("usage_limit_reached", func(data json.RawMessage) {
		if code, ok := codeFromPayload(data); ok {
			s.engine.InvalidateEntity(context.Background(), code)
		}
	})

	return s
}

// Initialize connects the realtime channel and arms the validation pipeline.
func (s *Service) Initialize(ctx context.Context) error {
	return s.engine.Initialize(ctx)
}

// Cleanup disconnects and cancels pending validations.
func (s *Service) Cleanup() error {
	return s.engine.Cleanup()
}

// IsConnected reports whether live invalidation is currently active.
func (s *Service) IsConnected() bool { return s.engine.IsConnected() }

// ClearCache drops all cached coupons, lists, and validation results.
func (s *Service) ClearCache(ctx context.Context) { s.engine.ClearCache(ctx) }

// Get returns the coupon with the given backend id.
func (s *Service) Get(ctx context.Context, id string) (Coupon, error) {
	return s.engine.Get(ctx, id)
}

// GetByCode returns the coupon with the given code.
func (s *Service) GetByCode(ctx context.Context, code string) (Coupon, error) {
	return s.engine.GetByKey(ctx, normalizeCode(code))
}

// List returns coupons matching the filter. Equal filters share one cache
// entry and concurrent misses share one fetch.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Coupon, error) {
	return s.engine.List(ctx, filter.query())
}

// Validate checks a coupon against the current cart. Bursts of identical
// requests within the debounce window collapse into a single backend call
// whose result every caller receives; differing carts validate independently.
//
// Invalid coupons (expired, below minimum order, exhausted) come back as
// IsValid=false with Errors populated. An error return means the validation
// could not be performed at all, and nothing is cached for it.
func (s *Service) Validate(ctx context.Context, req ValidateRequest) (ValidationResult, error) {
	req.normalize()

	if errs := req.check(); len(errs) > 0 {
		return invalid(errs...), nil
	}

	// Cheap local rejections against the cached coupon before spending a
	// network round trip. The backend remains the authority; a cache miss
	// just skips straight to it.
	if c, ok := s.engine.Peek(ctx, req.Code); ok {
		if res, decided := precheck(c, req); decided {
			return res, nil
		}
	}

	digest, err := fingerprint.Hash(req)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("coupons: fingerprint request: %w", err)
	}

	return s.engine.Validate(ctx, req.Code, digest, func(ctx context.Context) (ValidationResult, error) {
		var res ValidationResult
		if err := s.api.Post(ctx, "/coupons/validate", req, &res); err != nil {
			return ValidationResult{}, err
		}
		return res, nil
	})
}

// Apply attaches a coupon to the cart. On success the cached coupon and its
// validation results are invalidated, since applying changes usage counts.
func (s *Service) Apply(ctx context.Context, cartID, code string) error {
	code = normalizeCode(code)
	return s.engine.Mutate(ctx, livesync.Mutation{
		Operation: "apply_coupon",
		Call: func(ctx context.Context) error {
			return s.api.Post(ctx, "/cart/"+cartID+"/coupons", applyRequest{Code: code}, nil)
		},
		Invalidate: []string{code},
		Event:      "coupon_applied",
		EventProps: map[string]any{"code": code, "cart_id": cartID},
	})
}

// Remove detaches a coupon from the cart.
func (s *Service) Remove(ctx context.Context, cartID, code string) error {
	code = normalizeCode(code)
	return s.engine.Mutate(ctx, livesync.Mutation{
		Operation: "remove_coupon",
		Call: func(ctx context.Context) error {
			return s.api.Delete(ctx, "/cart/"+cartID+"/coupons/"+code, nil)
		},
		Invalidate: []string{code},
		Event:      "coupon_removed",
		EventProps: map[string]any{"code": code, "cart_id": cartID},
	})
}

// precheck evaluates the rejections decidable from the cached coupon alone.
// The second return is false when the request must go to the backend.
func precheck(c Coupon, req ValidateRequest) (ValidationResult, bool) {
	if at, ok := c.ExpiresAt(); ok && time.Now().After(at) {
		return invalid("coupon has expired"), true
	}
	if !c.Active {
		return invalid("coupon is not active"), true
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return invalid("coupon usage limit reached"), true
	}
	if c.MinOrderValue != nil && c.MinOrderValue.Currency == req.CartTotal.Currency &&
		req.CartTotal.Amount < c.MinOrderValue.Amount {
		return invalid(fmt.Sprintf("cart total below minimum order value of %.2f %s",
			c.MinOrderValue.Amount, c.MinOrderValue.Currency)), true
	}
	return ValidationResult{}, false
}
