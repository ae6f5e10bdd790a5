package comparison

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dmitrymomot/livesync"
	"github.com/dmitrymomot/livesync/pkg/apiclient"
	"github.com/dmitrymomot/livesync/pkg/fingerprint"
	"github.com/dmitrymomot/livesync/pkg/realtime"
)

// Service keeps the storefront's product comparisons in sync with the
// backend: cached reads, coalesced matrix computation, membership mutations,
// sharing, and push-driven invalidation on the "comparisons" namespace.
type Service struct {
	api    *apiclient.Client
	engine *livesync.Engine[Comparison, Matrix]
}

// New creates a comparison service on top of the backend API client and a
// realtime channel.
func New(api *apiclient.Client, channel *realtime.Channel, opts ...livesync.Option[Comparison, Matrix]) *Service {
	s := &Service{api: api}

	cfg := livesync.Config[Comparison]{
		Namespace:  "comparisons",
		EntityName: "comparison",
		FetchByID: func(ctx context.Context, id string) (Comparison, error) {
			var c Comparison
			err := api.Get(ctx, "/comparisons/"+id, &c)
			return c, err
		},
		FetchList: func(ctx context.Context, filter string) ([]Comparison, error) {
			path := "/comparisons"
			if filter != "" {
				path += "?" + filter
			}
			var list []Comparison
			err := api.Get(ctx, path, &list)
			return list, err
		},
		// A complete comparison payload carries its membership; a bare-id
		// push invalidates instead of overwriting the cache.
		EntityFromPayload: func(data json.RawMessage) (Comparison, bool) {
			var c Comparison
			if err := json.Unmarshal(data, &c); err != nil || c.ID == "" || c.ProductIDs == nil {
				return Comparison{}, false
			}
			return c, true
		},
	}

	s.engine = livesync.New(cfg, channel, opts...)

	return s
}

// Initialize connects the realtime channel and arms the matrix pipeline.
func (s *Service) Initialize(ctx context.Context) error {
	return s.engine.Initialize(ctx)
}

// Cleanup disconnects and cancels pending matrix computations.
func (s *Service) Cleanup() error {
	return s.engine.Cleanup()
}

// IsConnected reports whether live invalidation is currently active.
func (s *Service) IsConnected() bool { return s.engine.IsConnected() }

// ClearCache drops all cached comparisons, lists, and matrices.
func (s *Service) ClearCache(ctx context.Context) { s.engine.ClearCache(ctx) }

// Get returns one comparison by id.
func (s *Service) Get(ctx context.Context, id string) (Comparison, error) {
	return s.engine.Get(ctx, id)
}

// List returns the user's comparisons.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Comparison, error) {
	return s.engine.List(ctx, filter.query())
}

// Matrix returns the side-by-side view of a comparison. Bursts of identical
// requests within the debounce window collapse into one backend computation;
// fresh matrices are served from the result store. Mutating the comparison
// drops its cached matrices.
func (s *Service) Matrix(ctx context.Context, id string, opts MatrixOptions) (Matrix, error) {
	digest, err := fingerprint.Hash(opts)
	if err != nil {
		return Matrix{}, fmt.Errorf("comparison: fingerprint options: %w", err)
	}

	return s.engine.Validate(ctx, id, digest, func(ctx context.Context) (Matrix, error) {
		var m Matrix
		if err := s.api.Post(ctx, "/comparisons/"+id+"/matrix", opts, &m); err != nil {
			return Matrix{}, err
		}
		return m, nil
	})
}

// Create saves a new comparison and returns it. The created comparison is
// cached immediately; lists refetch on next read.
func (s *Service) Create(ctx context.Context, name string, productIDs []string) (Comparison, error) {
	if len(productIDs) > MaxProducts {
		return Comparison{}, ErrTooManyProducts
	}

	var created Comparison
	err := s.engine.Mutate(ctx, livesync.Mutation{
		Operation: "create_comparison",
		Call: func(ctx context.Context) error {
			return s.api.Post(ctx, "/comparisons", createRequest{Name: name, ProductIDs: productIDs}, &created)
		},
		Event:      "comparison_created",
		EventProps: map[string]any{"products": len(productIDs)},
	})
	if err != nil {
		return Comparison{}, err
	}
	return created, nil
}

// Delete removes a comparison and drops its cached state.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.engine.Mutate(ctx, livesync.Mutation{
		Operation: "delete_comparison",
		Call: func(ctx context.Context) error {
			return s.api.Delete(ctx, "/comparisons/"+id, nil)
		},
		Invalidate: []string{id},
		Event:      "comparison_deleted",
		EventProps: map[string]any{"comparison_id": id},
	})
}

// AddProduct adds a product to a comparison. Rejects locally when the cached
// comparison is already full or already contains the product; the backend
// enforces the same rules for stale caches.
func (s *Service) AddProduct(ctx context.Context, id, productID string) error {
	if c, ok := s.engine.Peek(ctx, id); ok {
		if slices.Contains(c.ProductIDs, productID) {
			return nil
		}
		if len(c.ProductIDs) >= MaxProducts {
			return ErrTooManyProducts
		}
	}

	return s.engine.Mutate(ctx, livesync.Mutation{
		Operation: "add_product",
		Call: func(ctx context.Context) error {
			return s.api.Post(ctx, "/comparisons/"+id+"/products", productRequest{ProductID: productID}, nil)
		},
		Invalidate: []string{id},
		Event:      "comparison_product_added",
		EventProps: map[string]any{"comparison_id": id, "product_id": productID},
	})
}

// RemoveProduct removes a product from a comparison.
func (s *Service) RemoveProduct(ctx context.Context, id, productID string) error {
	return s.engine.Mutate(ctx, livesync.Mutation{
		Operation: "remove_product",
		Call: func(ctx context.Context) error {
			return s.api.Delete(ctx, "/comparisons/"+id+"/products/"+productID, nil)
		},
		Invalidate: []string{id},
		Event:      "comparison_product_removed",
		EventProps: map[string]any{"comparison_id": id, "product_id": productID},
	})
}

// Share publishes a comparison and returns its share link. The comparison is
// invalidated so the next read picks up the embedded share token.
func (s *Service) Share(ctx context.Context, id string) (ShareLink, error) {
	var link ShareLink
	err := s.engine.Mutate(ctx, livesync.Mutation{
		Operation: "share_comparison",
		Call: func(ctx context.Context) error {
			return s.api.Post(ctx, "/comparisons/"+id+"/share", nil, &link)
		},
		Invalidate: []string{id},
		Event:      "comparison_shared",
		EventProps: map[string]any{"comparison_id": id},
	})
	if err != nil {
		return ShareLink{}, err
	}
	return link, nil
}
