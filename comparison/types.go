package comparison

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

// MaxProducts caps a comparison's size. The UI renders at most four columns;
// the backend enforces the same limit.
const MaxProducts = 4

// ErrTooManyProducts is returned when an add would exceed MaxProducts.
var ErrTooManyProducts = errors.New("comparison: too many products")

// Product is the subset of the catalog payload a comparison carries.
type Product struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Brand    string            `json:"brand,omitempty"`
	Price    float64           `json:"price"`
	Currency string            `json:"currency"`
	ImageURL string            `json:"image_url,omitempty"`
	Specs    map[string]string `json:"specs,omitempty"`
}

// Comparison is a user's saved product comparison.
type Comparison struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ProductIDs []string   `json:"product_ids"`
	Products   []Product  `json:"products,omitempty"`
	ShareToken string     `json:"share_token,omitempty"`
	Expiry     *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EntityKey returns the comparison id; push events and derived matrices are
// keyed by it.
func (c Comparison) EntityKey() string { return c.ID }

// ExpiresAt exposes the expiry of time-boxed comparisons (e.g. shared guest
// comparisons the backend garbage-collects).
func (c Comparison) ExpiresAt() (time.Time, bool) {
	if c.Expiry == nil {
		return time.Time{}, false
	}
	return *c.Expiry, true
}

// ListFilter narrows List results.
type ListFilter struct {
	Page    int
	PerPage int
}

func (f ListFilter) query() string {
	v := url.Values{}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return v.Encode()
}

// MatrixOptions shape how a comparison matrix is rendered server-side.
// They are part of the result fingerprint: differing options do not share a
// cached matrix.
type MatrixOptions struct {
	Currency        string `json:"currency,omitempty"`
	Locale          string `json:"locale,omitempty"`
	DifferencesOnly bool   `json:"differences_only,omitempty"`
}

// AttributeRow is one row of the comparison matrix: an attribute name and its
// display value per product id.
type AttributeRow struct {
	Name   string            `json:"name"`
	Values map[string]string `json:"values"`
}

// Matrix is the backend-computed side-by-side view of a comparison.
type Matrix struct {
	ComparisonID string         `json:"comparison_id"`
	Products     []Product      `json:"products"`
	Attributes   []AttributeRow `json:"attributes"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// ShareLink is the outcome of sharing a comparison.
type ShareLink struct {
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type createRequest struct {
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

type productRequest struct {
	ProductID string `json:"product_id"`
}
