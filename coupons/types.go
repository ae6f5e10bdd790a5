package coupons

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Money is an amount in a specific currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Discount types understood by the storefront.
const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// Coupon mirrors the backend's coupon payload. The client never computes
// discounts itself; it only caches and displays what the backend decided.
type Coupon struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Type          string     `json:"type"`
	Value         float64    `json:"value"`
	Description   string     `json:"description,omitempty"`
	MinOrderValue *Money     `json:"min_order_value,omitempty"`
	MaxDiscount   *Money     `json:"max_discount,omitempty"`
	Expiry        *time.Time `json:"expires_at,omitempty"`
	UsageLimit    int        `json:"usage_limit,omitempty"`
	UsageCount    int        `json:"usage_count,omitempty"`
	Active        bool       `json:"active"`
}

// EntityKey returns the coupon code: the key push events reference and
// validation results are prefixed with.
func (c Coupon) EntityKey() string { return c.Code }

// ExpiresAt exposes the explicit expiry for client-side pre-validation.
func (c Coupon) ExpiresAt() (time.Time, bool) {
	if c.Expiry == nil {
		return time.Time{}, false
	}
	return *c.Expiry, true
}

// ListFilter narrows List results.
type ListFilter struct {
	Active   *bool
	Category string
	Page     int
	PerPage  int
}

// query renders the filter as a canonical query string. url.Values encodes
// keys in sorted order, so equal filters always produce equal strings and
// share one cache entry.
func (f ListFilter) query() string {
	v := url.Values{}
	if f.Active != nil {
		v.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return v.Encode()
}

// ValidateRequest asks whether a coupon applies to the current cart.
type ValidateRequest struct {
	Code       string `json:"code"`
	CartTotal  Money  `json:"cart_total"`
	CartID     string `json:"cart_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// normalize canonicalizes the code in place.
func (r *ValidateRequest) normalize() {
	r.Code = normalizeCode(r.Code)
}

// normalizeCode canonicalizes a coupon code so "save10 " and "SAVE10" hit the
// same cache entries and coalesce into the same window.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// codeFromPayload extracts the coupon code from a push payload.
func codeFromPayload(data []byte) (string, bool) {
	var p struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Code == "" {
		return "", false
	}
	return p.Code, true
}

// check returns structural problems with the request itself. These resolve
// to an invalid result immediately: malformed input is not retried and never
// enters the network path.
func (r ValidateRequest) check() []string {
	var errs []string
	if r.Code == "" {
		errs = append(errs, "coupon code is required")
	}
	if r.CartTotal.Amount <= 0 {
		errs = append(errs, "cart total must be positive")
	}
	if r.CartTotal.Currency == "" {
		errs = append(errs, "cart currency is required")
	}
	return errs
}

// ValidationResult is the outcome of a coupon validation. Business-rule
// invalidity (expired, below minimum order, usage exhausted) shows up as
// IsValid=false with populated Errors; it is never an error return.
type ValidationResult struct {
	IsValid    bool           `json:"is_valid"`
	Discount   *Money         `json:"discount,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
	Conditions map[string]any `json:"conditions,omitempty"`
}

func invalid(errs ...string) ValidationResult {
	return ValidationResult{IsValid: false, Errors: errs}
}

type applyRequest struct {
	Code string `json:"code"`
}
