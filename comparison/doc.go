// Package comparison synchronizes the storefront's product comparisons with
// the backend: cached comparison reads, coalesced matrix computation,
// membership and sharing mutations, and push-driven invalidation.
package comparison
