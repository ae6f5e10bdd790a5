// Package fingerprint derives canonical, order-independent keys from request
// payloads. The same logical request always hashes to the same key no matter
// how its fields were assembled, which makes the digest safe to use for
// cache lookups and request coalescing.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Hash returns a hex-encoded SHA-256 digest of the value's canonical JSON
// form. Canonicalization round-trips the value through generic JSON so that
// object keys are emitted in sorted order regardless of struct field order.
func Hash(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Key joins namespace parts with a digest into a single cache key,
// e.g. Key("validate", "SAVE10", digest) -> "validate:SAVE10:<digest>".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
