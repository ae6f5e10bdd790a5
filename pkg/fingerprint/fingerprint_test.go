package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/pkg/fingerprint"
)

func TestHash(t *testing.T) {
	t.Parallel()

	t.Run("same logical payload hashes identically", func(t *testing.T) {
		t.Parallel()

		a, err := fingerprint.Hash(map[string]any{"code": "SAVE10", "amount": 1897, "currency": "INR"})
		require.NoError(t, err)

		b, err := fingerprint.Hash(map[string]any{"currency": "INR", "amount": 1897, "code": "SAVE10"})
		require.NoError(t, err)

		require.Equal(t, a, b)
	})

	t.Run("struct and map forms agree", func(t *testing.T) {
		t.Parallel()

		type req struct {
			Currency string `json:"currency"`
			Code     string `json:"code"`
		}

		a, err := fingerprint.Hash(req{Currency: "INR", Code: "SAVE10"})
		require.NoError(t, err)

		b, err := fingerprint.Hash(map[string]string{"code": "SAVE10", "currency": "INR"})
		require.NoError(t, err)

		require.Equal(t, a, b)
	})

	t.Run("different payloads hash differently", func(t *testing.T) {
		t.Parallel()

		a, err := fingerprint.Hash(map[string]any{"code": "SAVE10"})
		require.NoError(t, err)

		b, err := fingerprint.Hash(map[string]any{"code": "SAVE20"})
		require.NoError(t, err)

		require.NotEqual(t, a, b)
	})
}

func TestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "validate:SAVE10:abc", fingerprint.Key("validate", "SAVE10", "abc"))
}
