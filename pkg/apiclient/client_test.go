package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/pkg/apiclient"
)

func TestClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("unwraps envelope data", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/coupons/abc", r.URL.Path)
			require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"abc","code":"SAVE10"}}`))
		}))
		defer srv.Close()

		c := apiclient.New(srv.URL, apiclient.WithBearerToken("tok-123"))

		var out struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		}
		require.NoError(t, c.Get(context.Background(), "/coupons/abc", &out))
		require.Equal(t, "abc", out.ID)
		require.Equal(t, "SAVE10", out.Code)
	})

	t.Run("maps 404 to ErrNotFound", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"coupon not found"}`))
		}))
		defer srv.Close()

		c := apiclient.New(srv.URL)
		err := c.Get(context.Background(), "/coupons/missing", nil)
		require.ErrorIs(t, err, apiclient.ErrNotFound)
		require.ErrorContains(t, err, "coupon not found")
	})

	t.Run("maps 409 to ErrConflict", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"success":false,"message":"already applied"}`))
		}))
		defer srv.Close()

		c := apiclient.New(srv.URL)
		err := c.Post(context.Background(), "/coupons/apply", map[string]string{"code": "SAVE10"}, nil)
		require.ErrorIs(t, err, apiclient.ErrConflict)
	})

	t.Run("maps 5xx to ErrUnavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := apiclient.New(srv.URL)
		err := c.Get(context.Background(), "/coupons", nil)
		require.ErrorIs(t, err, apiclient.ErrUnavailable)
	})

	t.Run("maps transport failure to ErrUnavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // refuse connections

		c := apiclient.New(srv.URL)
		err := c.Get(context.Background(), "/coupons", nil)
		require.ErrorIs(t, err, apiclient.ErrUnavailable)
	})

	t.Run("success=false on 2xx is ErrRequestFailed", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"quota exhausted"}`))
		}))
		defer srv.Close()

		c := apiclient.New(srv.URL)
		err := c.Get(context.Background(), "/coupons", nil)
		require.ErrorIs(t, err, apiclient.ErrRequestFailed)
		require.ErrorContains(t, err, "quota exhausted")
	})

	t.Run("sends JSON body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"success":true}`))
		}))
		defer srv.Close()

		c := apiclient.New(srv.URL)
		require.NoError(t, c.Post(context.Background(), "/coupons/apply", map[string]string{"code": "SAVE10"}, nil))
	})
}
