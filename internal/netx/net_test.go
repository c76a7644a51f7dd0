package netx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFromPresignedURL(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Path {
		case "/backups/ok.backup":
			_, _ = w.Write([]byte(`{"version":"1.0"}`))
		case "/backups/expired.backup":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("<Error><Code>AccessDenied</Code></Error>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	t.Run("success", func(t *testing.T) {
		b, err := DownloadFromPresignedURL(ctx, ts.URL+"/backups/ok.backup?X-Amz-Signature=abc", 1024)
		require.NoError(t, err)
		assert.Equal(t, `{"version":"1.0"}`, string(b))
	})

	t.Run("non-200 includes status and body", func(t *testing.T) {
		_, err := DownloadFromPresignedURL(ctx, ts.URL+"/backups/expired.backup", 1024)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "403"))
		assert.Contains(t, err.Error(), "AccessDenied")
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := DownloadFromPresignedURL(ctx, ts.URL+"/backups/ok.backup", 4)
		require.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("scheme", func(t *testing.T) {
		_, err := DownloadFromPresignedURL(ctx, "file:///etc/passwd", 1024)
		require.ErrorContains(t, err, "unsupported scheme")
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := DownloadFromPresignedURL(ctx, "http://127.0.0.1:1/x", 1024)
		require.Error(t, err)
	})
}
