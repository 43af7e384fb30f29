package stubapi

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sessionguard/sessionguard/internal/config"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-password"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	s, err := New(config.StubAPIConfig{
		DatabaseURL:   filepath.Join(t.TempDir(), "stubapi.sqlite"),
		JWTSecret:     "test-secret",
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
	}, zerolog.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = s.Close()
	})
	return s, srv
}
