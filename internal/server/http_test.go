package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanvin-Ahmed/file-management-server/internal/auth"
	"github.com/Tanvin-Ahmed/file-management-server/internal/conf"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/blob"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/data/memstore"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/service"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

type fakeChecker map[string]error

func (f fakeChecker) Check(context.Context) map[string]error { return f }

func newTestServer(t *testing.T, checks fakeChecker) (*HTTPServer, *auth.JWTManager) {
	t.Helper()
	log := logger.NewNop()
	store := memstore.New()
	blobs := blob.NewMemoryStore()
	opts := biz.DefaultOptions()

	names := biz.NewNameResolver(store.Folders(), store.Files(), opts)
	tree := biz.NewTreeOperations(store.Folders(), store.Files(), blobs, names, opts, log)
	ledger := biz.NewQuotaLedger(store.Users(), store.Folders(), 1<<20, log)
	users := userbiz.NewUserUseCase(store.Users(), 1<<20)
	svc := service.NewDriveService(
		biz.NewFolderUseCase(store.Folders(), tree, ledger, log),
		biz.NewFileUseCase(store.Files(), store.Folders(), blobs, names, tree, ledger, opts, log),
		biz.NewListingUseCase(store.Folders(), store.Files(), users),
		users,
		log,
	)

	jwtManager := auth.NewJWTManager("test-secret-0123456789", "drive")
	cfg := &conf.Config{Server: conf.ServerConfig{Host: "127.0.0.1", Port: 8080}}
	return NewHTTPServer(cfg, log, checks, jwtManager, nil, svc), jwtManager
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks fakeChecker
		status int
		state  string
	}{
		{name: "healthy", checks: fakeChecker{"database": nil, "redis": nil, "blob": nil}, status: http.StatusOK, state: "ok"},
		{name: "blob down", checks: fakeChecker{"database": nil, "blob": errors.New("bucket gone")}, status: http.StatusServiceUnavailable, state: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.checks)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.state, body.Status)
			assert.Len(t, body.Checks, len(tt.checks))
		})
	}
}

func TestAPIRequiresToken(t *testing.T) {
	srv, jwtManager := newTestServer(t, fakeChecker{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/storage/summary", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwtManager.GenerateAccessToken("owner-1", "")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/storage/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, fakeChecker{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
