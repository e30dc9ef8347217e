package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanvin-Ahmed/file-management-server/internal/auth/middleware"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/blob"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/data/memstore"
	apperrors "github.com/Tanvin-Ahmed/file-management-server/internal/pkg/errors"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

const testOwner = "owner-1"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, quota int64) *gin.Engine {
	t.Helper()
	log := logger.NewNop()
	store := memstore.New()
	blobs := blob.NewMemoryStore()
	opts := biz.DefaultOptions()

	names := biz.NewNameResolver(store.Folders(), store.Files(), opts)
	tree := biz.NewTreeOperations(store.Folders(), store.Files(), blobs, names, opts, log)
	ledger := biz.NewQuotaLedger(store.Users(), store.Folders(), quota, log)
	users := userbiz.NewUserUseCase(store.Users(), quota)

	svc := NewDriveService(
		biz.NewFolderUseCase(store.Folders(), tree, ledger, log),
		biz.NewFileUseCase(store.Files(), store.Folders(), blobs, names, tree, ledger, opts, log),
		biz.NewListingUseCase(store.Folders(), store.Files(), users),
		users,
		log,
	)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if owner := c.GetHeader("X-Test-Owner"); owner != "" {
			c.Set(middleware.ContextUserID, owner)
		}
		c.Next()
	})
	svc.RegisterRoutes(api)
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Owner", testOwner)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (envelope, T) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var data T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &data))
	}
	return env, data
}

type part struct {
	name        string
	contentType string
	content     []byte
}

func uploadRequest(t *testing.T, folderID string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files[]"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.content)
		require.NoError(t, err)
	}
	if folderID != "" {
		require.NoError(t, mw.WriteField("folderId", folderID))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-Owner", testOwner)
	return req
}

func pdfBytes(n int) []byte {
	return append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'x'}, n)...)
}

func TestCreateFolder(t *testing.T) {
	r := setupRouter(t, 10<<20)

	w := do(r, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Docs"})
	require.Equal(t, http.StatusCreated, w.Code)
	_, folder := decode[FolderResponse](t, w)
	assert.Equal(t, "Docs", folder.Name)
	assert.Nil(t, folder.ParentID)
	assert.NotEmpty(t, folder.ID)

	w = do(r, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Docs"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env, _ := decode[struct{}](t, w)
	assert.Equal(t, apperrors.ErrDuplicateName, env.Code)

	w = do(r, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Inner", ParentID: &folder.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	_, inner := decode[FolderResponse](t, w)
	require.NotNil(t, inner.ParentID)
	assert.Equal(t, folder.ID, *inner.ParentID)

	missing := "does-not-exist"
	w = do(r, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "X", ParentID: &missing})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnauthenticated(t *testing.T) {
	r := setupRouter(t, 10<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/folders?private=false", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrivateQueryRequired(t *testing.T) {
	r := setupRouter(t, 10<<20)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "missing", path: "/api/v1/folders", status: http.StatusBadRequest},
		{name: "not a bool", path: "/api/v1/items/recent?private=maybe", status: http.StatusBadRequest},
		{name: "valid", path: "/api/v1/items/favorites?private=false", status: http.StatusOK},
		{name: "bad kind", path: "/api/v1/files/type/videos?private=false", status: http.StatusBadRequest},
		{name: "bad date", path: "/api/v1/items/by-date?date=18-10-2026&private=false", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestUploadAndDownload(t *testing.T) {
	r := setupRouter(t, 10<<20)

	w := do(r, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Docs"})
	require.Equal(t, http.StatusCreated, w.Code)
	_, folder := decode[FolderResponse](t, w)

	content := pdfBytes(1000)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, folder.ID, part{name: "report.pdf", contentType: "application/pdf", content: content}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_, files := decode[[]FileResponse](t, w)
	require.Len(t, files, 1)
	assert.Equal(t, "report.pdf", files[0].FileName)
	assert.Equal(t, "application/pdf", files[0].FileType)
	assert.Equal(t, int64(len(content)), files[0].FileSize)
	require.NotNil(t, files[0].FolderID)
	assert.Equal(t, folder.ID, *files[0].FolderID)

	t.Run("download", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/files/"+files[0].ID+"/download", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename=report.pdf`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, content, w.Body.Bytes())
	})

	t.Run("preview", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/files/"+files[0].ID+"/preview", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))
	})

	t.Run("folder size", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/folders?private=false", nil)
		require.Equal(t, http.StatusOK, w.Code)
		_, folders := decode[[]FolderResponse](t, w)
		require.Len(t, folders, 1)
		assert.Equal(t, int64(len(content)), folders[0].Size)
	})

	t.Run("by kind", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/files/type/pdf?private=false", nil)
		require.Equal(t, http.StatusOK, w.Code)
		_, got := decode[[]FileResponse](t, w)
		assert.Len(t, got, 1)
	})

	t.Run("summary", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/storage/summary", nil)
		require.Equal(t, http.StatusOK, w.Code)
		_, summary := decode[biz.StorageSummary](t, w)
		assert.Equal(t, int64(10<<20), summary.TotalQuota)
		assert.Equal(t, int64(len(content)), summary.Used)
		assert.Equal(t, int64(10<<20)-int64(len(content)), summary.Available)
	})

	t.Run("delete", func(t *testing.T) {
		w := do(r, http.MethodDelete, "/api/v1/files/"+files[0].ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = do(r, http.MethodGet, "/api/v1/files/"+files[0].ID+"/download", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUploadRejections(t *testing.T) {
	r := setupRouter(t, 10<<20)

	t.Run("no files", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env, _ := decode[struct{}](t, w)
		assert.Equal(t, apperrors.ErrNoFiles, env.Code)
	})

	t.Run("bad type", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "", part{name: "run.sh", contentType: "text/x-shellscript", content: []byte("#!/bin/sh\n")}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env, _ := decode[struct{}](t, w)
		assert.Equal(t, apperrors.ErrInvalidFileType, env.Code)
	})

	t.Run("too many", func(t *testing.T) {
		parts := make([]part, 11)
		for i := range parts {
			parts[i] = part{name: "a.pdf", contentType: "application/pdf", content: pdfBytes(1)}
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "", parts...))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env, _ := decode[struct{}](t, w)
		assert.Equal(t, apperrors.ErrTooManyFiles, env.Code)
	})
}

func TestQuotaPrecheck(t *testing.T) {
	r := setupRouter(t, 1024)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "", part{name: "big.pdf", contentType: "application/pdf", content: pdfBytes(4096)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	env, _ := decode[struct{}](t, w)
	assert.Equal(t, apperrors.ErrQuotaExceeded, env.Code)
}

func TestFolderLifecycle(t *testing.T) {
	r := setupRouter(t, 10<<20)

	w := do(r, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Work"})
	require.Equal(t, http.StatusCreated, w.Code)
	_, work := decode[FolderResponse](t, w)
	base := "/api/v1/folders/" + work.ID

	w = do(r, http.MethodPatch, base+"/name", RenameRequest{Name: "Projects"})
	require.Equal(t, http.StatusOK, w.Code)
	_, renamed := decode[FolderResponse](t, w)
	assert.Equal(t, "Projects", renamed.Name)

	w = do(r, http.MethodPatch, base+"/favorite", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, base+"/favorite", FavoriteRequest{IsFavorite: ptr(true)})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/items/favorites?private=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, favs := decode[[]ItemResponse](t, w)
	require.Len(t, favs, 1)
	assert.Equal(t, biz.KindFolder, favs[0].Type)

	w = do(r, http.MethodPost, base+"/copy", CopyRequest{})
	require.Equal(t, http.StatusCreated, w.Code)
	_, copied := decode[FolderResponse](t, w)
	assert.Equal(t, "Projects (1)", copied.Name)
	assert.False(t, copied.IsFavorite)

	w = do(r, http.MethodPost, base+"/copy", CopyRequest{DestinationID: &work.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, base+"/privacy", PrivacyRequest{Private: ptr(true)})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/folders?private=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, private := decode[[]FolderResponse](t, w)
	require.Len(t, private, 1)
	assert.Equal(t, work.ID, private[0].ID)

	w = do(r, http.MethodGet, base+"/contents?private=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, base+"/contents?private=true", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env, _ := decode[struct{}](t, w)
	assert.Equal(t, apperrors.ErrFolderNotFound, env.Code)
}

func TestOtherOwnerIsolation(t *testing.T) {
	r := setupRouter(t, 10<<20)

	w := do(r, http.MethodPost, "/api/v1/folders", CreateFolderRequest{Name: "Mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	_, mine := decode[FolderResponse](t, w)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/folders/"+mine.ID, nil)
	req.Header.Set("X-Test-Owner", "intruder")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req.WithContext(context.Background()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func ptr[T any](v T) *T { return &v }
