package biz_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/blob"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/data/memstore"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

const (
	owner        = "user-1"
	defaultQuota = 10 << 20
)

type fixture struct {
	store   *memstore.Store
	blobs   *blob.MemoryStore
	users   *userbiz.UserUseCase
	tree    *biz.TreeOperations
	folders *biz.FolderUseCase
	files   *biz.FileUseCase
	listing *biz.ListingUseCase
}

func newFixture(t *testing.T, opts biz.Options) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := memstore.New()
	blobs := blob.NewMemoryStore()

	names := biz.NewNameResolver(store.Folders(), store.Files(), opts)
	tree := biz.NewTreeOperations(store.Folders(), store.Files(), blobs, names, opts, log)
	ledger := biz.NewQuotaLedger(store.Users(), store.Folders(), defaultQuota, log)
	users := userbiz.NewUserUseCase(store.Users(), defaultQuota)

	return &fixture{
		store:   store,
		blobs:   blobs,
		users:   users,
		tree:    tree,
		folders: biz.NewFolderUseCase(store.Folders(), tree, ledger, log),
		files:   biz.NewFileUseCase(store.Files(), store.Folders(), blobs, names, tree, ledger, opts, log),
		listing: biz.NewListingUseCase(store.Folders(), store.Files(), users),
	}
}

func (f *fixture) mkdir(t *testing.T, name string, parentID *string) *biz.Folder {
	t.Helper()
	folder, err := f.folders.CreateFolder(context.Background(), owner, name, parentID)
	require.NoError(t, err)
	return folder
}

func (f *fixture) upload(t *testing.T, folderID *string, name, contentType string, size int) *biz.File {
	t.Helper()
	created, err := f.files.Upload(context.Background(), owner, folderID, []biz.Upload{
		newUpload(name, contentType, size),
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

func (f *fixture) used(t *testing.T) int64 {
	t.Helper()
	_, used, err := f.users.Quota(context.Background(), owner)
	require.NoError(t, err)
	return used
}

func (f *fixture) folder(t *testing.T, id string) *biz.Folder {
	t.Helper()
	folder, err := f.store.Folders().Get(context.Background(), owner, id)
	require.NoError(t, err)
	return folder
}

func newUpload(name, contentType string, size int) biz.Upload {
	return biz.Upload{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(size),
		Content:     bytes.NewReader(bytes.Repeat([]byte{'x'}, size)),
	}
}

func ptr[T any](v T) *T { return &v }
