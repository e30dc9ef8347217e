package biz_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/blob"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/data/memstore"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
)

func TestUpload_IntoFolder(t *testing.T) {
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)

	file := f.upload(t, &docs.ID, "report.pdf", biz.MIMEPDF, 500000)

	assert.Equal(t, "report.pdf", file.FileName)
	assert.Equal(t, int64(500000), file.FileSize)
	assert.Equal(t, biz.MIMEPDF, file.FileType)
	assert.Equal(t, docs.ID, *file.FolderID)
	assert.False(t, file.Private)
	assert.False(t, file.IsFavorite)

	assert.Equal(t, int64(500000), f.used(t))
	assert.Equal(t, int64(500000), f.folder(t, docs.ID).Size)

	info, err := f.blobs.Stat(context.Background(), file.BlobRef)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", info.Filename)
	assert.Equal(t, int64(500000), info.Size)
}

func TestUpload_DuplicateNamesAreSuffixed(t *testing.T) {
	f := newFixture(t, biz.Options{})

	first := f.upload(t, nil, "img.png", "image/png", 10)
	second := f.upload(t, nil, "img.png", "image/png", 10)

	assert.Equal(t, "img.png", first.FileName)
	assert.Equal(t, "img (1).png", second.FileName)
	assert.NotEqual(t, first.BlobRef, second.BlobRef)
}

func TestUpload_InheritsFolderPrivacy(t *testing.T) {
	f := newFixture(t, biz.Options{})
	vault := f.mkdir(t, "Vault", nil)
	_, err := f.folders.SetPrivacy(context.Background(), owner, vault.ID, true)
	require.NoError(t, err)

	file := f.upload(t, &vault.ID, "secret.pdf", biz.MIMEPDF, 5)
	assert.True(t, file.Private)
}

func TestUpload_RejectsBeforeStoring(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    biz.Options
		folder  *string
		uploads []biz.Upload
		wantErr error
	}{
		{name: "no files", wantErr: biz.ErrNoFiles},
		{
			name: "too many files",
			opts: biz.Options{MaxUploadFiles: 2},
			uploads: []biz.Upload{
				newUpload("a.pdf", biz.MIMEPDF, 1),
				newUpload("b.pdf", biz.MIMEPDF, 1),
				newUpload("c.pdf", biz.MIMEPDF, 1),
			},
			wantErr: biz.ErrTooManyFiles,
		},
		{
			name: "unsupported type anywhere in the batch",
			uploads: []biz.Upload{
				newUpload("a.pdf", biz.MIMEPDF, 1),
				newUpload("run.sh", "text/x-shellscript", 1),
			},
			wantErr: biz.ErrInvalidFileType,
		},
		{
			name:    "blank name",
			uploads: []biz.Upload{newUpload("  ", biz.MIMEPDF, 1)},
			wantErr: biz.ErrNameRequired,
		},
		{
			name:    "unknown folder",
			folder:  ptr("missing"),
			uploads: []biz.Upload{newUpload("a.pdf", biz.MIMEPDF, 1)},
			wantErr: biz.ErrFolderNotFound,
		},
		{
			name:    "over quota",
			uploads: []biz.Upload{newUpload("big.pdf", biz.MIMEPDF, defaultQuota+1)},
			wantErr: biz.ErrQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts)
			_, err := f.files.Upload(ctx, owner, tt.folder, tt.uploads)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.blobs.Len())
		})
	}
}

func TestUpload_UnknownSizeIsCharged(t *testing.T) {
	f := newFixture(t, biz.Options{})

	created, err := f.files.Upload(context.Background(), owner, nil, []biz.Upload{{
		FileName:    "scan.png",
		ContentType: "image/png",
		Size:        -1,
		Content:     strings.NewReader("12345"),
	}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, int64(5), created[0].FileSize)
	assert.Equal(t, int64(5), f.used(t))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestUpload_PartialBatchKeepsStoredFiles(t *testing.T) {
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)

	created, err := f.files.Upload(context.Background(), owner, &docs.ID, []biz.Upload{
		newUpload("ok.pdf", biz.MIMEPDF, 100),
		{FileName: "broken.pdf", ContentType: biz.MIMEPDF, Size: 100, Content: failingReader{}},
		newUpload("never.pdf", biz.MIMEPDF, 100),
	})
	require.Error(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "ok.pdf", created[0].FileName)

	assert.Equal(t, int64(100), f.used(t))
	assert.Equal(t, int64(100), f.folder(t, docs.ID).Size)
	assert.Equal(t, 1, f.blobs.Len())
}

func TestRenameFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	file := f.upload(t, nil, "draft.pdf", biz.MIMEPDF, 10)
	f.upload(t, nil, "taken.pdf", biz.MIMEPDF, 10)

	renamed, err := f.files.RenameFile(ctx, owner, file.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", renamed.FileName)

	info, err := f.blobs.Stat(ctx, file.BlobRef)
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", info.Filename)

	suffixed, err := f.files.RenameFile(ctx, owner, file.ID, "taken")
	require.NoError(t, err)
	assert.Equal(t, "taken (1).pdf", suffixed.FileName)
	info, err = f.blobs.Stat(ctx, file.BlobRef)
	require.NoError(t, err)
	assert.Equal(t, "taken (1).pdf", info.Filename)

	_, err = f.files.RenameFile(ctx, owner, file.ID, " ")
	assert.ErrorIs(t, err, biz.ErrNameRequired)

	_, err = f.files.RenameFile(ctx, "user-2", file.ID, "stolen")
	assert.ErrorIs(t, err, biz.ErrFileNotFound)
}

// renameFailingBlobs rejects every metadata rename
type renameFailingBlobs struct {
	*blob.MemoryStore
}

func (renameFailingBlobs) Rename(context.Context, string, string) error {
	return errors.New("metadata backend unavailable")
}

func TestRenameFile_BlobRenameFailureKeepsRename(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()
	store := memstore.New()
	blobs := renameFailingBlobs{MemoryStore: blob.NewMemoryStore()}
	opts := biz.Options{}

	names := biz.NewNameResolver(store.Folders(), store.Files(), opts)
	tree := biz.NewTreeOperations(store.Folders(), store.Files(), blobs, names, opts, log)
	ledger := biz.NewQuotaLedger(store.Users(), store.Folders(), defaultQuota, log)
	files := biz.NewFileUseCase(store.Files(), store.Folders(), blobs, names, tree, ledger, opts, log)

	created, err := files.Upload(ctx, owner, nil, []biz.Upload{newUpload("draft.pdf", biz.MIMEPDF, 10)})
	require.NoError(t, err)
	require.Len(t, created, 1)

	renamed, err := files.RenameFile(ctx, owner, created[0].ID, "final")
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", renamed.FileName)

	stored, err := store.Files().Get(ctx, owner, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "final.pdf", stored.FileName)
}

func TestCopyFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)
	file := f.upload(t, &docs.ID, "photo.jpg", "image/jpeg", 300)
	_, err := f.files.SetFavorite(ctx, owner, file.ID, true)
	require.NoError(t, err)

	copied, err := f.files.CopyFile(ctx, owner, file.ID, &docs.ID)
	require.NoError(t, err)

	assert.Equal(t, "photo (1).jpg", copied.FileName)
	assert.NotEqual(t, file.BlobRef, copied.BlobRef)
	assert.Equal(t, file.FileSize, copied.FileSize)
	assert.False(t, copied.IsFavorite)
	assert.Equal(t, int64(600), f.used(t))
	assert.Equal(t, int64(600), f.folder(t, docs.ID).Size)

	toRoot, err := f.files.CopyFile(ctx, owner, file.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", toRoot.FileName)
	assert.Nil(t, toRoot.FolderID)
	assert.Equal(t, int64(900), f.used(t))
}

func TestCopyFile_PrivacyMustMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	vault := f.mkdir(t, "Vault", nil)
	_, err := f.folders.SetPrivacy(ctx, owner, vault.ID, true)
	require.NoError(t, err)

	public := f.upload(t, nil, "public.pdf", biz.MIMEPDF, 10)
	secret := f.upload(t, &vault.ID, "secret.pdf", biz.MIMEPDF, 10)

	_, err = f.files.CopyFile(ctx, owner, public.ID, &vault.ID)
	assert.ErrorIs(t, err, biz.ErrPrivacyConflict)

	_, err = f.files.CopyFile(ctx, owner, secret.ID, nil)
	assert.ErrorIs(t, err, biz.ErrPrivacyConflict)

	assert.Equal(t, 2, f.blobs.Len())
	assert.Equal(t, int64(20), f.used(t))
}

func TestDeleteFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)
	keep := f.upload(t, &docs.ID, "keep.pdf", biz.MIMEPDF, 40)
	drop := f.upload(t, &docs.ID, "drop.pdf", biz.MIMEPDF, 60)

	require.NoError(t, f.files.DeleteFile(ctx, owner, drop.ID))

	assert.Equal(t, int64(40), f.used(t))
	assert.Equal(t, int64(40), f.folder(t, docs.ID).Size)
	_, err := f.blobs.Stat(ctx, drop.BlobRef)
	assert.ErrorIs(t, err, biz.ErrBlobNotFound)
	_, err = f.blobs.Stat(ctx, keep.BlobRef)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.files.DeleteFile(ctx, owner, drop.ID), biz.ErrFileNotFound)
}

func TestSetFilePrivacy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)
	inFolder := f.upload(t, &docs.ID, "a.pdf", biz.MIMEPDF, 1)
	atRoot := f.upload(t, nil, "b.pdf", biz.MIMEPDF, 1)

	_, err := f.files.SetPrivacy(ctx, owner, inFolder.ID, true)
	assert.ErrorIs(t, err, biz.ErrPrivacyConflict)

	updated, err := f.files.SetPrivacy(ctx, owner, atRoot.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Private)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	file := f.upload(t, nil, "notes.docx", biz.MIMEDocx, 42)

	d, err := f.files.Open(ctx, owner, file.ID)
	require.NoError(t, err)
	defer d.Content.Close()

	data, err := io.ReadAll(d.Content)
	require.NoError(t, err)
	assert.Len(t, data, 42)
	assert.Equal(t, biz.MIMEDocx, d.ContentType)
	assert.Equal(t, "notes.docx", d.FileName)
	assert.Equal(t, int64(42), d.Size)

	require.NoError(t, f.blobs.Delete(ctx, file.BlobRef))
	_, err = f.files.Open(ctx, owner, file.ID)
	assert.ErrorIs(t, err, biz.ErrFileNotFound)
}
