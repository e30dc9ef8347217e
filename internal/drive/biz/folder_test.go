package biz_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
)

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})

	docs, err := f.folders.CreateFolder(ctx, owner, "  Docs  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Docs", docs.Name)
	assert.Nil(t, docs.ParentID)
	assert.False(t, docs.Private)
	assert.Zero(t, docs.Size)

	_, err = f.folders.CreateFolder(ctx, owner, "Docs", nil)
	assert.ErrorIs(t, err, biz.ErrDuplicateName)

	_, err = f.folders.CreateFolder(ctx, owner, "", nil)
	assert.ErrorIs(t, err, biz.ErrNameRequired)

	_, err = f.folders.CreateFolder(ctx, owner, "Sub", ptr("missing"))
	assert.ErrorIs(t, err, biz.ErrFolderNotFound)

	// same name under another parent is fine
	nested, err := f.folders.CreateFolder(ctx, owner, "Docs", &docs.ID)
	require.NoError(t, err)
	assert.Equal(t, docs.ID, *nested.ParentID)
}

func TestCreateFolder_InheritsPrivacy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	vault := f.mkdir(t, "Vault", nil)
	_, err := f.folders.SetPrivacy(ctx, owner, vault.ID, true)
	require.NoError(t, err)

	sub := f.mkdir(t, "Sub", &vault.ID)
	assert.True(t, sub.Private)
}

func TestRenameFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	a := f.mkdir(t, "A", nil)
	f.mkdir(t, "B", nil)
	child := f.mkdir(t, "child", &a.ID)

	renamed, err := f.folders.RenameFolder(ctx, owner, a.ID, "Archive")
	require.NoError(t, err)
	assert.Equal(t, "Archive", renamed.Name)
	assert.Equal(t, "child", f.folder(t, child.ID).Name)

	same, err := f.folders.RenameFolder(ctx, owner, a.ID, "Archive")
	require.NoError(t, err)
	assert.Equal(t, "Archive", same.Name)

	suffixed, err := f.folders.RenameFolder(ctx, owner, a.ID, "B")
	require.NoError(t, err)
	assert.Equal(t, "B (1)", suffixed.Name)

	// its own suffixed name does not push it further
	again, err := f.folders.RenameFolder(ctx, owner, a.ID, "B")
	require.NoError(t, err)
	assert.Equal(t, "B (1)", again.Name)

	_, err = f.folders.RenameFolder(ctx, owner, a.ID, "  ")
	assert.ErrorIs(t, err, biz.ErrNameRequired)
}

// shape flattens a subtree into sorted "path size" lines
func shape(t *testing.T, f *fixture, folderID string) []string {
	t.Helper()
	ctx := context.Background()
	var lines []string
	var walk func(id, prefix string)
	walk = func(id, prefix string) {
		files, err := f.store.Files().ListByFolder(ctx, owner, &id, nil)
		require.NoError(t, err)
		for _, file := range files {
			lines = append(lines, prefix+file.FileName)
		}
		subs, err := f.store.Folders().ListByParent(ctx, owner, &id, nil)
		require.NoError(t, err)
		for _, sub := range subs {
			lines = append(lines, prefix+sub.Name+"/")
			walk(sub.ID, prefix+sub.Name+"/")
		}
	}
	walk(folderID, "")
	sort.Strings(lines)
	return lines
}

func TestCopyFolder_CopiesSubtree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)
	work := f.mkdir(t, "Work", &docs.ID)
	deep := f.mkdir(t, "Deep", &work.ID)
	f.upload(t, &docs.ID, "a.pdf", biz.MIMEPDF, 100)
	f.upload(t, &work.ID, "b.png", "image/png", 200)
	f.upload(t, &deep.ID, "c.docx", biz.MIMEDocx, 300)
	require.Equal(t, int64(600), f.used(t))
	_, err := f.folders.SetFavorite(ctx, owner, docs.ID, true)
	require.NoError(t, err)

	copied, err := f.folders.CopyFolder(ctx, owner, docs.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "Docs (1)", copied.Name)
	assert.Nil(t, copied.ParentID)
	assert.False(t, copied.IsFavorite)
	assert.Equal(t, f.folder(t, docs.ID).Size, copied.Size)
	assert.Equal(t, shape(t, f, docs.ID), shape(t, f, copied.ID))

	assert.Equal(t, int64(1200), f.used(t))
	assert.Equal(t, 6, f.blobs.Len())
}

func TestCopyFolder_IntoSibling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	src := f.mkdir(t, "Src", nil)
	dst := f.mkdir(t, "Dst", nil)
	f.upload(t, &src.ID, "a.pdf", biz.MIMEPDF, 50)

	copied, err := f.folders.CopyFolder(ctx, owner, src.ID, &dst.ID)
	require.NoError(t, err)
	assert.Equal(t, "Src", copied.Name)
	assert.Equal(t, dst.ID, *copied.ParentID)

	// only the immediate parent grows
	assert.Equal(t, int64(50), f.folder(t, dst.ID).Size)
	assert.Equal(t, int64(100), f.used(t))
}

func TestCopyFolder_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)
	child := f.mkdir(t, "Child", &docs.ID)
	vault := f.mkdir(t, "Vault", nil)
	_, err := f.folders.SetPrivacy(ctx, owner, vault.ID, true)
	require.NoError(t, err)

	_, err = f.folders.CopyFolder(ctx, owner, docs.ID, &docs.ID)
	assert.ErrorIs(t, err, biz.ErrCopyIntoSelf)

	_, err = f.folders.CopyFolder(ctx, owner, docs.ID, &child.ID)
	assert.ErrorIs(t, err, biz.ErrCopyIntoSelf)

	_, err = f.folders.CopyFolder(ctx, owner, docs.ID, &vault.ID)
	assert.ErrorIs(t, err, biz.ErrPrivacyConflict)

	_, err = f.folders.CopyFolder(ctx, owner, vault.ID, nil)
	assert.ErrorIs(t, err, biz.ErrPrivacyConflict)

	_, err = f.folders.CopyFolder(ctx, "user-2", docs.ID, nil)
	assert.ErrorIs(t, err, biz.ErrFolderNotFound)
}

func TestCopyFolder_TooDeep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{MaxDepth: 2})
	top := f.mkdir(t, "L0", nil)
	l1 := f.mkdir(t, "L1", &top.ID)
	f.mkdir(t, "L2", &l1.ID)
	f.upload(t, &l1.ID, "a.pdf", biz.MIMEPDF, 10)
	other := f.mkdir(t, "Other", nil)

	// L0 is two levels high; under Other its leaf would sit at depth 3
	_, err := f.folders.CopyFolder(ctx, owner, top.ID, &other.ID)
	assert.ErrorIs(t, err, biz.ErrTreeTooDeep)

	children, err := f.store.Folders().ListByParent(ctx, owner, &other.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.Equal(t, int64(10), f.used(t))

	copied, err := f.folders.CopyFolder(ctx, owner, top.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "L0 (1)", copied.Name)
	assert.Equal(t, int64(20), f.used(t))
}

func TestCreateFolder_DepthBound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{MaxDepth: 2})
	top := f.mkdir(t, "L0", nil)
	l1 := f.mkdir(t, "L1", &top.ID)
	l2 := f.mkdir(t, "L2", &l1.ID)

	_, err := f.folders.CreateFolder(ctx, owner, "L3", &l2.ID)
	assert.ErrorIs(t, err, biz.ErrTreeTooDeep)

	// the deepest tree that can be built is still removable from the top
	f.upload(t, &l2.ID, "deep.pdf", biz.MIMEPDF, 50)
	require.Equal(t, int64(50), f.used(t))

	require.NoError(t, f.folders.DeleteFolder(ctx, owner, top.ID))
	for _, id := range []string{top.ID, l1.ID, l2.ID} {
		_, err := f.folders.GetFolder(ctx, owner, id)
		assert.ErrorIs(t, err, biz.ErrFolderNotFound)
	}
	assert.Equal(t, int64(0), f.used(t))
	assert.Equal(t, 0, f.blobs.Len())
}

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	parent := f.mkdir(t, "Parent", nil)
	docs := f.mkdir(t, "Docs", &parent.ID)
	sub := f.mkdir(t, "Sub", &docs.ID)
	f.upload(t, &docs.ID, "a.pdf", biz.MIMEPDF, 100)
	f.upload(t, &sub.ID, "b.pdf", biz.MIMEPDF, 200)
	kept := f.upload(t, &parent.ID, "kept.pdf", biz.MIMEPDF, 5)

	// the copy bumps Parent by Docs' size
	_, err := f.folders.CopyFolder(ctx, owner, docs.ID, &parent.ID)
	require.NoError(t, err)
	before := f.folder(t, parent.ID).Size

	require.NoError(t, f.folders.DeleteFolder(ctx, owner, docs.ID))

	_, err = f.folders.GetFolder(ctx, owner, docs.ID)
	assert.ErrorIs(t, err, biz.ErrFolderNotFound)
	_, err = f.folders.GetFolder(ctx, owner, sub.ID)
	assert.ErrorIs(t, err, biz.ErrFolderNotFound)

	// the copy keeps its 300 bytes, the original's 300 are released
	assert.Equal(t, int64(5+300), f.used(t))
	assert.Equal(t, before-100, f.folder(t, parent.ID).Size)
	assert.Equal(t, 3, f.blobs.Len())

	_, err = f.files.GetFile(ctx, owner, kept.ID)
	assert.NoError(t, err)
}

func TestSetFolderPrivacy_Cascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)
	sub := f.mkdir(t, "Sub", &docs.ID)
	a := f.upload(t, &docs.ID, "a.pdf", biz.MIMEPDF, 1)
	b := f.upload(t, &sub.ID, "b.pdf", biz.MIMEPDF, 1)
	outside := f.upload(t, nil, "c.pdf", biz.MIMEPDF, 1)

	updated, err := f.folders.SetPrivacy(ctx, owner, docs.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Private)
	assert.True(t, f.folder(t, sub.ID).Private)

	for _, id := range []string{a.ID, b.ID} {
		file, err := f.files.GetFile(ctx, owner, id)
		require.NoError(t, err)
		assert.True(t, file.Private, id)
	}
	file, err := f.files.GetFile(ctx, owner, outside.ID)
	require.NoError(t, err)
	assert.False(t, file.Private)

	// back to public
	_, err = f.folders.SetPrivacy(ctx, owner, docs.ID, false)
	require.NoError(t, err)
	assert.False(t, f.folder(t, sub.ID).Private)
}

func TestSetFolderPrivacy_NestedFollowsParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, biz.Options{})
	docs := f.mkdir(t, "Docs", nil)
	sub := f.mkdir(t, "Sub", &docs.ID)

	_, err := f.folders.SetPrivacy(ctx, owner, sub.ID, true)
	assert.ErrorIs(t, err, biz.ErrPrivacyConflict)
	assert.False(t, f.folder(t, sub.ID).Private)

	_, err = f.folders.SetPrivacy(ctx, owner, docs.ID, true)
	require.NoError(t, err)
	assert.True(t, f.folder(t, sub.ID).Private)

	_, err = f.folders.SetPrivacy(ctx, owner, sub.ID, false)
	assert.ErrorIs(t, err, biz.ErrPrivacyConflict)
	assert.True(t, f.folder(t, sub.ID).Private)

	same, err := f.folders.SetPrivacy(ctx, owner, sub.ID, true)
	require.NoError(t, err)
	assert.True(t, same.Private)
}
