// Package memstore is an in-memory metadata store for tests and local runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	userbiz "github.com/Tanvin-Ahmed/file-management-server/internal/user/biz"
)

// Store holds folders, files and users behind one lock
type Store struct {
	mu      sync.RWMutex
	folders map[string]biz.Folder
	files   map[string]biz.File
	users   map[string]userbiz.User
	now     func() time.Time
}

func New() *Store {
	return &Store{
		folders: make(map[string]biz.Folder),
		files:   make(map[string]biz.File),
		users:   make(map[string]userbiz.User),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Folders() biz.FolderRepo { return folderRepo{s} }
func (s *Store) Files() biz.FileRepo     { return fileRepo{s} }
func (s *Store) Users() userbiz.UserRepo { return userRepo{s} }

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func matches(q biz.ItemQuery, private, favorite bool, updated time.Time) bool {
	if q.Private != nil && *q.Private != private {
		return false
	}
	if q.Favorite != nil && *q.Favorite != favorite {
		return false
	}
	if q.UpdatedFrom != nil && updated.Before(*q.UpdatedFrom) {
		return false
	}
	if q.UpdatedTo != nil && !updated.Before(*q.UpdatedTo) {
		return false
	}
	return true
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// folders

type folderRepo struct{ s *Store }

func (r folderRepo) Create(_ context.Context, f *biz.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.folders[f.ID] = *f
	return nil
}

func (r folderRepo) Get(_ context.Context, ownerID, id string) (*biz.Folder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.folders[id]
	if !ok || f.OwnerID != ownerID {
		return nil, biz.ErrFolderNotFound
	}
	return &f, nil
}

func (r folderRepo) ExistsName(_ context.Context, ownerID string, parentID *string, name string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.folders {
		if f.OwnerID == ownerID && f.Name == name && sameParent(f.ParentID, parentID) {
			return true, nil
		}
	}
	return false, nil
}

func (r folderRepo) update(ownerID, id string, fn func(f *biz.Folder)) (*biz.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok || f.OwnerID != ownerID {
		return nil, biz.ErrFolderNotFound
	}
	fn(&f)
	f.UpdatedAt = r.s.now()
	r.s.folders[id] = f
	return &f, nil
}

func (r folderRepo) Rename(_ context.Context, ownerID, id, name string) (*biz.Folder, error) {
	return r.update(ownerID, id, func(f *biz.Folder) { f.Name = name })
}

func (r folderRepo) SetFavorite(_ context.Context, ownerID, id string, favorite bool) (*biz.Folder, error) {
	return r.update(ownerID, id, func(f *biz.Folder) { f.IsFavorite = favorite })
}

func (r folderRepo) SetPrivate(_ context.Context, ownerID, id string, private bool) error {
	_, err := r.update(ownerID, id, func(f *biz.Folder) { f.Private = private })
	return err
}

func (r folderRepo) IncrementSize(_ context.Context, id string, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok {
		return biz.ErrFolderNotFound
	}
	f.Size += delta
	r.s.folders[id] = f
	return nil
}

func (r folderRepo) Delete(_ context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok || f.OwnerID != ownerID {
		return biz.ErrFolderNotFound
	}
	delete(r.s.folders, id)
	return nil
}

func (r folderRepo) List(_ context.Context, q biz.ItemQuery) ([]*biz.Folder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*biz.Folder
	for _, f := range r.s.folders {
		if f.OwnerID == q.OwnerID && matches(q, f.Private, f.IsFavorite, f.UpdatedAt) {
			f := f
			out = append(out, &f)
		}
	}
	sortFolders(out)
	return limit(out, q.Limit), nil
}

func (r folderRepo) ListByParent(_ context.Context, ownerID string, parentID *string, private *bool) ([]*biz.Folder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*biz.Folder
	for _, f := range r.s.folders {
		if f.OwnerID != ownerID || !sameParent(f.ParentID, parentID) {
			continue
		}
		if private != nil && f.Private != *private {
			continue
		}
		f := f
		out = append(out, &f)
	}
	sortFolders(out)
	return out, nil
}

func sortFolders(fs []*biz.Folder) {
	sort.Slice(fs, func(i, j int) bool {
		if !fs[i].UpdatedAt.Equal(fs[j].UpdatedAt) {
			return fs[i].UpdatedAt.After(fs[j].UpdatedAt)
		}
		return fs[i].ID < fs[j].ID
	})
}

// files

type fileRepo struct{ s *Store }

func (r fileRepo) Create(_ context.Context, f *biz.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.files[f.ID] = *f
	return nil
}

func (r fileRepo) Get(_ context.Context, ownerID, id string) (*biz.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	f, ok := r.s.files[id]
	if !ok || f.OwnerID != ownerID {
		return nil, biz.ErrFileNotFound
	}
	return &f, nil
}

func (r fileRepo) ExistsName(_ context.Context, ownerID string, folderID *string, name string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.files {
		if f.OwnerID == ownerID && f.FileName == name && sameParent(f.FolderID, folderID) {
			return true, nil
		}
	}
	return false, nil
}

func (r fileRepo) update(ownerID, id string, fn func(f *biz.File)) (*biz.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok || f.OwnerID != ownerID {
		return nil, biz.ErrFileNotFound
	}
	fn(&f)
	f.UpdatedAt = r.s.now()
	r.s.files[id] = f
	return &f, nil
}

func (r fileRepo) Rename(_ context.Context, ownerID, id, name string) (*biz.File, error) {
	return r.update(ownerID, id, func(f *biz.File) { f.FileName = name })
}

func (r fileRepo) SetFavorite(_ context.Context, ownerID, id string, favorite bool) (*biz.File, error) {
	return r.update(ownerID, id, func(f *biz.File) { f.IsFavorite = favorite })
}

func (r fileRepo) SetPrivate(_ context.Context, ownerID, id string, private bool) (*biz.File, error) {
	return r.update(ownerID, id, func(f *biz.File) { f.Private = private })
}

func (r fileRepo) SetPrivateInFolder(_ context.Context, ownerID, folderID string, private bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for id, f := range r.s.files {
		if f.OwnerID == ownerID && f.FolderID != nil && *f.FolderID == folderID {
			f.Private = private
			f.UpdatedAt = now
			r.s.files[id] = f
		}
	}
	return nil
}

func (r fileRepo) Delete(_ context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok || f.OwnerID != ownerID {
		return biz.ErrFileNotFound
	}
	delete(r.s.files, id)
	return nil
}

func (r fileRepo) List(_ context.Context, q biz.FileQuery) ([]*biz.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*biz.File
	for _, f := range r.s.files {
		if f.OwnerID != q.OwnerID || !matches(q.ItemQuery, f.Private, f.IsFavorite, f.UpdatedAt) {
			continue
		}
		if !typeMatches(q, f.FileType) {
			continue
		}
		f := f
		out = append(out, &f)
	}
	sortFiles(out)
	return limit(out, q.Limit), nil
}

func typeMatches(q biz.FileQuery, fileType string) bool {
	if len(q.FileTypes) == 0 && q.TypePrefix == "" {
		return true
	}
	if q.TypePrefix != "" && strings.HasPrefix(fileType, q.TypePrefix) {
		return true
	}
	for _, t := range q.FileTypes {
		if t == fileType {
			return true
		}
	}
	return false
}

func (r fileRepo) ListByFolder(_ context.Context, ownerID string, folderID *string, private *bool) ([]*biz.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*biz.File
	for _, f := range r.s.files {
		if f.OwnerID != ownerID || !sameParent(f.FolderID, folderID) {
			continue
		}
		if private != nil && f.Private != *private {
			continue
		}
		f := f
		out = append(out, &f)
	}
	sortFiles(out)
	return out, nil
}

func (r fileRepo) UsageByType(_ context.Context, ownerID string) ([]biz.TypeUsage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byType := make(map[string]*biz.TypeUsage)
	for _, f := range r.s.files {
		if f.OwnerID != ownerID {
			continue
		}
		u, ok := byType[f.FileType]
		if !ok {
			u = &biz.TypeUsage{FileType: f.FileType}
			byType[f.FileType] = u
		}
		u.Bytes += f.FileSize
		u.Count++
	}
	out := make([]biz.TypeUsage, 0, len(byType))
	for _, u := range byType {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileType < out[j].FileType })
	return out, nil
}

func (r fileRepo) ReferencedBlobs(_ context.Context, refs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		want[ref] = struct{}{}
	}
	out := make(map[string]bool)
	for _, f := range r.s.files {
		if _, ok := want[f.BlobRef]; ok {
			out[f.BlobRef] = true
		}
	}
	return out, nil
}

func (r fileRepo) Scan(_ context.Context, afterID string, n int) ([]*biz.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*biz.File
	for _, f := range r.s.files {
		if f.ID > afterID {
			f := f
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return limit(out, n), nil
}

func sortFiles(fs []*biz.File) {
	sort.Slice(fs, func(i, j int) bool {
		if !fs[i].UpdatedAt.Equal(fs[j].UpdatedAt) {
			return fs[i].UpdatedAt.After(fs[j].UpdatedAt)
		}
		return fs[i].ID < fs[j].ID
	})
}

// users

type userRepo struct{ s *Store }

func (r userRepo) Ensure(_ context.Context, id string) (*userbiz.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		now := r.s.now()
		u = userbiz.User{ID: id, CreatedAt: now, UpdatedAt: now}
		r.s.users[id] = u
	}
	return &u, nil
}

func (r userRepo) Get(_ context.Context, id string) (*userbiz.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, userbiz.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) IncrementUsedStorage(_ context.Context, id string, delta int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return 0, userbiz.ErrUserNotFound
	}
	u.UsedStorage += delta
	r.s.users[id] = u
	return u.UsedStorage, nil
}
