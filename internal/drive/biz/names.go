package biz

import (
	"context"
	"fmt"
	"strings"
)

// NameResolver picks a free sibling name by appending " (n)". Every
// candidate is checked against the store; concurrent resolvers may still
// settle on the same name.
type NameResolver struct {
	folders     FolderRepo
	files       FileRepo
	maxAttempts int
}

func NewNameResolver(folders FolderRepo, files FileRepo, opts Options) *NameResolver {
	return &NameResolver{folders: folders, files: files, maxAttempts: opts.withDefaults().MaxNameAttempts}
}

// ResolveUniqueName returns baseName if it is free in scope, otherwise the
// first free "stem (n)ext".
func (r *NameResolver) ResolveUniqueName(ctx context.Context, baseName string, scope Scope) (string, error) {
	stem, ext := baseName, ""
	if scope.Kind == KindFile {
		stem, ext = SplitExt(baseName)
	}

	candidate := baseName
	for n := 1; n <= r.maxAttempts; n++ {
		taken, err := r.exists(ctx, scope, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	return "", fmt.Errorf("%w: %q after %d attempts", ErrNameAttemptsUsed, baseName, r.maxAttempts)
}

func (r *NameResolver) exists(ctx context.Context, scope Scope, name string) (bool, error) {
	if scope.Current != "" && name == scope.Current {
		return false, nil
	}
	if scope.Kind == KindFolder {
		return r.folders.ExistsName(ctx, scope.OwnerID, scope.ParentID, name)
	}
	return r.files.ExistsName(ctx, scope.OwnerID, scope.ParentID, name)
}

// SplitExt splits at the final '.'. The extension keeps its dot.
func SplitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}
