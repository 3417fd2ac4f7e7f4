package gallery

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// DirStore serves assets from a directory tree laid out as
// <body type>/<gender>/<category>/<image>.
type DirStore struct {
	fsys fs.FS
}

func NewDirStore(root string) *DirStore {
	return &DirStore{fsys: os.DirFS(root)}
}

// NewFSStore wraps any fs.FS, e.g. fstest.MapFS in tests.
func NewFSStore(fsys fs.FS) *DirStore {
	return &DirStore{fsys: fsys}
}

func (d *DirStore) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(d.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrDirNotFound
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// FS exposes the underlying file system for serving images.
func (d *DirStore) FS() fs.FS {
	return d.fsys
}
