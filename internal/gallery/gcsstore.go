package gallery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore lists assets from a Cloud Storage bucket under a prefix. Folders
// are object name prefixes, so an empty listing is reported as a missing
// directory.
type GCSStore struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (g *GCSStore) Close() error {
	return g.Client.Close()
}

func (g *GCSStore) List(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.TrimPrefix(path.Join(g.Prefix, dir), "/") + "/"
	it := g.Client.Bucket(g.Bucket).Objects(ctx, &storage.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			if errors.Is(err, storage.ErrBucketNotExist) {
				return nil, ErrDirNotFound
			}
			return nil, fmt.Errorf("list gs://%s/%s: %w", g.Bucket, prefix, err)
		}
		// Sub-prefixes come back with only Prefix set.
		if attrs.Name == "" {
			continue
		}
		names = append(names, strings.TrimPrefix(attrs.Name, prefix))
	}
	if len(names) == 0 {
		return nil, ErrDirNotFound
	}
	return names, nil
}

// URL returns the public URL of an image reference.
func (g *GCSStore) URL(ref ImageRef) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.Bucket, path.Join(g.Prefix, string(ref)))
}
