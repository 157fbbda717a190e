// Package fs serves ingestion objects from a local directory tree.
//
// A bucket is a directory directly under the configured root; keys are
// slash-separated paths relative to that directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// Source reads objects from the local filesystem.
type Source struct {
	root string
}

// NewSource creates a filesystem source rooted at root.
func NewSource(root string) *Source {
	return &Source{root: filepath.Clean(root)}
}

// Scheme returns the source kind recorded on documents.
func (s *Source) Scheme() string { return domain.SourceFS }

// BucketDir resolves a bucket name to a directory under the root.
func (s *Source) BucketDir(bucket string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", fmt.Errorf("invalid bucket %q: %w", bucket, domain.ErrValidation)
	}
	return filepath.Join(s.root, bucket), nil
}

// List walks the bucket directory and returns files whose key starts with prefix.
// Directories are reported with a trailing slash, like folder markers in object stores.
func (s *Source) List(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error) {
	dir, err := s.BucketDir(bucket)
	if err != nil {
		return nil, err
	}

	var out []domain.ObjectInfo
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if d.IsDir() {
			key += "/"
		}
		if !strings.HasPrefix(key, prefix) {
			if d.IsDir() && !strings.HasPrefix(prefix, key) {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size := info.Size()
		if d.IsDir() {
			size = 0
		}
		out = append(out, domain.ObjectInfo{Key: key, Size: size})
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("list %s/%s: %w: %w", bucket, prefix, domain.ErrObjectSource, walkErr)
	}
	return out, nil
}

// Get reads one file. Keys that escape the bucket directory are rejected.
func (s *Source) Get(_ context.Context, bucket, key string) ([]byte, error) {
	dir, err := s.BucketDir(bucket)
	if err != nil {
		return nil, err
	}
	clean := path.Clean("/" + key)
	if clean == "/" || clean != "/"+key {
		return nil, fmt.Errorf("invalid key %q: %w", key, domain.ErrObjectSource)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(clean[1:])))
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w: %w", bucket, key, domain.ErrObjectSource, err)
	}
	return data, nil
}
