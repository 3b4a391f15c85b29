// Package storage moves workbooks and corpora between local disk, S3 and
// HTTP sources.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsupportedLocation is returned for locations no store understands.
var ErrUnsupportedLocation = errors.New("unsupported location")

// Store is a flat directory of named objects.
type Store interface {
	// List returns the object names directly under the store, sorted.
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, body []byte) error
}

// Location is a parsed data location: s3://bucket/prefix, http(s)://... or a
// filesystem path.
type Location struct {
	Scheme string // "s3", "http", "https" or "file"
	Bucket string
	Path   string
}

// ParseLocation classifies raw.
func ParseLocation(raw string) (Location, error) {
	switch {
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, fmt.Errorf("invalid s3 location %q: %w", raw, err)
		}
		if u.Host == "" {
			return Location{}, fmt.Errorf("%w: %q has no bucket", ErrUnsupportedLocation, raw)
		}
		return Location{Scheme: "s3", Bucket: u.Host, Path: strings.TrimPrefix(u.Path, "/")}, nil
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, fmt.Errorf("invalid url %q: %w", raw, err)
		}
		return Location{Scheme: u.Scheme, Path: raw}, nil
	case strings.Contains(raw, "://"):
		return Location{}, fmt.Errorf("%w: %s", ErrUnsupportedLocation, raw)
	default:
		return Location{Scheme: "file", Path: raw}, nil
	}
}

// Base returns the last element of the location path.
func (l Location) Base() string {
	if l.Scheme == "file" {
		return filepath.Base(l.Path)
	}
	if l.Scheme == "http" || l.Scheme == "https" {
		if u, err := url.Parse(l.Path); err == nil {
			return path.Base(u.Path)
		}
	}
	return path.Base(l.Path)
}

// Dir returns the location of the containing directory.
func (l Location) Dir() Location {
	d := l
	if l.Scheme == "file" {
		d.Path = filepath.Dir(l.Path)
		return d
	}
	d.Path = path.Dir(l.Path)
	if d.Path == "." {
		d.Path = ""
	}
	return d
}

// Open returns the store rooted at a directory location.
func Open(ctx context.Context, loc Location, cfg S3Config) (Store, error) {
	switch loc.Scheme {
	case "file":
		return NewLocalStore(loc.Path), nil
	case "s3":
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, loc.Bucket, loc.Path), nil
	default:
		return nil, fmt.Errorf("%w: cannot list %s locations", ErrUnsupportedLocation, loc.Scheme)
	}
}

// WriteFile stores body at a file location.
func WriteFile(ctx context.Context, loc Location, body []byte, cfg S3Config) error {
	store, err := Open(ctx, loc.Dir(), cfg)
	if err != nil {
		return err
	}
	return store.Put(ctx, loc.Base(), body)
}

// ReadFile loads a single object from any supported location.
func ReadFile(ctx context.Context, loc Location, cfg S3Config) ([]byte, error) {
	if loc.Scheme == "http" || loc.Scheme == "https" {
		return NewHTTPFetcher(DefaultHTTPTimeout).Fetch(ctx, loc.Path)
	}
	store, err := Open(ctx, loc.Dir(), cfg)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, loc.Base())
}
