package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Fetcher downloads single objects referenced by s3:// or http(s):// URLs.
// Filesystem paths are rejected so remote callers cannot read local files.
type Fetcher struct {
	cfg  S3Config
	http *HTTPFetcher

	mu     sync.Mutex
	client *s3.Client
}

func NewFetcher(cfg S3Config, httpTimeout time.Duration) *Fetcher {
	return &Fetcher{cfg: cfg, http: NewHTTPFetcher(httpTimeout)}
}

// Fetch returns the content behind rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	loc, err := ParseLocation(rawURL)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "http", "https":
		return f.http.Fetch(ctx, loc.Path)
	case "s3":
		client, err := f.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		dir := loc.Dir()
		return NewS3Store(client, dir.Bucket, dir.Path).Get(ctx, loc.Base())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocation, rawURL)
	}
}

func (f *Fetcher) s3Client(ctx context.Context) (*s3.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client == nil {
		client, err := NewS3Client(ctx, f.cfg)
		if err != nil {
			return nil, err
		}
		f.client = client
	}
	return f.client, nil
}
