// Package photoref converts durable object-storage paths into time-limited
// display URLs. Signed URLs expire, so display URLs are regenerated on every
// fresh mount rather than trusted from a cache; a per-instance signature
// guard keeps the regenerate-render cycle from looping.
package photoref

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// SignedURLIssuer is the external issuer boundary. An empty URL with a nil
// error means "could not resolve" and is not propagated as a failure.
type SignedURLIssuer interface {
	DisplayURL(ctx context.Context, bucket, path string) (string, error)
}

// Resolver resolves photo paths for one screen instance. It is safe for
// concurrent use; the signature guard state is per instance, so each screen
// constructs its own Resolver.
type Resolver struct {
	issuer SignedURLIssuer
	bucket string
	logger *slog.Logger

	mu       sync.Mutex
	lastSig  string
	lastURLs []string
}

func NewResolver(issuer SignedURLIssuer, bucket string, logger *slog.Logger) *Resolver {
	return &Resolver{issuer: issuer, bucket: bucket, logger: logger}
}

// Resolve obtains a display URL for every path. A path that cannot be
// resolved is omitted from the result rather than failing the batch; the only
// returned error is context cancellation.
func (r *Resolver) Resolve(ctx context.Context, photoPaths []string) ([]string, error) {
	urls := make([]string, 0, len(photoPaths))
	for _, path := range photoPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		url, err := r.issuer.DisplayURL(ctx, r.bucket, path)
		if err != nil {
			r.logger.Debug("photo path resolution failed", "path", path, "error", err)
			continue
		}
		if url == "" {
			continue
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// ResolveOnce resolves only when photoPaths differ from the last list this
// instance resolved; an identical list returns the cached display URLs
// without touching the issuer. The guard compares path lists, not a
// "resolved before" flag — adding a new photo after the initial pass must
// trigger a fresh pass over all paths.
func (r *Resolver) ResolveOnce(ctx context.Context, photoPaths []string) (urls []string, resolved bool, err error) {
	sig := Signature(photoPaths)

	r.mu.Lock()
	if sig == r.lastSig && r.lastSig != "" {
		cached := r.lastURLs
		r.mu.Unlock()
		return cached, false, nil
	}
	r.mu.Unlock()

	urls, err = r.Resolve(ctx, photoPaths)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	r.lastSig = sig
	r.lastURLs = urls
	r.mu.Unlock()
	return urls, true, nil
}

// Signature derives the guard key for a path list. Order matters: photo
// lists are ordered, and a reorder is a real change.
func Signature(photoPaths []string) string {
	if len(photoPaths) == 0 {
		return ""
	}
	return strings.Join(photoPaths, "\x00")
}
