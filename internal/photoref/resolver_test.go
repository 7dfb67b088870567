package photoref

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIssuer counts resolution calls and fails or blanks selected paths.
type stubIssuer struct {
	calls     int
	failPaths map[string]bool
	nullPaths map[string]bool
}

func (s *stubIssuer) DisplayURL(_ context.Context, bucket, path string) (string, error) {
	s.calls++
	if s.failPaths[path] {
		return "", errors.New("issuer unavailable")
	}
	if s.nullPaths[path] {
		return "", nil
	}
	return "https://" + bucket + ".example.com/" + path + "?sig=abc", nil
}

func TestResolveAllPaths(t *testing.T) {
	issuer := &stubIssuer{}
	r := NewResolver(issuer, "photos", slog.Default())

	urls, err := r.Resolve(context.Background(), []string{"p/1.jpg", "p/2.jpg"})
	require.NoError(t, err)
	assert.Len(t, urls, 2)
	assert.Contains(t, urls[0], "p/1.jpg")
}

func TestResolveOmitsFailedPaths(t *testing.T) {
	issuer := &stubIssuer{
		failPaths: map[string]bool{"p/2.jpg": true},
		nullPaths: map[string]bool{"p/3.jpg": true},
	}
	r := NewResolver(issuer, "photos", slog.Default())

	urls, err := r.Resolve(context.Background(), []string{"p/1.jpg", "p/2.jpg", "p/3.jpg"})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], "p/1.jpg")
}

func TestResolveOnceSamePathsSinglePass(t *testing.T) {
	issuer := &stubIssuer{}
	r := NewResolver(issuer, "photos", slog.Default())
	ctx := context.Background()
	paths := []string{"p/1.jpg", "p/2.jpg"}

	urls, resolved, err := r.ResolveOnce(ctx, paths)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Len(t, urls, 2)
	assert.Equal(t, 2, issuer.calls)

	// Same list by value: no new pass, cached URLs returned.
	urls2, resolved, err := r.ResolveOnce(ctx, []string{"p/1.jpg", "p/2.jpg"})
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Equal(t, urls, urls2)
	assert.Equal(t, 2, issuer.calls)
}

func TestResolveOnceExtendedPathsFullPass(t *testing.T) {
	issuer := &stubIssuer{}
	r := NewResolver(issuer, "photos", slog.Default())
	ctx := context.Background()

	_, resolved, err := r.ResolveOnce(ctx, []string{"p/1.jpg"})
	require.NoError(t, err)
	assert.True(t, resolved)
	require.Equal(t, 1, issuer.calls)

	// One new path: exactly one more pass, covering all paths.
	urls, resolved, err := r.ResolveOnce(ctx, []string{"p/1.jpg", "p/2.jpg"})
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Len(t, urls, 2)
	assert.Equal(t, 3, issuer.calls)
}

func TestResolveOnceEmptyListAlwaysResolves(t *testing.T) {
	issuer := &stubIssuer{}
	r := NewResolver(issuer, "photos", slog.Default())

	urls, _, err := r.ResolveOnce(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
	assert.Zero(t, issuer.calls)
}

func TestResolveCancelled(t *testing.T) {
	issuer := &stubIssuer{}
	r := NewResolver(issuer, "photos", slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, []string{"p/1.jpg"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, issuer.calls)
}

// stubPresigner exercises the S3 issuer without AWS.
type stubPresigner struct {
	lastBucket string
	lastKey    string
	expires    time.Duration
}

func (s *stubPresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	s.lastBucket = aws.ToString(params.Bucket)
	s.lastKey = aws.ToString(params.Key)
	s.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example.com/" + s.lastKey}, nil
}

func TestS3IssuerDisplayURL(t *testing.T) {
	p := &stubPresigner{}
	issuer := NewS3IssuerWithPresigner(p, 15*time.Minute)

	url, err := issuer.DisplayURL(context.Background(), "prop-photos", "props/d1/a1/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example.com/props/d1/a1/1.jpg", url)
	assert.Equal(t, "prop-photos", p.lastBucket)
	assert.Equal(t, 15*time.Minute, p.expires)
}
