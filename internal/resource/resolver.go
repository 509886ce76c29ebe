// Package resource resolves the target references of embedded nodes and
// clears their loading markers once the referenced content settles.
package resource

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// sniffLen is the number of leading bytes filetype needs to match a format.
const sniffLen = 262

// Result describes resolved content.
type Result struct {
	MIME      string
	Extension string
}

// Resolver fetches target references and checks that they are images.
type Resolver struct {
	client  *http.Client
	baseDir string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets the client used for http and https references.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

// WithBaseDir sets the directory relative file references resolve against.
func WithBaseDir(dir string) ResolverOption {
	return func(r *Resolver) {
		r.baseDir = dir
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  http.DefaultClient,
		baseDir: ".",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the head of ref and identifies its format.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Result, error) {
	head, err := r.head(ctx, ref)
	if err != nil {
		return Result{}, err
	}
	if !filetype.IsImage(head) {
		return Result{}, fmt.Errorf("%s: %w", ref, ErrNotImage)
	}
	kind, err := filetype.Match(head)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", ref, err)
	}
	return Result{MIME: kind.MIME.Value, Extension: kind.Extension}, nil
}

func (r *Resolver) head(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeData(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.fetch(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ref, err)
		}
		return readHead(u.Path)
	case strings.Contains(ref, "://"):
		return nil, fmt.Errorf("%s: %w", ref, ErrUnsupportedScheme)
	}

	if filepath.IsAbs(ref) {
		return readHead(ref)
	}
	// Relative references stay inside the base directory.
	f, err := os.DirFS(r.baseDir).Open(relativePath(ref))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAll(f)
}

// relativePath turns a relative reference into a slash-separated path
// without query or fragment. References climbing out of the base directory
// keep their leading "..", which fs.FS rejects.
func relativePath(ref string) string {
	p := filepath.ToSlash(ref)
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	return path.Clean(p)
}

func (r *Resolver) fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", ref, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: %s", ref, ErrBadStatus, resp.Status)
	}
	return readAll(resp.Body)
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAll(f)
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, sniffLen))
}

// decodeData returns the payload of a data: URI.
func decodeData(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, ErrMalformedData
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return []byte(data), nil
}
