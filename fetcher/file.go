package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/krisalay/fetchcache/types"
)

var _ types.Fetcher = (*FileFetcher)(nil)

// FileFetcher reads JSON documents from the local filesystem. Relative
// paths resolve against Root; file:// URLs are taken as absolute.
type FileFetcher struct {
	Root string
}

func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{Root: root}
}

func (f *FileFetcher) Fetch(ctx context.Context, key string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := key
	if strings.HasPrefix(key, "file://") {
		u, err := url.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL: %w", err)
		}
		p = u.Path
	} else if !filepath.IsAbs(p) {
		p = filepath.Join(f.Root, filepath.FromSlash(p))
	}

	fh, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return decodeJSON(fh)
}
