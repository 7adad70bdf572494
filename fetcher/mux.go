package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/krisalay/fetchcache/types"
)

var _ types.Fetcher = (*Mux)(nil)

// Mux dispatches on the key's URL scheme. Keys without a scheme go to the
// fetcher registered for "" (usually a FileFetcher).
type Mux struct {
	fetchers map[string]types.Fetcher
}

func NewMux() *Mux {
	return &Mux{fetchers: make(map[string]types.Fetcher)}
}

// Handle registers f for each scheme, replacing any previous registration.
func (m *Mux) Handle(f types.Fetcher, schemes ...string) *Mux {
	for _, s := range schemes {
		m.fetchers[strings.ToLower(s)] = f
	}
	return m
}

func (m *Mux) Fetch(ctx context.Context, key string) (any, error) {
	scheme := ""
	if u, err := url.Parse(key); err == nil {
		scheme = strings.ToLower(u.Scheme)
	}
	f, ok := m.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("no fetcher for scheme %q", scheme)
	}
	return f.Fetch(ctx, key)
}
