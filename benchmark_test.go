package fetchcache_test

import (
	"context"
	"fmt"
	"testing"

	fetchcache "github.com/krisalay/fetchcache"
	"github.com/krisalay/fetchcache/types"
)

func newBenchmarkCache() *fetchcache.FetchCache {
	doc := map[string]any{"title": "bench"}
	return fetchcache.New(types.FetcherFunc(func(context.Context, string) (any, error) {
		return doc, nil
	}))
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkGetHit(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	_, _ = c.Get(ctx, "key")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, "key")
	}
}

func BenchmarkGetMissEvicting(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()

	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("./data/doc-%d.json", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, keys[i%len(keys)])
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkGetParallelSameKey(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = c.Get(ctx, "hot")
		}
	})
}

func BenchmarkGetManyThreeDocuments(b *testing.B) {
	ctx := context.Background()
	c := newBenchmarkCache()
	sources := map[string]string{
		"config":  "./data/config.json",
		"content": "./data/content.json",
		"team":    "./data/team.json",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetMany(ctx, sources)
	}
}
