package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/fetchcache/types"
)

func TestHTTPFetcher(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/config.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"siteName":"SISR Project","version":"1.0.0"}`)
		case "/broken.json":
			_, _ = io.WriteString(w, `{"siteName":`)
		case "/flaky.json":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		f := NewHTTPFetcher()
		v, err := f.Fetch(ctx, srv.URL+"/config.json")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"siteName": "SISR Project", "version": "1.0.0"}, v)
	})

	t.Run("not found", func(t *testing.T) {
		f := NewHTTPFetcher()
		_, err := f.Fetch(ctx, srv.URL+"/missing.json")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
	})

	t.Run("bad json", func(t *testing.T) {
		f := NewHTTPFetcher()
		_, err := f.Fetch(ctx, srv.URL+"/broken.json")
		assert.ErrorContains(t, err, "failed to parse JSON")
	})

	t.Run("transport retries then gives up", func(t *testing.T) {
		hits.Store(0)
		f := NewHTTPFetcher(WithMaxRetries(2), WithRetryWait(time.Millisecond, time.Millisecond))
		_, err := f.Fetch(ctx, srv.URL+"/flaky.json")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("no transport retries by default", func(t *testing.T) {
		hits.Store(0)
		f := NewHTTPFetcher()
		_, err := f.Fetch(ctx, srv.URL+"/flaky.json")
		assert.Error(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestFileFetcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	teamPath := filepath.Join(root, "data", "team.json")
	require.NoError(t, os.WriteFile(teamPath, []byte(`{"members":[{"name":"a","role":"b"}]}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "trailing.json"), []byte(`{} {}`), 0o600))

	f := NewFileFetcher(root)
	ctx := context.Background()
	want := map[string]any{"members": []any{map[string]any{"name": "a", "role": "b"}}}

	v, err := f.Fetch(ctx, "./data/team.json")
	require.NoError(t, err)
	assert.Equal(t, want, v)

	v, err = f.Fetch(ctx, "file://"+filepath.ToSlash(teamPath))
	require.NoError(t, err)
	assert.Equal(t, want, v)

	_, err = f.Fetch(ctx, "./data/missing.json")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = f.Fetch(ctx, "./data/trailing.json")
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string]string
	lastIn  *s3v2.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	f.lastIn = in
	body, ok := f.objects[awsv2.ToString(in.Bucket)+"/"+awsv2.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Fetcher(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"site/data/content.json": `{"hero":{"title":"t"}}`}}
	f := NewS3Fetcher(client)
	ctx := context.Background()

	v, err := f.Fetch(ctx, "s3://site/data/content.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hero": map[string]any{"title": "t"}}, v)
	assert.Equal(t, "data/content.json", awsv2.ToString(client.lastIn.Key))

	_, err = f.Fetch(ctx, "s3://site/data/missing.json")
	assert.Error(t, err)

	_, err = f.Fetch(ctx, "s3://site/")
	assert.ErrorContains(t, err, "no object key")
}

func TestMux(t *testing.T) {
	var seen []string
	record := func(name string) types.Fetcher {
		return types.FetcherFunc(func(_ context.Context, key string) (any, error) {
			seen = append(seen, name+":"+key)
			return name, nil
		})
	}

	m := NewMux().
		Handle(record("file"), "", "file").
		Handle(record("http"), "http", "https")
	ctx := context.Background()

	v, err := m.Fetch(ctx, "./data/config.json")
	require.NoError(t, err)
	assert.Equal(t, "file", v)

	v, err = m.Fetch(ctx, "HTTPS://example.com/a.json")
	require.NoError(t, err)
	assert.Equal(t, "http", v)

	_, err = m.Fetch(ctx, "s3://bucket/key")
	assert.ErrorContains(t, err, `no fetcher for scheme "s3"`)

	assert.Equal(t, []string{"file:./data/config.json", "http:HTTPS://example.com/a.json"}, seen)
}
