package site

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/apex/log"

	"github.com/krisalay/fetchcache/api"
	"github.com/krisalay/fetchcache/snapshot"
	"github.com/krisalay/fetchcache/types"
)

// Document paths, relative to the loader's base.
const (
	ConfigPath  = "data/config.json"
	ContentPath = "data/content.json"
	TeamPath    = "data/team.json"
)

var (
	requiredConfigFields   = []string{"siteName", "version"}
	requiredContentSection = []string{"hero", "research", "downloads"}
)

/*
Loader fetches the site documents through a cache it is handed. It holds
no global state; build one per page or process and pass it to whatever
renders.
*/
type Loader struct {
	Cache api.Cache

	// Base is a directory, an http(s) URL or an s3:// prefix.
	Base string

	// Snapshots is out-of-band storage for documents. NewLoader starts
	// with an in-memory store; nil disables snapshots.
	Snapshots types.SnapshotStore

	Logger log.Interface
}

func NewLoader(cache api.Cache, base string) *Loader {
	return &Loader{
		Cache:     cache,
		Base:      base,
		Snapshots: snapshot.NewMemoryStore(),
		Logger:    log.Log,
	}
}

// Key resolves rel against Base.
func (l *Loader) Key(rel string) string {
	if l.Base == "" {
		return rel
	}
	if u, err := url.Parse(l.Base); err == nil && u.Scheme != "" && u.Scheme != "file" {
		return u.JoinPath(rel).String()
	}
	return path.Join(strings.TrimPrefix(l.Base, "file://"), rel)
}

func (l *Loader) object(ctx context.Context, rel string) (map[string]any, error) {
	v, err := l.Cache.Get(ctx, l.Key(rel))
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a JSON object, got %T", rel, v)
	}
	return m, nil
}

/*
LoadConfig loads the site config. Missing required fields are only
logged. When the document can't be loaded, the error is returned together
with DefaultConfig so the caller can carry on.
*/
func (l *Loader) LoadConfig(ctx context.Context) (SiteConfig, error) {
	m, err := l.object(ctx, ConfigPath)
	if err != nil {
		l.Logger.WithError(err).Error("failed to load configuration")
		return DefaultConfig(), err
	}

	var missing []string
	for _, f := range requiredConfigFields {
		if !truthy(m[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		l.Logger.WithField("fields", missing).Warn("missing required config fields")
	}

	return SiteConfig{
		SiteName: str(m, "siteName"),
		Version:  str(m, "version"),
		Theme:    str(m, "theme"),
		Raw:      m,
	}, nil
}

/*
LoadContent loads the page content. Structural problems are logged, not
fatal. When the document can't be loaded, the error is returned together
with DefaultContent.
*/
func (l *Loader) LoadContent(ctx context.Context) (Content, error) {
	m, err := l.object(ctx, ContentPath)
	if err != nil {
		l.Logger.WithError(err).Error("failed to load content")
		return DefaultContent(), err
	}

	l.validateContent(m)

	var c Content
	if h, ok := m["hero"].(map[string]any); ok {
		c.Hero = &Hero{Title: str(h, "title"), Description: str(h, "description")}
	}
	c.Research = section(m["research"])
	c.Downloads = section(m["downloads"])
	return c, nil
}

func (l *Loader) validateContent(m map[string]any) {
	var missing []string
	for _, s := range requiredContentSection {
		if !truthy(m[s]) {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		l.Logger.WithField("sections", missing).Warn("missing content sections")
	}

	if truthy(m["hero"]) {
		h, _ := m["hero"].(map[string]any)
		if !truthy(h["title"]) || !truthy(h["description"]) {
			l.Logger.Warn("hero section missing title or description")
		}
	}

	if truthy(m["research"]) {
		r, _ := m["research"].(map[string]any)
		if _, ok := r["items"].([]any); !ok {
			l.Logger.Warn("research section should have an items array")
		}
	}
}

// LoadTeam loads the team roster, dropping members without a name or a
// role. On failure it returns the error with an empty roster.
func (l *Loader) LoadTeam(ctx context.Context) (Team, error) {
	m, err := l.object(ctx, TeamPath)
	if err != nil {
		l.Logger.WithError(err).Error("failed to load team data")
		return DefaultTeam(), err
	}

	team := DefaultTeam()
	members, _ := m["members"].([]any)
	for _, raw := range members {
		mm, ok := raw.(map[string]any)
		if !ok || !truthy(mm["name"]) || !truthy(mm["role"]) {
			continue
		}
		team.Members = append(team.Members, Member{
			Name: fmt.Sprint(mm["name"]),
			Role: fmt.Sprint(mm["role"]),
			Raw:  mm,
		})
	}
	if dropped := len(members) - len(team.Members); dropped > 0 {
		l.Logger.WithField("dropped", dropped).Warn("team members without name or role")
	}
	return team, nil
}

// PreloadAll warms the cache with every site document. Documents that
// fail to load map to nil.
func (l *Loader) PreloadAll(ctx context.Context) map[string]any {
	l.Logger.Debug("preloading all data files")
	all := l.Cache.GetMany(ctx, map[string]string{
		"config":  l.Key(ConfigPath),
		"content": l.Key(ContentPath),
		"team":    l.Key(TeamPath),
	})
	l.Logger.WithField("stats", l.Cache.Stats()).Debug("preload finished")
	return all
}

// SaveSnapshot stores value under key in the snapshot store.
func (l *Loader) SaveSnapshot(ctx context.Context, key string, value any) error {
	if l.Snapshots == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	if err := l.Snapshots.Save(ctx, key, value); err != nil {
		return err
	}
	l.Logger.WithField("key", key).Info("snapshot saved")
	return nil
}

// LoadSnapshot reads key back from the snapshot store. A missing snapshot
// is (nil, false, nil).
func (l *Loader) LoadSnapshot(ctx context.Context, key string) (any, bool, error) {
	if l.Snapshots == nil {
		return nil, false, fmt.Errorf("no snapshot store configured")
	}
	return l.Snapshots.Load(ctx, key)
}
