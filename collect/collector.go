// Package collect supplies rewrite candidates from a Unity project on disk.
//
// The three scopes map onto project files as follows:
//
//   - selection: the paths the user named. Prefabs and scenes contribute the
//     materials in their renderer slots, material files contribute their
//     materials directly.
//   - scene: the renderer materials of every scene treated as loaded, either
//     the configured scenes or the enabled scenes in the build settings.
//   - project: every material in every asset the index filter matches.
//
// References that cannot be resolved are logged and skipped.
package collect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/lex00/shaderswap-go/rewrite"
	"github.com/lex00/shaderswap-go/unity"
)

// Collector implements rewrite.Collector over an AssetDatabase.
type Collector struct {
	db        *unity.AssetDatabase
	selection []string
	scenes    []string
	logger    *slog.Logger
}

var _ rewrite.Collector[unity.ObjectRef] = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithSelection sets the selected asset paths. Paths may be absolute or
// relative to the project root.
func WithSelection(paths ...string) Option {
	return func(c *Collector) {
		c.selection = append(c.selection, paths...)
	}
}

// WithScenes sets the scenes treated as loaded. Without scenes the enabled
// build-settings scenes are used.
func WithScenes(paths ...string) Option {
	return func(c *Collector) {
		c.scenes = append(c.scenes, paths...)
	}
}

// WithLogger sets the logger for skipped entries and references.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// New returns a Collector reading from db.
func New(db *unity.AssetDatabase, opts ...Option) *Collector {
	c := &Collector{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectionLen returns the number of selected paths.
func (c *Collector) SelectionLen() int {
	return len(c.selection)
}

// CollectFromSelection returns the renderer materials of selected prefabs
// and scenes followed by the materials of selected material assets.
func (c *Collector) CollectFromSelection(ctx context.Context) ([]rewrite.Resource[unity.ObjectRef], error) {
	if err := c.db.EnsureIndexed(ctx); err != nil {
		return nil, err
	}

	w := c.newWalker()
	var direct []rewrite.Resource[unity.ObjectRef]
	for _, entry := range c.selection {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := c.db.Rel(entry)
		if err != nil {
			c.logger.Warn("ignoring selection outside project", "path", entry, "error", err)
			continue
		}
		if unity.InPackageCache(rel) {
			c.logger.Warn("ignoring selection in package cache", "path", rel)
			continue
		}

		switch strings.ToLower(path.Ext(rel)) {
		case ".prefab", ".unity":
			if a := c.load(rel); a != nil {
				w.walk(a, nil, nil)
			}
		case ".mat", ".asset":
			if a := c.load(rel); a != nil {
				direct = appendMaterials(direct, a)
			}
		default:
			c.logger.Warn("ignoring selection entry", "path", rel, "reason", "not a material, prefab or scene")
		}
	}
	return append(w.found, direct...), nil
}

// CollectFromLoadedScene returns the renderer materials of every loaded
// scene in scene order.
func (c *Collector) CollectFromLoadedScene(ctx context.Context) ([]rewrite.Resource[unity.ObjectRef], error) {
	if err := c.db.EnsureIndexed(ctx); err != nil {
		return nil, err
	}
	scenes, err := c.loadedScenes()
	if err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		c.logger.Info("no scenes loaded", "hint", "pass --scene or enable scenes in build settings")
	}

	w := c.newWalker()
	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a := c.load(scene); a != nil {
			w.walk(a, nil, nil)
		}
	}
	return w.found, nil
}

// CollectFromProjectIndex returns every material held by the assets the
// index matches for typeFilter.
func (c *Collector) CollectFromProjectIndex(ctx context.Context, typeFilter string) ([]rewrite.Resource[unity.ObjectRef], error) {
	paths, err := c.db.FindAssets(ctx, typeFilter)
	if err != nil {
		return nil, err
	}

	var found []rewrite.Resource[unity.ObjectRef]
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a := c.load(p); a != nil {
			found = appendMaterials(found, a)
		}
	}
	c.logger.Debug("collected project materials", "filter", typeFilter, "assets", len(paths), "materials", len(found))
	return found, nil
}

func (c *Collector) loadedScenes() ([]string, error) {
	if len(c.scenes) > 0 {
		scenes := make([]string, 0, len(c.scenes))
		for _, s := range c.scenes {
			rel, err := c.db.Rel(s)
			if err != nil {
				c.logger.Warn("ignoring scene outside project", "path", s, "error", err)
				continue
			}
			scenes = append(scenes, rel)
		}
		return scenes, nil
	}

	build, err := c.db.BuildScenes()
	if err != nil {
		return nil, fmt.Errorf("read build settings: %w", err)
	}
	var scenes []string
	for _, s := range build {
		if s.Enabled {
			scenes = append(scenes, s.Path)
		}
	}
	return scenes, nil
}

// load returns the asset at rel, or nil after logging why it was skipped.
func (c *Collector) load(rel string) *unity.AssetFile {
	a, err := c.db.LoadAsset(rel)
	if err != nil {
		c.logger.Debug("skipping asset", "path", rel, "error", err)
		return nil
	}
	return a
}

func appendMaterials(dst []rewrite.Resource[unity.ObjectRef], a *unity.AssetFile) []rewrite.Resource[unity.ObjectRef] {
	for _, m := range a.Materials {
		dst = append(dst, m)
	}
	return dst
}
