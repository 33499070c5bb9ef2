package unity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/lex00/shaderswap-go/discover"
)

var (
	// ErrNotProject is returned when a directory has no Assets folder.
	ErrNotProject = errors.New("not a unity project")
	// ErrUnresolved is returned when a reference points at nothing loadable.
	ErrUnresolved = errors.New("unresolved reference")
)

// PackageCacheDir holds registry packages Unity unpacks and regenerates.
// Its assets are indexed so references resolve, but are never rewritten.
const PackageCacheDir = "Library/PackageCache"

// Project-relative roots scanned for .meta files.
var assetRoots = []string{"Assets", "Packages", PackageCacheDir}

// typeFilter selects asset extensions. Only shader lookups reach into the
// package cache.
type typeFilter struct {
	exts   []string
	cached bool
}

// Type filters accepted by FindAssets.
var typeFilters = map[string]typeFilter{
	"t:material": {exts: []string{".mat"}},
	"t:shader":   {exts: []string{".shader", ".shadergraph"}, cached: true},
	"t:prefab":   {exts: []string{".prefab"}},
	"t:scene":    {exts: []string{".unity"}},
}

// AssetDatabase indexes a Unity project on disk. It maps GUIDs to asset
// paths and caches loaded assets so each object has one in-memory instance.
type AssetDatabase struct {
	root    string
	walk    discover.WalkOptions
	logger  *slog.Logger
	workers int

	mu      sync.Mutex
	indexed bool
	byGUID  map[string]string
	byPath  map[string]string
	assets  map[string]*AssetFile
}

// Option configures an AssetDatabase.
type Option func(*AssetDatabase)

// WithLogger sets the logger used for skipped files and objects.
func WithLogger(logger *slog.Logger) Option {
	return func(db *AssetDatabase) {
		db.logger = logger
	}
}

// WithExcludeDirs skips directories with these names while indexing.
func WithExcludeDirs(dirs ...string) Option {
	return func(db *AssetDatabase) {
		db.walk.ExcludeDirs = append(db.walk.ExcludeDirs, dirs...)
	}
}

// WithWorkers bounds the number of .meta files parsed concurrently.
func WithWorkers(n int) Option {
	return func(db *AssetDatabase) {
		if n > 0 {
			db.workers = n
		}
	}
}

// Open returns a database for the project at root. root must contain an
// Assets directory. The index is built lazily or by calling Index.
func Open(root string, opts ...Option) (*AssetDatabase, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}
	info, err := os.Stat(filepath.Join(abs, "Assets"))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotProject)
	}

	db := &AssetDatabase{
		root:    abs,
		walk:    discover.DefaultWalkOptions(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: runtime.GOMAXPROCS(0),
		byGUID:  make(map[string]string),
		byPath:  make(map[string]string),
		assets:  make(map[string]*AssetFile),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Root returns the absolute project directory.
func (db *AssetDatabase) Root() string {
	return db.root
}

// Rel converts p to a project-relative, slash-separated asset path.
// Relative paths are tried against the project root first and the working
// directory second.
func (db *AssetDatabase) Rel(p string) (string, error) {
	if !filepath.IsAbs(p) {
		if joined := filepath.Join(db.root, p); exists(joined) {
			p = joined
		} else {
			abs, err := filepath.Abs(p)
			if err != nil {
				return "", err
			}
			p = abs
		}
	}
	rel, err := filepath.Rel(db.root, p)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside project %s", p, db.root)
	}
	return filepath.ToSlash(rel), nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// InPackageCache reports whether a project-relative path lies in the
// read-only package cache.
func InPackageCache(rel string) bool {
	return strings.HasPrefix(rel, PackageCacheDir+"/")
}

// Abs converts a project-relative asset path to an absolute file path.
func (db *AssetDatabase) Abs(rel string) string {
	return filepath.Join(db.root, filepath.FromSlash(rel))
}

type metaEntry struct {
	path string
	guid string
}

// Index scans the asset roots for .meta files and records every GUID.
// Unreadable metas are logged and skipped.
func (db *AssetDatabase) Index(ctx context.Context) error {
	var metas []string
	for _, dir := range assetRoots {
		abs := filepath.Join(db.root, dir)
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		found, err := discover.CollectFiles(abs, db.walk.WithExtensions(MetaExt))
		if err != nil {
			return fmt.Errorf("index %s: %w", dir, err)
		}
		metas = append(metas, found...)
	}

	p := pool.NewWithResults[metaEntry]().WithContext(ctx).WithMaxGoroutines(db.workers)
	for _, metaPath := range metas {
		p.Go(func(ctx context.Context) (metaEntry, error) {
			if err := ctx.Err(); err != nil {
				return metaEntry{}, err
			}
			rel, err := db.Rel(strings.TrimSuffix(metaPath, MetaExt))
			if err != nil {
				return metaEntry{}, err
			}
			guid, err := ReadMetaGUID(metaPath)
			if err != nil {
				db.logger.Warn("skipping unreadable meta", "path", rel, "error", err)
				return metaEntry{path: rel}, nil
			}
			return metaEntry{path: rel, guid: guid}, nil
		})
	}
	entries, err := p.Wait()
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	db.mu.Lock()
	defer db.mu.Unlock()
	db.byGUID = make(map[string]string, len(entries))
	db.byPath = make(map[string]string, len(entries))
	for _, e := range entries {
		if e.guid == "" {
			continue
		}
		if prev, dup := db.byGUID[e.guid]; dup {
			db.logger.Warn("duplicate guid", "guid", e.guid, "kept", prev, "ignored", e.path)
			continue
		}
		db.byGUID[e.guid] = e.path
		db.byPath[e.path] = e.guid
	}
	for p, a := range db.assets {
		a.GUID = db.byPath[p]
	}
	db.indexed = true
	db.logger.Debug("indexed project", "root", db.root, "assets", len(db.byGUID))
	return nil
}

// EnsureIndexed builds the index unless it already exists.
func (db *AssetDatabase) EnsureIndexed(ctx context.Context) error {
	db.mu.Lock()
	done := db.indexed
	db.mu.Unlock()
	if done {
		return nil
	}
	return db.Index(ctx)
}

// GUIDToAssetPath returns the asset path registered for guid.
func (db *AssetDatabase) GUIDToAssetPath(guid string) (string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.byGUID[strings.ToLower(guid)]
	return p, ok
}

// AssetPathToGUID returns the GUID registered for an asset path.
func (db *AssetDatabase) AssetPathToGUID(assetPath string) (string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	g, ok := db.byPath[assetPath]
	return g, ok
}

// FindAssets returns the indexed asset paths matching a type filter such as
// "t:Material", sorted.
func (db *AssetDatabase) FindAssets(ctx context.Context, filter string) ([]string, error) {
	tf, ok := typeFilters[strings.ToLower(strings.TrimSpace(filter))]
	if !ok {
		return nil, fmt.Errorf("unsupported asset filter %q", filter)
	}
	if err := db.EnsureIndexed(ctx); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	var found []string
	for p := range db.byPath {
		if !tf.cached && InPackageCache(p) {
			continue
		}
		ext := strings.ToLower(path.Ext(p))
		for _, want := range tf.exts {
			if ext == want {
				found = append(found, p)
				break
			}
		}
	}
	sort.Strings(found)
	return found, nil
}

// LoadAsset returns the parsed asset at a project-relative path, loading it
// on first use.
func (db *AssetDatabase) LoadAsset(assetPath string) (*AssetFile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if a, ok := db.assets[assetPath]; ok {
		return a, nil
	}
	a, err := LoadAsset(db.Abs(assetPath), assetPath)
	if err != nil {
		return nil, err
	}
	a.GUID = db.byPath[assetPath]
	for _, w := range a.Warnings {
		db.logger.Warn("skipped object", "error", w)
	}
	db.assets[assetPath] = a
	return a, nil
}

// ResolveAsset loads the asset a reference points into. Local references
// resolve to from.
func (db *AssetDatabase) ResolveAsset(ref ObjectRef, from *AssetFile) (*AssetFile, error) {
	if ref.IsNull() {
		return nil, fmt.Errorf("null reference: %w", ErrUnresolved)
	}
	if ref.IsLocal() {
		if from == nil {
			return nil, fmt.Errorf("local reference %s without owner: %w", ref, ErrUnresolved)
		}
		return from, nil
	}
	p, ok := db.GUIDToAssetPath(ref.GUID)
	if !ok {
		return nil, fmt.Errorf("guid %s: %w", ref.GUID, ErrUnresolved)
	}
	return db.LoadAsset(p)
}

// ResolveMaterial returns the material a reference points at. Materials in
// the package cache do not resolve.
func (db *AssetDatabase) ResolveMaterial(ref ObjectRef, from *AssetFile) (*Material, error) {
	a, err := db.ResolveAsset(ref, from)
	if err != nil {
		return nil, err
	}
	if InPackageCache(a.Path) {
		return nil, fmt.Errorf("%s is a read-only package asset: %w", a.Path, ErrUnresolved)
	}
	m := a.Material(ref.FileID)
	if m == nil {
		return nil, fmt.Errorf("%s has no material &%d: %w", a.Path, ref.FileID, ErrUnresolved)
	}
	return m, nil
}

// DirtyAssets returns every loaded asset with unsaved changes, sorted by path.
func (db *AssetDatabase) DirtyAssets() []*AssetFile {
	db.mu.Lock()
	defer db.mu.Unlock()
	var dirty []*AssetFile
	for _, a := range db.assets {
		if a.Dirty() {
			dirty = append(dirty, a)
		}
	}
	sort.Slice(dirty, func(i, j int) bool { return dirty[i].Path < dirty[j].Path })
	return dirty
}

// SaveDirty writes every modified asset and returns the paths written.
// It keeps going after a failure and reports all failures together.
func (db *AssetDatabase) SaveDirty() ([]string, error) {
	var (
		written []string
		errs    []error
	)
	for _, a := range db.DirtyAssets() {
		if err := a.Save(); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, a.Path)
		db.logger.Debug("saved asset", "path", a.Path)
	}
	return written, errors.Join(errs...)
}

// BuildSettingsPath is the project-relative location of the build settings.
const BuildSettingsPath = "ProjectSettings/EditorBuildSettings.asset"

// BuildScenes returns the scenes listed in the build settings. A project
// without build settings has none.
func (db *AssetDatabase) BuildScenes() ([]BuildScene, error) {
	if _, err := os.Stat(db.Abs(BuildSettingsPath)); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	a, err := db.LoadAsset(BuildSettingsPath)
	if err != nil {
		return nil, err
	}
	return a.BuildScenes, nil
}
