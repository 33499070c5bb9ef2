package collect

import (
	"github.com/lex00/shaderswap-go/rewrite"
	"github.com/lex00/shaderswap-go/unity"
)

// walker gathers the materials referenced by renderers, following prefab
// instances into their source prefabs.
type walker struct {
	c *Collector
	// active holds the assets on the current instance chain.
	active map[string]bool
	found  []rewrite.Resource[unity.ObjectRef]
}

func (c *Collector) newWalker() *walker {
	return &walker{c: c, active: make(map[string]bool)}
}

// walk adds the renderer materials of a. overrides come from the prefab
// instance that placed a, and owner is the asset holding that instance.
func (w *walker) walk(a *unity.AssetFile, overrides []unity.MaterialOverride, owner *unity.AssetFile) {
	if w.active[a.Path] {
		w.c.logger.Debug("skipping recursive prefab", "path", a.Path)
		return
	}
	w.active[a.Path] = true
	defer delete(w.active, a.Path)

	applied := make([]bool, len(overrides))
	for _, r := range a.Renderers {
		for slot, ref := range r.Materials {
			from := a
			for i, o := range overrides {
				if o.Target.FileID == r.FileID && o.Slot == slot {
					ref, from = o.Material, owner
					applied[i] = true
				}
			}
			w.add(ref, from)
		}
	}

	// Overrides aimed at objects of nested prefabs still name a material
	// the instance renders with.
	for i, o := range overrides {
		if !applied[i] {
			w.add(o.Material, owner)
		}
	}

	for _, p := range a.Prefabs {
		src, err := w.c.db.ResolveAsset(p.Source, a)
		if err != nil {
			w.c.logger.Debug("skipping prefab instance", "path", a.Path, "fileID", p.FileID, "error", err)
			continue
		}
		w.walk(src, p.Overrides, a)
	}
}

func (w *walker) add(ref unity.ObjectRef, from *unity.AssetFile) {
	if ref.IsNull() {
		return
	}
	m, err := w.c.db.ResolveMaterial(ref, from)
	if err != nil {
		w.c.logger.Debug("skipping material reference", "ref", ref.String(), "error", err)
		return
	}
	w.found = append(w.found, m)
}
