package unity

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedLayout marks a field whose serialized form cannot be
// rewritten in place.
var ErrUnsupportedLayout = errors.New("unsupported serialized layout")

// AssetFile is a text-serialized Unity asset held in memory. Only the
// objects the tool understands are decoded; every other byte is kept
// verbatim and written back unchanged.
type AssetFile struct {
	// Path is the project-relative, slash-separated asset path.
	Path string
	// GUID is the asset GUID from its .meta file, when known.
	GUID string

	Materials   []*Material
	Renderers   []Renderer
	Prefabs     []PrefabInstance
	BuildScenes []BuildScene
	// Warnings lists objects that were skipped while parsing.
	Warnings []error

	absPath  string
	mode     fs.FileMode
	lines    []string
	newline  string
	trailing bool
}

// ParseAsset parses a text-serialized asset. path is recorded as the asset
// path and is not read.
func ParseAsset(path string, data []byte) (*AssetFile, error) {
	a := &AssetFile{
		Path:    filepath.ToSlash(path),
		mode:    0o644,
		newline: "\n",
	}
	if bytes.Contains(data, []byte("\r\n")) {
		a.newline = "\r\n"
	}

	text := string(data)
	if strings.HasSuffix(text, "\n") {
		a.trailing = true
		text = strings.TrimSuffix(text, "\n")
	}
	a.lines = strings.Split(text, "\n")
	if a.newline == "\r\n" {
		for i, line := range a.lines {
			a.lines[i] = strings.TrimSuffix(line, "\r")
		}
	}

	docs, err := splitDocuments(a.lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Path, err)
	}
	for _, d := range docs {
		if d.Stripped || !wanted(d.ClassID) {
			continue
		}
		if err := a.decode(d); err != nil {
			a.Warnings = append(a.Warnings, fmt.Errorf("%s: %w", a.Path, err))
		}
	}
	return a, nil
}

// LoadAsset reads and parses the asset at absPath, recording relPath as its
// asset path.
func LoadAsset(absPath, relPath string) (*AssetFile, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	a, err := ParseAsset(relPath, data)
	if err != nil {
		return nil, err
	}
	a.absPath = absPath
	a.mode = info.Mode().Perm()
	return a, nil
}

func wanted(classID int) bool {
	switch classID {
	case ClassMaterial, ClassPrefabInstance, ClassEditorBuildSettings:
		return true
	}
	return IsRendererClass(classID)
}

func (a *AssetFile) decode(d document) error {
	typeName, fields, err := d.parse(a.lines)
	if err != nil {
		return err
	}

	switch {
	case d.ClassID == ClassMaterial:
		m, err := decodeMaterial(a, d, fields)
		if err != nil {
			return err
		}
		a.Materials = append(a.Materials, m)
	case IsRendererClass(d.ClassID):
		r, err := decodeRenderer(d, typeName, fields)
		if err != nil {
			return err
		}
		a.Renderers = append(a.Renderers, r)
	case d.ClassID == ClassPrefabInstance:
		p, err := decodePrefabInstance(d, fields)
		if err != nil {
			return err
		}
		a.Prefabs = append(a.Prefabs, p)
	case d.ClassID == ClassEditorBuildSettings:
		a.BuildScenes = decodeBuildScenes(fields)
	}
	return nil
}

// Material returns the material with the given local fileID, or nil.
func (a *AssetFile) Material(fileID int64) *Material {
	for _, m := range a.Materials {
		if m.FileID == fileID {
			return m
		}
	}
	return nil
}

// Dirty reports whether any material in the file has an unsaved change.
func (a *AssetFile) Dirty() bool {
	for _, m := range a.Materials {
		if m.Dirty() {
			return true
		}
	}
	return false
}

// Bytes renders the file with pending changes applied.
func (a *AssetFile) Bytes() []byte {
	lines := make([]string, len(a.lines))
	copy(lines, a.lines)
	for _, m := range a.Materials {
		if m.Dirty() {
			lines[m.line] = m.renderShaderLine()
		}
	}

	var buf bytes.Buffer
	for i, line := range lines {
		buf.WriteString(line)
		if i < len(lines)-1 || a.trailing {
			buf.WriteString(a.newline)
		}
	}
	return buf.Bytes()
}

// Save writes pending changes back to disk. The file is replaced atomically
// and keeps its permissions.
func (a *AssetFile) Save() error {
	if a.absPath == "" {
		return fmt.Errorf("%s: asset was not loaded from disk", a.Path)
	}
	if !a.Dirty() {
		return nil
	}

	data := a.Bytes()
	dir := filepath.Dir(a.absPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(a.absPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", a.Path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: write: %w", a.Path, err)
	}
	if err := tmp.Chmod(a.mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: chmod: %w", a.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", a.Path, err)
	}
	if err := os.Rename(tmpName, a.absPath); err != nil {
		return fmt.Errorf("%s: rename: %w", a.Path, err)
	}

	for _, m := range a.Materials {
		if m.Dirty() {
			a.lines[m.line] = m.renderShaderLine()
			m.commit()
		}
	}
	return nil
}
