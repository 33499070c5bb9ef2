package unity

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Material is a material object inside an asset. It is the resource the
// rewriter mutates; its one attribute is the shader reference.
type Material struct {
	FileID int64
	Name   string

	asset    *AssetFile
	shader   *ObjectRef
	original *ObjectRef
	// line is the index of the m_Shader line; indent is its leading text.
	line   int
	indent string
}

func decodeMaterial(a *AssetFile, d document, fields *yaml.Node) (*Material, error) {
	key, val := field(fields, "m_Shader")
	if key == nil {
		return nil, fmt.Errorf("material &%d: no m_Shader field", d.FileID)
	}
	if val.Kind != yaml.MappingNode || val.Style&yaml.FlowStyle == 0 || val.Line != key.Line {
		return nil, fmt.Errorf("material &%d: m_Shader: %w", d.FileID, ErrUnsupportedLayout)
	}

	line := d.lineOf(key)
	text := a.lines[line]
	if !strings.HasSuffix(strings.TrimSpace(text), "}") {
		return nil, fmt.Errorf("material &%d: m_Shader spans lines: %w", d.FileID, ErrUnsupportedLayout)
	}

	ref, err := RefFromNode(val)
	if err != nil {
		return nil, fmt.Errorf("material &%d: m_Shader: %w", d.FileID, err)
	}

	m := &Material{
		FileID: d.FileID,
		Name:   fieldValue(fields, "m_Name"),
		asset:  a,
		line:   line,
		indent: text[:key.Column-1],
	}
	if !ref.IsNull() {
		m.shader = &ref
		orig := ref
		m.original = &orig
	}
	return m, nil
}

// ID returns the material identity, "guid:fileID" when the asset GUID is
// known and "path#fileID" otherwise.
func (m *Material) ID() string {
	if m.asset.GUID != "" {
		return ObjectRef{FileID: m.FileID, GUID: m.asset.GUID}.Key()
	}
	return m.asset.Path + "#" + strconv.FormatInt(m.FileID, 10)
}

// Attribute returns the current shader reference, or nil for none.
func (m *Material) Attribute() *ObjectRef {
	if m.shader == nil {
		return nil
	}
	ref := *m.shader
	return &ref
}

// SetAttribute replaces the shader reference in memory. A nil or null
// reference clears it. The change reaches disk on AssetFile.Save.
func (m *Material) SetAttribute(v *ObjectRef) {
	if v == nil || v.IsNull() {
		m.shader = nil
		return
	}
	ref := *v
	m.shader = &ref
}

// Asset returns the file containing the material.
func (m *Material) Asset() *AssetFile {
	return m.asset
}

// Path returns the project-relative path of the containing asset.
func (m *Material) Path() string {
	return m.asset.Path
}

// Dirty reports whether the shader differs from what is on disk.
func (m *Material) Dirty() bool {
	switch {
	case m.shader == nil && m.original == nil:
		return false
	case m.shader == nil || m.original == nil:
		return true
	default:
		return *m.shader != *m.original
	}
}

func (m *Material) renderShaderLine() string {
	ref := ObjectRef{}
	if m.shader != nil {
		ref = *m.shader
	}
	return m.indent + "m_Shader: " + ref.String()
}

func (m *Material) commit() {
	if m.shader == nil {
		m.original = nil
		return
	}
	ref := *m.shader
	m.original = &ref
}
