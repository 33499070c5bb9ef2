package unity

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotText is returned for assets that are not text-serialized YAML.
var ErrNotText = errors.New("asset is not text-serialized")

// Class IDs the tool reads. Every other document is skipped unparsed.
const (
	ClassMaterial               = 21
	ClassMeshRenderer           = 23
	ClassTrailRenderer          = 96
	ClassLineRenderer           = 120
	ClassSkinnedMeshRenderer    = 137
	ClassParticleSystemRenderer = 199
	ClassSpriteRenderer         = 212
	ClassPrefabInstance         = 1001
	ClassEditorBuildSettings    = 1045
)

var rendererClasses = map[int]bool{
	ClassMeshRenderer:           true,
	ClassTrailRenderer:          true,
	ClassLineRenderer:           true,
	ClassSkinnedMeshRenderer:    true,
	ClassParticleSystemRenderer: true,
	ClassSpriteRenderer:         true,
}

// IsRendererClass reports whether classID is a renderer with material slots.
func IsRendererClass(classID int) bool {
	return rendererClasses[classID]
}

var headerRe = regexp.MustCompile(`^--- !u!(\d+) &(-?\d+)(?: (stripped))?\s*$`)

// document is one "--- !u!<class> &<fileID>" section of an asset.
type document struct {
	ClassID  int
	FileID   int64
	Stripped bool
	// body is the half-open line range [start, end) after the header.
	start, end int
}

// splitDocuments finds document boundaries in a text-serialized asset.
func splitDocuments(lines []string) ([]document, error) {
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "%YAML") {
		return nil, ErrNotText
	}

	var docs []document
	for i, line := range lines {
		if !strings.HasPrefix(line, "---") {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: malformed document header %q", i+1, line)
		}
		classID, _ := strconv.Atoi(m[1])
		fileID, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: fileID: %w", i+1, err)
		}
		if n := len(docs); n > 0 {
			docs[n-1].end = i
		}
		docs = append(docs, document{
			ClassID:  classID,
			FileID:   fileID,
			Stripped: m[3] != "",
			start:    i + 1,
			end:      len(lines),
		})
	}
	return docs, nil
}

// parse decodes the document body and returns the type name and the
// object's field mapping. Node lines are relative to d.start.
func (d document) parse(lines []string) (string, *yaml.Node, error) {
	var buf bytes.Buffer
	for _, line := range lines[d.start:d.end] {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	var root yaml.Node
	if err := yaml.Unmarshal(buf.Bytes(), &root); err != nil {
		return "", nil, fmt.Errorf("document &%d: %w", d.FileID, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return "", nil, fmt.Errorf("document &%d: empty body", d.FileID)
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode || len(top.Content) < 2 {
		return "", nil, fmt.Errorf("document &%d: expected single object mapping", d.FileID)
	}
	fields := top.Content[1]
	if fields.Kind != yaml.MappingNode {
		return "", nil, fmt.Errorf("document &%d: %s is not a mapping", d.FileID, top.Content[0].Value)
	}
	return top.Content[0].Value, fields, nil
}

// lineOf converts a body-relative yaml line to an index into the file lines.
func (d document) lineOf(n *yaml.Node) int {
	return d.start + n.Line - 1
}

// field returns the key and value nodes for key in mapping m.
func field(m *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i], m.Content[i+1]
		}
	}
	return nil, nil
}

// fieldValue returns the scalar value of key in mapping m.
func fieldValue(m *yaml.Node, key string) string {
	_, v := field(m, key)
	if v == nil {
		return ""
	}
	return v.Value
}
