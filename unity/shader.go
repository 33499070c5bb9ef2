package unity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

var (
	// ErrUnknownShader is returned when a shader cannot be found.
	ErrUnknownShader = errors.New("unknown shader")
	// ErrAmbiguousShader is returned when a name matches several shaders.
	ErrAmbiguousShader = errors.New("ambiguous shader")
)

// BuiltinGUID is the GUID of Unity's built-in extra resources.
const BuiltinGUID = "0000000000000000f000000000000000"

// Local file IDs of shader objects inside their importer output.
const (
	shaderFileID      = 4800000
	shaderGraphFileID = -6465566751694194690
)

// Shader describes one shader known to the index.
type Shader struct {
	Name string
	// Path is empty for built-in shaders.
	Path string
	Ref  ObjectRef
}

var builtinShaders = []Shader{
	{Name: "Standard", Ref: ObjectRef{FileID: 46, GUID: BuiltinGUID}},
	{Name: "Standard (Specular setup)", Ref: ObjectRef{FileID: 45, GUID: BuiltinGUID}},
	{Name: "Unlit/Texture", Ref: ObjectRef{FileID: 10752, GUID: BuiltinGUID}},
	{Name: "Unlit/Color", Ref: ObjectRef{FileID: 10755, GUID: BuiltinGUID}},
	{Name: "Sprites/Default", Ref: ObjectRef{FileID: 10753, GUID: BuiltinGUID}},
	{Name: "UI/Default", Ref: ObjectRef{FileID: 10770, GUID: BuiltinGUID}},
}

var (
	shaderDeclRe = regexp.MustCompile(`(?m)^\s*Shader\s+"([^"]+)"`)
	guidRe       = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	guidFileRe   = regexp.MustCompile(`^([0-9a-fA-F]{32}):(-?\d+)$`)
)

// ShaderIndex resolves user-supplied shader names and references.
type ShaderIndex struct {
	shaders []Shader
	byName  map[string][]int
	byKey   map[string]int
}

// NewShaderIndex returns an index holding the built-in shaders and extra.
func NewShaderIndex(extra ...Shader) *ShaderIndex {
	ix := &ShaderIndex{
		byName: make(map[string][]int),
		byKey:  make(map[string]int),
	}
	for _, s := range builtinShaders {
		ix.Add(s)
	}
	for _, s := range extra {
		ix.Add(s)
	}
	return ix
}

// Add registers a shader.
func (ix *ShaderIndex) Add(s Shader) {
	ix.shaders = append(ix.shaders, s)
	i := len(ix.shaders) - 1
	ix.byName[s.Name] = append(ix.byName[s.Name], i)
	ix.byKey[s.Ref.Key()] = i
}

// BuildShaderIndex indexes every shader asset in the project.
func BuildShaderIndex(ctx context.Context, db *AssetDatabase) (*ShaderIndex, error) {
	paths, err := db.FindAssets(ctx, "t:Shader")
	if err != nil {
		return nil, err
	}

	ix := NewShaderIndex()
	for _, p := range paths {
		guid, ok := db.AssetPathToGUID(p)
		if !ok {
			continue
		}
		data, err := os.ReadFile(db.Abs(p))
		if err != nil {
			db.logger.Warn("skipping unreadable shader", "path", p, "error", err)
			continue
		}

		var s Shader
		switch strings.ToLower(path.Ext(p)) {
		case ".shader":
			name, ok := ParseShaderName(data)
			if !ok {
				db.logger.Debug("shader has no name declaration", "path", p)
				continue
			}
			s = Shader{Name: name, Path: p, Ref: ObjectRef{FileID: shaderFileID, GUID: guid, Type: RefTypeImported}}
		case ".shadergraph":
			s = Shader{Name: ShaderGraphName(p, data), Path: p, Ref: ObjectRef{FileID: shaderGraphFileID, GUID: guid, Type: RefTypeImported}}
		default:
			continue
		}
		ix.Add(s)
	}
	return ix, nil
}

// ParseShaderName extracts the name from a ShaderLab `Shader "Name"` block.
func ParseShaderName(src []byte) (string, bool) {
	m := shaderDeclRe.FindSubmatch(src)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// ShaderGraphName returns the shader name a graph asset compiles to:
// the graph's path setting joined with the file name.
func ShaderGraphName(assetPath string, data []byte) string {
	base := strings.TrimSuffix(path.Base(assetPath), path.Ext(assetPath))

	var graph struct {
		Path string `json:"m_Path"`
	}
	dir := "Shader Graphs"
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&graph); err == nil && graph.Path != "" {
		dir = graph.Path
	}
	return dir + "/" + base
}

// Resolve turns user input into a shader reference. Accepted forms are a
// shader name, a 32-digit GUID, "guid:fileID" and a flow mapping such as
// "{fileID: 46, guid: ..., type: 0}". Empty input means no shader and
// resolves to nil.
func (ix *ShaderIndex) Resolve(s string) (*ObjectRef, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, nil
	case strings.HasPrefix(s, "{"):
		ref, err := ParseObjectRef(s)
		if err != nil {
			return nil, err
		}
		if ref.IsNull() {
			return nil, nil
		}
		return &ref, nil
	case guidFileRe.MatchString(s):
		m := guidFileRe.FindStringSubmatch(s)
		fileID, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("shader %q: %w", s, err)
		}
		ref := ObjectRef{FileID: fileID, GUID: strings.ToLower(m[1]), Type: RefTypeImported}
		if i, ok := ix.byKey[ref.Key()]; ok {
			ref = ix.shaders[i].Ref
		} else if ref.GUID == BuiltinGUID {
			ref.Type = RefTypeBuiltin
		}
		return &ref, nil
	case guidRe.MatchString(s):
		return ix.resolveGUID(strings.ToLower(s))
	default:
		return ix.resolveName(s)
	}
}

func (ix *ShaderIndex) resolveGUID(guid string) (*ObjectRef, error) {
	var found []Shader
	for _, sh := range ix.shaders {
		if sh.Ref.GUID == guid {
			found = append(found, sh)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("guid %s: %w", guid, ErrUnknownShader)
	case 1:
		ref := found[0].Ref
		return &ref, nil
	default:
		return nil, fmt.Errorf("guid %s names %d shaders, use guid:fileID: %w", guid, len(found), ErrAmbiguousShader)
	}
}

func (ix *ShaderIndex) resolveName(name string) (*ObjectRef, error) {
	idx := ix.byName[name]
	if len(idx) == 0 {
		for n, i := range ix.byName {
			if strings.EqualFold(n, name) {
				idx = append(idx, i...)
			}
		}
	}
	switch len(idx) {
	case 0:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownShader)
	case 1:
		ref := ix.shaders[idx[0]].Ref
		return &ref, nil
	default:
		paths := make([]string, 0, len(idx))
		for _, i := range idx {
			paths = append(paths, ix.shaders[i].Path)
		}
		sort.Strings(paths)
		return nil, fmt.Errorf("%q is declared by %s: %w", name, strings.Join(paths, ", "), ErrAmbiguousShader)
	}
}

// Name returns a display name for a shader reference.
func (ix *ShaderIndex) Name(ref *ObjectRef) string {
	if ref == nil || ref.IsNull() {
		return "None"
	}
	if i, ok := ix.byKey[ref.Key()]; ok {
		return ix.shaders[i].Name
	}
	return ref.String()
}

// Shaders returns every indexed shader sorted by name then path.
func (ix *ShaderIndex) Shaders() []Shader {
	out := make([]Shader, len(ix.shaders))
	copy(out, ix.shaders)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}
