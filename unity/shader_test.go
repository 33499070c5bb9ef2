package unity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tp "github.com/lex00/shaderswap-go/internal/testproject"
)

func TestParseShaderName(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		want   string
		wantOK bool
	}{
		{name: "plain", src: tp.ShaderSource("Custom/Toon"), want: "Custom/Toon", wantOK: true},
		{name: "leading comment", src: "// toon\n  Shader \"Hidden/Outline\" {\n}\n", want: "Hidden/Outline", wantOK: true},
		{name: "no declaration", src: "CGINCLUDE\nENDCG\n"},
		{name: "mid-line mention", src: "// uses Shader \"Other\"\n", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseShaderName([]byte(tt.src))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShaderGraphName(t *testing.T) {
	assert.Equal(t, "Shader Graphs/Water",
		ShaderGraphName("Assets/Water.shadergraph", []byte(`{"m_SGVersion": 3, "m_Type": "UnityEditor.ShaderGraph.GraphData"}`)))
	assert.Equal(t, "FX/Lava",
		ShaderGraphName("Assets/Lava.shadergraph", []byte("{\n  \"m_Path\": \"FX\"\n}\n\n{\n  \"m_Type\": \"Node\"\n}\n")))
	assert.Equal(t, "Shader Graphs/Broken",
		ShaderGraphName("Assets/Broken.shadergraph", []byte("not json")))
}

func TestShaderIndexResolve(t *testing.T) {
	toon := Shader{Name: "Custom/Toon", Path: "Assets/Toon.shader", Ref: *toonRef()}
	ix := NewShaderIndex(toon)

	tests := []struct {
		name    string
		in      string
		want    *ObjectRef
		wantErr error
	}{
		{name: "empty means none", in: "  "},
		{name: "null mapping means none", in: "{fileID: 0}"},
		{
			name: "flow mapping",
			in:   "{fileID: 46, guid: 0000000000000000f000000000000000, type: 0}",
			want: &ObjectRef{FileID: 46, GUID: BuiltinGUID},
		},
		{name: "built-in name", in: "Standard", want: &ObjectRef{FileID: 46, GUID: BuiltinGUID}},
		{name: "case-insensitive name", in: "custom/toon", want: toonRef()},
		{name: "exact name", in: "Custom/Toon", want: toonRef()},
		{name: "bare guid", in: toonGUID, want: toonRef()},
		{name: "upper-case guid", in: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", want: toonRef()},
		{name: "guid and file id", in: toonGUID + ":4800000", want: toonRef()},
		{name: "known built-in key", in: BuiltinGUID + ":10755", want: &ObjectRef{FileID: 10755, GUID: BuiltinGUID}},
		{
			name: "unknown key is taken as given",
			in:   "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb:4800000",
			want: &ObjectRef{FileID: 4800000, GUID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Type: RefTypeImported},
		},
		{name: "unknown built-in key", in: BuiltinGUID + ":99", want: &ObjectRef{FileID: 99, GUID: BuiltinGUID}},
		{name: "built-in guid is ambiguous", in: BuiltinGUID, wantErr: ErrAmbiguousShader},
		{name: "unknown guid", in: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", wantErr: ErrUnknownShader},
		{name: "unknown name", in: "Custom/Missing", wantErr: ErrUnknownShader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Resolve(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShaderIndexAmbiguousName(t *testing.T) {
	ix := NewShaderIndex(
		Shader{Name: "Custom/Toon", Path: "Assets/B/Toon.shader", Ref: ObjectRef{FileID: 4800000, GUID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Type: 3}},
		Shader{Name: "Custom/Toon", Path: "Assets/A/Toon.shader", Ref: *toonRef()},
	)
	_, err := ix.Resolve("Custom/Toon")
	require.ErrorIs(t, err, ErrAmbiguousShader)
	assert.Contains(t, err.Error(), "Assets/A/Toon.shader, Assets/B/Toon.shader")

	ref, err := ix.Resolve(toonGUID)
	require.NoError(t, err)
	assert.Equal(t, toonRef(), ref, "a guid disambiguates")
}

func TestShaderIndexName(t *testing.T) {
	ix := NewShaderIndex(Shader{Name: "Custom/Toon", Path: "Assets/Toon.shader", Ref: *toonRef()})
	assert.Equal(t, "None", ix.Name(nil))
	assert.Equal(t, "None", ix.Name(&ObjectRef{}))
	assert.Equal(t, "Standard", ix.Name(&ObjectRef{FileID: 46, GUID: BuiltinGUID}))
	assert.Equal(t, "Custom/Toon", ix.Name(toonRef()))

	unknown := &ObjectRef{FileID: 1, GUID: "cccccccccccccccccccccccccccccccc", Type: 3}
	assert.Equal(t, unknown.String(), ix.Name(unknown))
}

func TestBuildShaderIndex(t *testing.T) {
	p := tp.New(t)
	p.WriteAsset("Assets/Shaders/Toon.shader", toonGUID, tp.ShaderSource("Custom/Toon"))
	p.WriteAsset("Assets/Shaders/Water.shadergraph", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", `{"m_Path": "FX"}`)
	p.WriteAsset("Assets/Shaders/Include.shader", "cccccccccccccccccccccccccccccccc", "CGINCLUDE\nENDCG\n")
	p.Write("Assets/Shaders/Orphan.shader", tp.ShaderSource("Custom/Orphan"))

	db, err := Open(p.Root)
	require.NoError(t, err)
	ix, err := BuildShaderIndex(context.Background(), db)
	require.NoError(t, err)

	var project []Shader
	for _, s := range ix.Shaders() {
		if s.Path != "" {
			project = append(project, s)
		}
	}
	assert.Equal(t, []Shader{
		{
			Name: "Custom/Toon",
			Path: "Assets/Shaders/Toon.shader",
			Ref:  *toonRef(),
		},
		{
			Name: "FX/Water",
			Path: "Assets/Shaders/Water.shadergraph",
			Ref:  ObjectRef{FileID: -6465566751694194690, GUID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Type: RefTypeImported},
		},
	}, project)

	ref, err := ix.Resolve("FX/Water")
	require.NoError(t, err)
	assert.Equal(t, int64(-6465566751694194690), ref.FileID)

	_, err = ix.Resolve("Custom/Orphan")
	assert.ErrorIs(t, err, ErrUnknownShader, "shaders without a meta are not imported")
	assert.Len(t, ix.Shaders(), len(builtinShaders)+2)
}

func TestBuildShaderIndexPackageCache(t *testing.T) {
	p := tp.New(t)
	lit := PackageCacheDir + "/com.unity.render-pipelines.high-definition@14.0.8/Runtime/Material/Lit/Lit.shader"
	p.WriteAsset(lit, "dddddddddddddddddddddddddddddddd", tp.ShaderSource("HDRP/Lit"))

	db, err := Open(p.Root)
	require.NoError(t, err)
	ix, err := BuildShaderIndex(context.Background(), db)
	require.NoError(t, err)

	ref, err := ix.Resolve("HDRP/Lit")
	require.NoError(t, err)
	assert.Equal(t, "dddddddddddddddddddddddddddddddd", ref.GUID)
	assert.Equal(t, "HDRP/Lit", ix.Name(ref))
}
