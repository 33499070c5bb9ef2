package unity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tp "github.com/lex00/shaderswap-go/internal/testproject"
)

const toonGUID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func toonRef() *ObjectRef {
	return &ObjectRef{FileID: 4800000, GUID: toonGUID, Type: RefTypeImported}
}

func TestParseAssetMaterial(t *testing.T) {
	a, err := ParseAsset("Assets/Red.mat", []byte(tp.Material("Red", tp.StandardRef)))
	require.NoError(t, err)
	require.Len(t, a.Materials, 1)
	assert.Empty(t, a.Warnings)

	m := a.Materials[0]
	assert.Equal(t, "Red", m.Name)
	assert.Equal(t, int64(2100000), m.FileID)
	assert.Equal(t, "Assets/Red.mat", m.Path())
	assert.Equal(t, "Assets/Red.mat#2100000", m.ID())
	assert.Equal(t, &ObjectRef{FileID: 46, GUID: BuiltinGUID}, m.Attribute())
	assert.False(t, m.Dirty())

	a.GUID = "0123456789abcdef0123456789abcdef"
	assert.Equal(t, "0123456789abcdef0123456789abcdef:2100000", m.ID())
}

func TestMaterialAttributeIsACopy(t *testing.T) {
	a, err := ParseAsset("Assets/Red.mat", []byte(tp.Material("Red", tp.StandardRef)))
	require.NoError(t, err)
	m := a.Materials[0]

	got := m.Attribute()
	got.FileID = 1
	assert.Equal(t, int64(46), m.Attribute().FileID)

	in := toonRef()
	m.SetAttribute(in)
	in.FileID = 1
	assert.Equal(t, int64(4800000), m.Attribute().FileID)
}

func TestAssetBytesPatchesOnlyShaderLine(t *testing.T) {
	src := tp.Material("Red", tp.StandardRef)
	a, err := ParseAsset("Assets/Red.mat", []byte(src))
	require.NoError(t, err)

	m := a.Materials[0]
	m.SetAttribute(toonRef())
	require.True(t, m.Dirty())
	require.True(t, a.Dirty())

	before := strings.Split(src, "\n")
	after := strings.Split(string(a.Bytes()), "\n")
	require.Equal(t, len(before), len(after))

	var changed []string
	for i := range before {
		if before[i] != after[i] {
			changed = append(changed, after[i])
		}
	}
	assert.Equal(t, []string{"  m_Shader: {fileID: 4800000, guid: " + toonGUID + ", type: 3}"}, changed)
}

func TestMaterialSetAttribute(t *testing.T) {
	t.Run("same value is not dirty", func(t *testing.T) {
		a, err := ParseAsset("Assets/Red.mat", []byte(tp.Material("Red", tp.StandardRef)))
		require.NoError(t, err)
		m := a.Materials[0]
		m.SetAttribute(&ObjectRef{FileID: 46, GUID: BuiltinGUID})
		assert.False(t, m.Dirty())
	})

	t.Run("nil clears the shader", func(t *testing.T) {
		a, err := ParseAsset("Assets/Red.mat", []byte(tp.Material("Red", tp.StandardRef)))
		require.NoError(t, err)
		m := a.Materials[0]
		m.SetAttribute(nil)
		assert.Nil(t, m.Attribute())
		assert.True(t, m.Dirty())
		assert.Contains(t, string(a.Bytes()), "  m_Shader: {fileID: 0}\n")
	})

	t.Run("null reference reads as absent", func(t *testing.T) {
		a, err := ParseAsset("Assets/Empty.mat", []byte(tp.Material("Empty", "{fileID: 0}")))
		require.NoError(t, err)
		m := a.Materials[0]
		assert.Nil(t, m.Attribute())

		m.SetAttribute(&ObjectRef{})
		assert.False(t, m.Dirty())
	})
}

func TestParseAssetLineEndings(t *testing.T) {
	src := strings.ReplaceAll(tp.Material("Red", tp.StandardRef), "\n", "\r\n")
	a, err := ParseAsset("Assets/Red.mat", []byte(src))
	require.NoError(t, err)
	require.Len(t, a.Materials, 1)

	assert.Equal(t, src, string(a.Bytes()))

	a.Materials[0].SetAttribute(toonRef())
	out := string(a.Bytes())
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
	assert.Contains(t, out, "m_Shader: {fileID: 4800000, guid: "+toonGUID+", type: 3}\r\n")
}

func TestParseAssetWithoutTrailingNewline(t *testing.T) {
	src := strings.TrimSuffix(tp.Material("Red", tp.StandardRef), "\n")
	a, err := ParseAsset("Assets/Red.mat", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, src, string(a.Bytes()))
}

func TestParseAssetErrors(t *testing.T) {
	t.Run("binary asset", func(t *testing.T) {
		_, err := ParseAsset("Assets/Bin.mat", []byte{0x00, 0x01, 0x02})
		assert.ErrorIs(t, err, ErrNotText)
	})

	t.Run("empty asset", func(t *testing.T) {
		_, err := ParseAsset("Assets/Empty.mat", nil)
		assert.ErrorIs(t, err, ErrNotText)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := ParseAsset("Assets/Bad.mat", []byte(tp.Header+"--- nonsense\nMaterial:\n  m_Name: x\n"))
		assert.Error(t, err)
	})

	t.Run("block-style shader is skipped with a warning", func(t *testing.T) {
		src := tp.Header + "--- !u!21 &2100000\nMaterial:\n  m_Name: Block\n  m_Shader:\n    fileID: 46\n    guid: " + BuiltinGUID + "\n    type: 0\n"
		a, err := ParseAsset("Assets/Block.mat", []byte(src))
		require.NoError(t, err)
		assert.Empty(t, a.Materials)
		require.Len(t, a.Warnings, 1)
		assert.True(t, errors.Is(a.Warnings[0], ErrUnsupportedLayout))
	})

	t.Run("material without shader field is skipped", func(t *testing.T) {
		src := tp.Header + "--- !u!21 &2100000\nMaterial:\n  m_Name: NoShader\n"
		a, err := ParseAsset("Assets/NoShader.mat", []byte(src))
		require.NoError(t, err)
		assert.Empty(t, a.Materials)
		assert.Len(t, a.Warnings, 1)
	})
}

func TestParseAssetMultipleMaterials(t *testing.T) {
	src := tp.Asset(
		tp.MaterialDoc(2100000, "First", tp.StandardRef),
		tp.MaterialDoc(2100002, "Second", tp.ShaderRef(toonGUID)),
	)
	a, err := ParseAsset("Assets/Pair.asset", []byte(src))
	require.NoError(t, err)
	require.Len(t, a.Materials, 2)

	assert.Equal(t, "Second", a.Material(2100002).Name)
	assert.Nil(t, a.Material(42))

	a.Material(2100002).SetAttribute(&ObjectRef{FileID: 46, GUID: BuiltinGUID})
	out := string(a.Bytes())
	assert.Equal(t, 2, strings.Count(out, "m_Shader: "+tp.StandardRef))
}

func TestParseAssetScene(t *testing.T) {
	matA := tp.MaterialRef("11111111111111111111111111111111")
	matB := tp.MaterialRef("22222222222222222222222222222222")
	src := tp.Asset(
		tp.GameObjectDoc(100, "Cube"),
		tp.RendererDoc(200, 100, matA, matB, "{fileID: 0}"),
		tp.RendererDoc(201, 100),
		tp.StrippedRendererDoc(400, 300),
		tp.PrefabInstanceDoc(300, "33333333333333333333333333333333", tp.Override{
			TargetFileID: 2300000, Slot: 1, Material: matB,
		}),
	)

	a, err := ParseAsset("Assets/Main.unity", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, a.Warnings)
	require.Len(t, a.Renderers, 2, "stripped renderer is skipped")

	r := a.Renderers[0]
	assert.Equal(t, "MeshRenderer", r.Type)
	assert.Equal(t, ClassMeshRenderer, r.ClassID)
	require.Len(t, r.Materials, 3)
	assert.Equal(t, "11111111111111111111111111111111", r.Materials[0].GUID)
	assert.True(t, r.Materials[2].IsNull())
	assert.Empty(t, a.Renderers[1].Materials)

	require.Len(t, a.Prefabs, 1)
	p := a.Prefabs[0]
	assert.Equal(t, "33333333333333333333333333333333", p.Source.GUID)
	require.Len(t, p.Overrides, 1)
	assert.Equal(t, 1, p.Overrides[0].Slot)
	assert.Equal(t, int64(2300000), p.Overrides[0].Target.FileID)
	assert.Equal(t, "22222222222222222222222222222222", p.Overrides[0].Material.GUID)
}

func TestParseAssetBuildSettings(t *testing.T) {
	a, err := ParseAsset(BuildSettingsPath, []byte(tp.BuildSettings("Assets/A.unity", "-Assets/B.unity")))
	require.NoError(t, err)
	require.Len(t, a.BuildScenes, 2)
	assert.Equal(t, BuildScene{Path: "Assets/A.unity", GUID: "00000000000000000000000000000000", Enabled: true}, a.BuildScenes[0])
	assert.False(t, a.BuildScenes[1].Enabled)
}

func TestAssetSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Red.mat")
	require.NoError(t, os.WriteFile(path, []byte(tp.Material("Red", tp.StandardRef)), 0o600))

	a, err := LoadAsset(path, "Assets/Red.mat")
	require.NoError(t, err)

	t.Run("clean asset is not written", func(t *testing.T) {
		info, _ := os.Stat(path)
		require.NoError(t, a.Save())
		after, _ := os.Stat(path)
		assert.Equal(t, info.ModTime(), after.ModTime())
	})

	t.Run("dirty asset is written", func(t *testing.T) {
		a.Materials[0].SetAttribute(toonRef())
		require.NoError(t, a.Save())
		assert.False(t, a.Dirty())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "m_Shader: {fileID: 4800000, guid: "+toonGUID+", type: 3}")

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp file removed")
	})

	t.Run("parsed asset cannot be saved", func(t *testing.T) {
		b, err := ParseAsset("Assets/Mem.mat", []byte(tp.Material("Mem", tp.StandardRef)))
		require.NoError(t, err)
		b.Materials[0].SetAttribute(toonRef())
		assert.Error(t, b.Save())
	})
}
