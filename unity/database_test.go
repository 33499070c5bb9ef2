package unity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tp "github.com/lex00/shaderswap-go/internal/testproject"
)

const (
	redGUID    = "11111111111111111111111111111111"
	blueGUID   = "22222222222222222222222222222222"
	prefabGUID = "33333333333333333333333333333333"
)

func newProject(t *testing.T) *tp.Project {
	t.Helper()
	p := tp.New(t)
	p.WriteAsset("Assets/Materials/Red.mat", redGUID, tp.Material("Red", tp.StandardRef))
	p.WriteAsset("Assets/Materials/Blue.mat", blueGUID, tp.Material("Blue", tp.ShaderRef(toonGUID)))
	p.WriteAsset("Assets/Shaders/Toon.shader", toonGUID, tp.ShaderSource("Custom/Toon"))
	p.WriteAsset("Assets/Prefabs/Cube.prefab", prefabGUID, tp.Asset(
		tp.GameObjectDoc(100, "Cube"),
		tp.RendererDoc(2300000, 100, tp.MaterialRef(redGUID)),
	))
	return p
}

func TestOpen(t *testing.T) {
	t.Run("requires Assets folder", func(t *testing.T) {
		_, err := Open(t.TempDir())
		assert.ErrorIs(t, err, ErrNotProject)
	})

	t.Run("resolves root", func(t *testing.T) {
		p := tp.New(t)
		db, err := Open(p.Root)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(db.Root()))
	})
}

func TestIndex(t *testing.T) {
	p := newProject(t)
	p.Write("Assets/Broken.mat.meta", "fileFormatVersion: 2\n")
	p.WriteAsset("Assets/Samples~/Ignored.mat", "44444444444444444444444444444444", tp.Material("Ignored", tp.StandardRef))

	db, err := Open(p.Root, WithWorkers(2))
	require.NoError(t, err)
	require.NoError(t, db.Index(context.Background()))

	path, ok := db.GUIDToAssetPath(redGUID)
	assert.True(t, ok)
	assert.Equal(t, "Assets/Materials/Red.mat", path)

	guid, ok := db.AssetPathToGUID("Assets/Shaders/Toon.shader")
	assert.True(t, ok)
	assert.Equal(t, toonGUID, guid)

	_, ok = db.GUIDToAssetPath("44444444444444444444444444444444")
	assert.False(t, ok, "folders ending in ~ are not imported")
}

func TestIndexDuplicateGUID(t *testing.T) {
	p := tp.New(t)
	p.WriteAsset("Assets/B.mat", redGUID, tp.Material("B", tp.StandardRef))
	p.WriteAsset("Assets/A.mat", redGUID, tp.Material("A", tp.StandardRef))

	db, err := Open(p.Root)
	require.NoError(t, err)
	require.NoError(t, db.Index(context.Background()))

	path, ok := db.GUIDToAssetPath(redGUID)
	require.True(t, ok)
	assert.Equal(t, "Assets/A.mat", path, "lexically first path wins")
}

func TestIndexExcludeDirs(t *testing.T) {
	p := newProject(t)
	p.WriteAsset("Assets/ThirdParty/Vendor.mat", "55555555555555555555555555555555", tp.Material("Vendor", tp.StandardRef))

	db, err := Open(p.Root, WithExcludeDirs("ThirdParty"))
	require.NoError(t, err)

	found, err := db.FindAssets(context.Background(), "t:Material")
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Materials/Blue.mat", "Assets/Materials/Red.mat"}, found)
}

func TestIndexCancelled(t *testing.T) {
	db, err := Open(newProject(t).Root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, db.Index(ctx), context.Canceled)
}

func TestFindAssets(t *testing.T) {
	db, err := Open(newProject(t).Root)
	require.NoError(t, err)
	ctx := context.Background()

	mats, err := db.FindAssets(ctx, "t:Material")
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Materials/Blue.mat", "Assets/Materials/Red.mat"}, mats)

	shaders, err := db.FindAssets(ctx, "T:SHADER")
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Shaders/Toon.shader"}, shaders)

	prefabs, err := db.FindAssets(ctx, "t:Prefab")
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Prefabs/Cube.prefab"}, prefabs)

	_, err = db.FindAssets(ctx, "t:Texture2D")
	assert.Error(t, err)
}

func TestPackageCache(t *testing.T) {
	const (
		litGUID    = "66666666666666666666666666666666"
		pkgMatGUID = "77777777777777777777777777777777"
	)
	p := newProject(t)
	pkg := PackageCacheDir + "/com.unity.render-pipelines.high-definition@14.0.8/"
	p.WriteAsset(pkg+"Runtime/Lit.shader", litGUID, tp.ShaderSource("HDRP/Lit"))
	p.WriteAsset(pkg+"Runtime/Default.mat", pkgMatGUID, tp.Material("Default", tp.StandardRef))

	db, err := Open(p.Root)
	require.NoError(t, err)
	ctx := context.Background()

	shaders, err := db.FindAssets(ctx, "t:Shader")
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Shaders/Toon.shader", pkg + "Runtime/Lit.shader"}, shaders)

	mats, err := db.FindAssets(ctx, "t:Material")
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Materials/Blue.mat", "Assets/Materials/Red.mat"}, mats)

	_, err = db.ResolveMaterial(ObjectRef{FileID: 2100000, GUID: pkgMatGUID, Type: RefTypeImported}, nil)
	assert.ErrorIs(t, err, ErrUnresolved)

	assert.True(t, InPackageCache(pkg+"Runtime/Lit.shader"))
	assert.False(t, InPackageCache("Assets/Library/PackageCache.mat"))
}

func TestLoadAssetCachesInstances(t *testing.T) {
	db, err := Open(newProject(t).Root)
	require.NoError(t, err)
	require.NoError(t, db.Index(context.Background()))

	a, err := db.LoadAsset("Assets/Materials/Red.mat")
	require.NoError(t, err)
	b, err := db.LoadAsset("Assets/Materials/Red.mat")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, redGUID, a.GUID)
	assert.Equal(t, redGUID+":2100000", a.Materials[0].ID())

	_, err = db.LoadAsset("Assets/Missing.mat")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndexBackfillsLoadedGUIDs(t *testing.T) {
	db, err := Open(newProject(t).Root)
	require.NoError(t, err)

	a, err := db.LoadAsset("Assets/Materials/Red.mat")
	require.NoError(t, err)
	assert.Empty(t, a.GUID)

	require.NoError(t, db.Index(context.Background()))
	assert.Equal(t, redGUID, a.GUID)
}

func TestResolveMaterial(t *testing.T) {
	db, err := Open(newProject(t).Root)
	require.NoError(t, err)
	require.NoError(t, db.Index(context.Background()))

	t.Run("by guid", func(t *testing.T) {
		m, err := db.ResolveMaterial(ObjectRef{FileID: 2100000, GUID: redGUID, Type: 2}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Red", m.Name)

		again, err := db.ResolveMaterial(ObjectRef{FileID: 2100000, GUID: redGUID, Type: 2}, nil)
		require.NoError(t, err)
		assert.Same(t, m, again)
	})

	t.Run("local reference", func(t *testing.T) {
		owner, err := db.LoadAsset("Assets/Materials/Blue.mat")
		require.NoError(t, err)
		m, err := db.ResolveMaterial(ObjectRef{FileID: 2100000}, owner)
		require.NoError(t, err)
		assert.Equal(t, "Blue", m.Name)

		_, err = db.ResolveMaterial(ObjectRef{FileID: 2100000}, nil)
		assert.ErrorIs(t, err, ErrUnresolved)
	})

	t.Run("unresolved", func(t *testing.T) {
		_, err := db.ResolveMaterial(ObjectRef{}, nil)
		assert.ErrorIs(t, err, ErrUnresolved)

		_, err = db.ResolveMaterial(ObjectRef{FileID: 2100000, GUID: "99999999999999999999999999999999", Type: 2}, nil)
		assert.ErrorIs(t, err, ErrUnresolved)

		_, err = db.ResolveMaterial(ObjectRef{FileID: 7, GUID: redGUID, Type: 2}, nil)
		assert.ErrorIs(t, err, ErrUnresolved)

		_, err = db.ResolveMaterial(ObjectRef{FileID: 10303, GUID: BuiltinGUID, Type: 0}, nil)
		assert.ErrorIs(t, err, ErrUnresolved)
	})
}

func TestRel(t *testing.T) {
	p := newProject(t)
	db, err := Open(p.Root)
	require.NoError(t, err)

	rel, err := db.Rel("Assets/Materials/Red.mat")
	require.NoError(t, err)
	assert.Equal(t, "Assets/Materials/Red.mat", rel)

	rel, err = db.Rel(p.Path("Assets/Materials/Red.mat"))
	require.NoError(t, err)
	assert.Equal(t, "Assets/Materials/Red.mat", rel)

	_, err = db.Rel(filepath.Dir(p.Root))
	assert.Error(t, err)

	outside := filepath.Join(filepath.Dir(p.Root), "Other", "Evil.mat")
	require.NoError(t, os.MkdirAll(filepath.Dir(outside), 0o755))
	require.NoError(t, os.WriteFile(outside, []byte(tp.Material("Evil", tp.StandardRef)), 0o644))
	_, err = db.Rel("Assets/../../Other/Evil.mat")
	assert.ErrorContains(t, err, "outside project")

	rel, err = db.Rel("Assets/Materials/../Materials/Red.mat")
	require.NoError(t, err)
	assert.Equal(t, "Assets/Materials/Red.mat", rel)

	assert.Equal(t, p.Path("Assets/Materials/Red.mat"), db.Abs("Assets/Materials/Red.mat"))
}

func TestSaveDirty(t *testing.T) {
	p := newProject(t)
	db, err := Open(p.Root)
	require.NoError(t, err)
	require.NoError(t, db.Index(context.Background()))

	red, err := db.LoadAsset("Assets/Materials/Red.mat")
	require.NoError(t, err)
	blue, err := db.LoadAsset("Assets/Materials/Blue.mat")
	require.NoError(t, err)

	red.Materials[0].SetAttribute(toonRef())
	assert.Equal(t, []*AssetFile{red}, db.DirtyAssets())

	written, err := db.SaveDirty()
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Materials/Red.mat"}, written)
	assert.Contains(t, p.Read("Assets/Materials/Red.mat"), "m_Shader: "+tp.ShaderRef(toonGUID))
	assert.Equal(t, tp.Material("Blue", tp.ShaderRef(toonGUID)), p.Read("Assets/Materials/Blue.mat"))
	assert.False(t, blue.Dirty())
	assert.Empty(t, db.DirtyAssets())
}

func TestBuildScenes(t *testing.T) {
	t.Run("missing build settings", func(t *testing.T) {
		db, err := Open(tp.New(t).Root)
		require.NoError(t, err)
		scenes, err := db.BuildScenes()
		require.NoError(t, err)
		assert.Empty(t, scenes)
	})

	t.Run("lists scenes", func(t *testing.T) {
		p := tp.New(t)
		p.Write(BuildSettingsPath, tp.BuildSettings("Assets/Main.unity", "-Assets/Test.unity"))
		db, err := Open(p.Root)
		require.NoError(t, err)
		scenes, err := db.BuildScenes()
		require.NoError(t, err)
		require.Len(t, scenes, 2)
		assert.Equal(t, "Assets/Main.unity", scenes[0].Path)
		assert.True(t, scenes[0].Enabled)
		assert.False(t, scenes[1].Enabled)
	})
}
