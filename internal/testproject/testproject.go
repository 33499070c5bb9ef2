// Package testproject builds throwaway Unity projects for tests.
package testproject

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Header opens every text-serialized Unity asset.
const Header = "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n"

// StandardRef is the serialized reference to the built-in Standard shader.
const StandardRef = "{fileID: 46, guid: 0000000000000000f000000000000000, type: 0}"

// Project is a Unity project rooted in a test temp directory.
type Project struct {
	Root string
	t    testing.TB
}

// New creates an empty project with an Assets folder.
func New(t testing.TB) *Project {
	t.Helper()
	p := &Project{Root: t.TempDir(), t: t}
	p.Mkdir("Assets")
	return p
}

// Mkdir creates a project-relative directory.
func (p *Project) Mkdir(rel string) {
	p.t.Helper()
	if err := os.MkdirAll(p.Path(rel), 0o755); err != nil {
		p.t.Fatal(err)
	}
}

// Path returns the absolute path of a project-relative path.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Write writes a project-relative file, creating parent directories.
func (p *Project) Write(rel, content string) {
	p.t.Helper()
	abs := p.Path(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		p.t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		p.t.Fatal(err)
	}
}

// WriteAsset writes an asset and its .meta file.
func (p *Project) WriteAsset(rel, guid, content string) {
	p.t.Helper()
	p.Write(rel, content)
	p.Write(rel+".meta", Meta(guid))
}

// Read returns the content of a project-relative file.
func (p *Project) Read(rel string) string {
	p.t.Helper()
	data, err := os.ReadFile(p.Path(rel))
	if err != nil {
		p.t.Fatal(err)
	}
	return string(data)
}

// Meta returns .meta file content for guid.
func Meta(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\nNativeFormatImporter:\n  externalObjects: {}\n  mainObjectFileID: 2100000\n  userData: \n  assetBundleName: \n  assetBundleVariant: \n"
}

// MaterialRef returns a reference to the main material of a .mat asset.
func MaterialRef(guid string) string {
	return fmt.Sprintf("{fileID: 2100000, guid: %s, type: 2}", guid)
}

// ShaderRef returns a reference to a .shader asset.
func ShaderRef(guid string) string {
	return fmt.Sprintf("{fileID: 4800000, guid: %s, type: 3}", guid)
}

// MaterialDoc returns a Material document.
func MaterialDoc(fileID int64, name, shader string) string {
	return fmt.Sprintf(`--- !u!21 &%d
Material:
  serializedVersion: 6
  m_ObjectHideFlags: 0
  m_CorrespondingSourceObject: {fileID: 0}
  m_PrefabInstance: {fileID: 0}
  m_PrefabAsset: {fileID: 0}
  m_Name: %s
  m_Shader: %s
  m_ShaderKeywords:
  m_LightmapFlags: 4
  m_EnableInstancingVariants: 0
  m_CustomRenderQueue: -1
  stringTagMap: {}
  disabledShaderPasses: []
  m_SavedProperties:
    serializedVersion: 3
    m_TexEnvs:
    - _MainTex:
        m_Texture: {fileID: 0}
        m_Scale: {x: 1, y: 1}
        m_Offset: {x: 0, y: 0}
    m_Floats:
    - _Glossiness: 0.5
    m_Colors:
    - _Color: {r: 1, g: 1, b: 1, a: 1}
`, fileID, name, shader)
}

// Material returns a complete .mat asset.
func Material(name, shader string) string {
	return Header + MaterialDoc(2100000, name, shader)
}

// GameObjectDoc returns a GameObject document.
func GameObjectDoc(fileID int64, name string) string {
	return fmt.Sprintf(`--- !u!1 &%d
GameObject:
  m_ObjectHideFlags: 0
  serializedVersion: 6
  m_Name: %s
  m_IsActive: 1
`, fileID, name)
}

// RendererDoc returns a MeshRenderer document with the given slots.
func RendererDoc(fileID, gameObject int64, materials ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- !u!23 &%d\nMeshRenderer:\n  m_ObjectHideFlags: 0\n  m_GameObject: {fileID: %d}\n  m_Enabled: 1\n  m_CastShadows: 1\n", fileID, gameObject)
	if len(materials) == 0 {
		b.WriteString("  m_Materials: []\n")
	} else {
		b.WriteString("  m_Materials:\n")
		for _, m := range materials {
			fmt.Fprintf(&b, "  - %s\n", m)
		}
	}
	b.WriteString("  m_StaticBatchInfo:\n    firstSubMesh: 0\n    subMeshCount: 0\n")
	return b.String()
}

// StrippedRendererDoc returns a stripped renderer stub as written for
// objects owned by a prefab instance.
func StrippedRendererDoc(fileID, instance int64) string {
	return fmt.Sprintf(`--- !u!23 &%d stripped
MeshRenderer:
  m_CorrespondingSourceObject: {fileID: 2300000, guid: ffffffffffffffffffffffffffffffff, type: 3}
  m_PrefabInstance: {fileID: %d}
`, fileID, instance)
}

// Override is a material slot override on a prefab instance.
type Override struct {
	TargetFileID int64
	Slot         int
	Material     string
}

// PrefabInstanceDoc returns a PrefabInstance document.
func PrefabInstanceDoc(fileID int64, prefabGUID string, overrides ...Override) string {
	var b strings.Builder
	fmt.Fprintf(&b, `--- !u!1001 &%d
PrefabInstance:
  m_ObjectHideFlags: 0
  serializedVersion: 2
  m_Modification:
    m_TransformParent: {fileID: 0}
    m_Modifications:
    - target: {fileID: 100, guid: %s, type: 3}
      propertyPath: m_Name
      value: Instance
      objectReference: {fileID: 0}
`, fileID, prefabGUID)
	for _, o := range overrides {
		fmt.Fprintf(&b, `    - target: {fileID: %d, guid: %s, type: 3}
      propertyPath: m_Materials.Array.data[%d]
      value:
      objectReference: %s
`, o.TargetFileID, prefabGUID, o.Slot, o.Material)
	}
	fmt.Fprintf(&b, "    m_RemovedComponents: []\n  m_SourcePrefab: {fileID: 100100000, guid: %s, type: 3}\n", prefabGUID)
	return b.String()
}

// Asset joins documents under the YAML header.
func Asset(docs ...string) string {
	return Header + strings.Join(docs, "")
}

// BuildSettings returns an EditorBuildSettings asset listing scenes.
// Scenes prefixed with "-" are written disabled.
func BuildSettings(scenes ...string) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("--- !u!1045 &1\nEditorBuildSettings:\n  m_ObjectHideFlags: 0\n  serializedVersion: 2\n")
	if len(scenes) == 0 {
		b.WriteString("  m_Scenes: []\n")
	} else {
		b.WriteString("  m_Scenes:\n")
		for _, s := range scenes {
			enabled := 1
			if strings.HasPrefix(s, "-") {
				enabled = 0
				s = strings.TrimPrefix(s, "-")
			}
			fmt.Fprintf(&b, "  - enabled: %d\n    path: %s\n    guid: 00000000000000000000000000000000\n", enabled, s)
		}
	}
	b.WriteString("  m_configObjects: {}\n")
	return b.String()
}

// ShaderSource returns a minimal ShaderLab file declaring name.
func ShaderSource(name string) string {
	return fmt.Sprintf("Shader \"%s\"\n{\n    SubShader\n    {\n        Pass {}\n    }\n}\n", name)
}
