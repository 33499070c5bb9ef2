// Package unity reads and patches text-serialized Unity project assets.
//
// A Unity project stores materials, prefabs and scenes as multi-document
// YAML files. Each document starts with a header of the form
//
//	--- !u!<classID> &<fileID>
//
// and holds one serialized object. Objects reference each other with
// {fileID, guid, type} mappings; the guid names an asset through its .meta
// file and the fileID names an object inside that asset.
//
// The package decodes only what shader replacement needs:
//
//   - materials and their m_Shader reference,
//   - renderers and their m_Materials slots,
//   - prefab instances, their source prefab and material slot overrides,
//   - the build settings scene list.
//
// Writes are surgical. A material's m_Shader line is re-rendered in place
// and every other byte of the file is preserved, so saved assets diff
// cleanly against what the editor wrote.
//
// AssetDatabase ties the files together: it indexes .meta GUIDs, loads and
// caches assets by path, and resolves references across files.
package unity
