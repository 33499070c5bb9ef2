package unity

import (
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Renderer is a renderable object and the materials in its slots.
type Renderer struct {
	FileID  int64
	ClassID int
	Type    string
	// Materials holds one reference per slot, null slots included.
	Materials []ObjectRef
}

// PrefabInstance is a prefab placed inside a scene or another prefab.
type PrefabInstance struct {
	FileID int64
	Source ObjectRef
	// Overrides are material slot overrides applied to the source prefab.
	Overrides []MaterialOverride
}

// MaterialOverride replaces one material slot of a renderer in the source
// prefab.
type MaterialOverride struct {
	// Target references the overridden renderer inside the source prefab.
	Target   ObjectRef
	Slot     int
	Material ObjectRef
}

// BuildScene is an entry of the build settings scene list.
type BuildScene struct {
	Path    string
	GUID    string
	Enabled bool
}

var materialSlotRe = regexp.MustCompile(`^m_Materials\.Array\.data\[(\d+)\]$`)

func decodeRenderer(d document, typeName string, fields *yaml.Node) (Renderer, error) {
	r := Renderer{FileID: d.FileID, ClassID: d.ClassID, Type: typeName}

	_, slots := field(fields, "m_Materials")
	if slots == nil {
		return r, nil
	}
	if slots.Kind != yaml.SequenceNode {
		return r, fmt.Errorf("%s &%d: m_Materials is not a sequence", typeName, d.FileID)
	}
	for i, n := range slots.Content {
		ref, err := RefFromNode(n)
		if err != nil {
			return r, fmt.Errorf("%s &%d: slot %d: %w", typeName, d.FileID, i, err)
		}
		r.Materials = append(r.Materials, ref)
	}
	return r, nil
}

func decodePrefabInstance(d document, fields *yaml.Node) (PrefabInstance, error) {
	p := PrefabInstance{FileID: d.FileID}

	_, src := field(fields, "m_SourcePrefab")
	if src == nil {
		return p, fmt.Errorf("prefab instance &%d: no m_SourcePrefab", d.FileID)
	}
	ref, err := RefFromNode(src)
	if err != nil {
		return p, fmt.Errorf("prefab instance &%d: m_SourcePrefab: %w", d.FileID, err)
	}
	p.Source = ref

	_, mod := field(fields, "m_Modification")
	_, mods := field(mod, "m_Modifications")
	if mods == nil || mods.Kind != yaml.SequenceNode {
		return p, nil
	}
	for _, entry := range mods.Content {
		match := materialSlotRe.FindStringSubmatch(fieldValue(entry, "propertyPath"))
		if match == nil {
			continue
		}
		slot, _ := strconv.Atoi(match[1])

		_, objRef := field(entry, "objectReference")
		material, err := RefFromNode(objRef)
		if err != nil {
			continue
		}
		_, targetNode := field(entry, "target")
		target, _ := RefFromNode(targetNode)

		p.Overrides = append(p.Overrides, MaterialOverride{
			Target:   target,
			Slot:     slot,
			Material: material,
		})
	}
	return p, nil
}

func decodeBuildScenes(fields *yaml.Node) []BuildScene {
	_, list := field(fields, "m_Scenes")
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil
	}
	scenes := make([]BuildScene, 0, len(list.Content))
	for _, n := range list.Content {
		path := fieldValue(n, "path")
		if path == "" {
			continue
		}
		scenes = append(scenes, BuildScene{
			Path:    path,
			GUID:    fieldValue(n, "guid"),
			Enabled: fieldValue(n, "enabled") == "1",
		})
	}
	return scenes
}
