package unity

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reference types as serialized in the "type" field.
const (
	// RefTypeBuiltin marks objects inside Unity's built-in resources.
	RefTypeBuiltin = 0
	// RefTypeSerialized marks objects in native YAML assets (.mat, .prefab).
	RefTypeSerialized = 2
	// RefTypeImported marks objects produced by an importer (.shader, .fbx).
	RefTypeImported = 3
)

// ObjectRef is a serialized reference to a Unity object. The zero value,
// {fileID: 0}, is the null reference.
type ObjectRef struct {
	FileID int64
	GUID   string
	Type   int
}

// IsNull reports whether r references nothing.
func (r ObjectRef) IsNull() bool {
	return r.FileID == 0
}

// IsLocal reports whether r points into the file that contains it.
func (r ObjectRef) IsLocal() bool {
	return !r.IsNull() && r.GUID == ""
}

// String formats r the way Unity writes it.
func (r ObjectRef) String() string {
	if r.IsNull() {
		return "{fileID: 0}"
	}
	if r.GUID == "" {
		return fmt.Sprintf("{fileID: %d}", r.FileID)
	}
	return fmt.Sprintf("{fileID: %d, guid: %s, type: %d}", r.FileID, r.GUID, r.Type)
}

// Key is a compact identity for r, "guid:fileID".
func (r ObjectRef) Key() string {
	return r.GUID + ":" + strconv.FormatInt(r.FileID, 10)
}

// ParseObjectRef parses a flow mapping such as
// "{fileID: 46, guid: 0000000000000000f000000000000000, type: 0}".
func ParseObjectRef(s string) (ObjectRef, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return ObjectRef{}, fmt.Errorf("parse object reference %q: %w", s, err)
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return RefFromNode(node.Content[0])
	}
	return RefFromNode(&node)
}

// RefFromNode decodes an object reference mapping node.
func RefFromNode(n *yaml.Node) (ObjectRef, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return ObjectRef{}, fmt.Errorf("object reference: expected mapping")
	}

	var ref ObjectRef
	seenFileID := false
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1].Value
		switch key {
		case "fileID":
			id, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return ObjectRef{}, fmt.Errorf("object reference fileID %q: %w", val, err)
			}
			ref.FileID = id
			seenFileID = true
		case "guid":
			ref.GUID = strings.ToLower(val)
		case "type":
			typ, err := strconv.Atoi(val)
			if err != nil {
				return ObjectRef{}, fmt.Errorf("object reference type %q: %w", val, err)
			}
			ref.Type = typ
		}
	}
	if !seenFileID {
		return ObjectRef{}, fmt.Errorf("object reference: missing fileID")
	}
	return ref, nil
}
