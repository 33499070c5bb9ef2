package unity

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MetaExt is the extension of Unity's per-asset metadata files.
const MetaExt = ".meta"

type metaFile struct {
	GUID string `yaml:"guid"`
}

// ParseMetaGUID returns the guid field of a .meta file's contents.
func ParseMetaGUID(data []byte) (string, error) {
	var meta metaFile
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("parse meta: %w", err)
	}
	if meta.GUID == "" {
		return "", fmt.Errorf("parse meta: no guid")
	}
	return strings.ToLower(meta.GUID), nil
}

// ReadMetaGUID reads the GUID from the .meta file at path.
func ReadMetaGUID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	guid, err := ParseMetaGUID(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return guid, nil
}
