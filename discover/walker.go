// Package discover walks Unity project trees for asset files.
package discover

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// WalkOptions configures directory walking behavior.
type WalkOptions struct {
	// Extensions limits the walk to files with these extensions
	// (e.g. ".mat", ".meta"). Empty means every file.
	Extensions []string
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
	// SkipTilde skips directories ending in "~", which Unity never imports.
	SkipTilde bool
	// ExcludeDirs lists additional directory names to skip.
	ExcludeDirs []string
}

// DefaultWalkOptions mirrors the folders the Unity importer ignores.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{
		SkipHidden: true,
		SkipTilde:  true,
	}
}

// WithExtensions returns a copy of opts restricted to the given extensions.
func (o WalkOptions) WithExtensions(exts ...string) WalkOptions {
	o.Extensions = exts
	return o
}

// WalkDir walks a directory tree and calls fn for each matching file.
func WalkDir(root string, opts WalkOptions, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()

		// Handle directories
		if d.IsDir() {
			if path == root {
				return nil
			}
			if opts.SkipHidden && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if opts.SkipTilde && strings.HasSuffix(name, "~") {
				return filepath.SkipDir
			}
			for _, excluded := range opts.ExcludeDirs {
				if name == excluded {
					return filepath.SkipDir
				}
			}
			return nil
		}

		// Handle files
		if opts.SkipHidden && strings.HasPrefix(name, ".") {
			return nil
		}
		if !hasExtension(name, opts.Extensions) {
			return nil
		}

		return fn(path)
	})
}

// CollectFiles walks a directory and returns all matching file paths in
// lexical order.
func CollectFiles(root string, opts WalkOptions) ([]string, error) {
	var files []string
	err := WalkDir(root, opts, func(path string) error {
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
