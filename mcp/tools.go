package mcp

import (
	"context"
	"fmt"

	"github.com/lex00/shaderswap-go/report"
	"github.com/lex00/shaderswap-go/swap"
)

// Tool names.
const (
	ToolReplaceShader = "replace_shader"
	ToolListMaterials = "list_materials"
	ToolListShaders   = "list_shaders"
)

var projectProperty = map[string]any{
	"type":        "string",
	"description": "Unity project directory (default: the server's project)",
}

var scopeProperties = map[string]any{
	"project": projectProperty,
	"scope": map[string]any{
		"type":        "string",
		"enum":        []string{"selection", "scene", "project"},
		"description": "Where to look for materials (default: project)",
	},
	"selection": map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Selected .mat, .prefab or .unity paths for the selection scope",
	},
	"scenes": map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": "Scenes treated as loaded (default: enabled build scenes)",
	},
}

// ReplaceShaderSchema is the JSON schema for the replace_shader tool.
var ReplaceShaderSchema = map[string]any{
	"type": "object",
	"properties": merge(scopeProperties, map[string]any{
		"source": map[string]any{
			"type":        "string",
			"description": "Shader to replace: name, GUID, guid:fileID or {fileID, guid, type}",
		},
		"target": map[string]any{
			"type":        "string",
			"description": "Replacement shader in the same forms; empty clears the shader",
		},
		"dry_run": map[string]any{
			"type":        "boolean",
			"description": "Report matches without writing files",
		},
	}),
}

// ListMaterialsSchema is the JSON schema for the list_materials tool.
var ListMaterialsSchema = map[string]any{
	"type":       "object",
	"properties": scopeProperties,
}

// ListShadersSchema is the JSON schema for the list_shaders tool.
var ListShadersSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"project": projectProperty,
	},
}

// RegisterTools registers the shaderswap tools backed by svc. Arguments
// override the matching fields of defaults.
func RegisterTools(server *Server, svc swap.Runner, defaults swap.Options) {
	server.RegisterToolWithSchema(ToolReplaceShader,
		"Replace one shader with another on every material in a scope",
		reportHandler(defaults, svc.Replace), ReplaceShaderSchema)
	server.RegisterToolWithSchema(ToolListMaterials,
		"List the materials in a scope with their current shader",
		reportHandler(defaults, svc.List), ListMaterialsSchema)
	server.RegisterToolWithSchema(ToolListShaders,
		"List the shaders a project can reference",
		reportHandler(defaults, svc.Shaders), ListShadersSchema)
}

func reportHandler(defaults swap.Options, run func(context.Context, swap.Options) (*report.Report, error)) ToolHandler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		opts, err := optionsFromArgs(defaults, args)
		if err != nil {
			return "", err
		}
		r, err := run(ctx, opts)
		if err != nil {
			return "", err
		}
		return report.Format(r, "json")
	}
}

// optionsFromArgs overlays tool arguments on defaults.
func optionsFromArgs(defaults swap.Options, args map[string]any) (swap.Options, error) {
	opts := defaults
	for key, val := range args {
		var err error
		switch key {
		case "project":
			opts.Project, err = stringArg(key, val)
		case "scope":
			opts.Scope, err = stringArg(key, val)
		case "source":
			opts.Source, err = stringArg(key, val)
		case "target":
			opts.Target, err = stringArg(key, val)
		case "selection":
			opts.Selection, err = stringsArg(key, val)
		case "scenes":
			opts.Scenes, err = stringsArg(key, val)
		case "dry_run":
			opts.DryRun, err = boolArg(key, val)
		default:
			err = fmt.Errorf("unknown argument %q", key)
		}
		if err != nil {
			return swap.Options{}, err
		}
	}
	return opts, nil
}

func stringArg(key string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, val)
	}
	return s, nil
}

func stringsArg(key string, val any) ([]string, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings, got %T", key, val)
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string, got %T", key, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func boolArg(key string, val any) (bool, error) {
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean, got %T", key, val)
	}
	return b, nil
}

func merge(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
