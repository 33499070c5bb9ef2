package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "yaml", "table"}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
)

// Format renders r in the requested format.
func Format(r *Report, format string) (string, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return formatText(r), nil
	case "json":
		return formatJSON(r)
	case "yaml", "yml":
		return formatYAML(r)
	case "table":
		return formatTable(r)
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", "yml":
		return true
	}
	for _, f := range Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

func formatJSON(r *Report) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(b) + "\n", nil
}

func formatYAML(r *Report) (string, error) {
	b, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(b), nil
}

func formatText(r *Report) string {
	var sb strings.Builder

	if r.Success {
		sb.WriteString(okMark("✓ Success"))
	} else {
		sb.WriteString(failMark("✗ Failed"))
	}
	if r.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(r.Message)
	}
	sb.WriteString("\n")

	if len(r.Entries) > 0 {
		sb.WriteString("\n")
		sb.WriteString(heading(r))
		sb.WriteString(":\n")
		for _, e := range r.Entries {
			sb.WriteString("  ")
			sb.WriteString(e.Name)
			if e.Path != "" {
				sb.WriteString(dim(" (" + e.Path + ")"))
			}
			if r.Action != ActionReplace && e.Shader != "" {
				sb.WriteString(" -> ")
				sb.WriteString(e.Shader)
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Written) > 0 {
		sb.WriteString("\nWritten:\n")
		for _, p := range r.Written {
			fmt.Fprintf(&sb, "  %s\n", p)
		}
	}

	if len(r.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for i, e := range r.Errors {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, e.String())
		}
	}
	return sb.String()
}

func heading(r *Report) string {
	switch r.Action {
	case ActionReplace:
		if r.DryRun {
			return "Would replace"
		}
		return "Replaced"
	case ActionShaders:
		return "Shaders"
	default:
		return "Materials"
	}
}

func formatTable(r *Report) (string, error) {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRowAutoWrap(tw.WrapBreak),
		tablewriter.WithHeaderAutoFormat(tw.Off),
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off, ShowHeader: tw.On}},
		})))

	if r.Action == ActionShaders {
		table.Header("Name", "Path", "Reference")
	} else {
		table.Header("Name", "Path", "Shader")
	}
	for _, e := range r.Entries {
		row := []string{e.Name, e.Path, e.Shader}
		if r.Action == ActionShaders {
			row[2] = e.ID
		}
		if err := table.Append(row); err != nil {
			return "", fmt.Errorf("failed to render table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}

	if r.Message != "" {
		fmt.Fprintf(&buf, "%s\n", r.Message)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&buf, "%s %s\n", failMark("✗"), e.String())
	}
	return buf.String(), nil
}
