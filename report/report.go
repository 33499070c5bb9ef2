// Package report holds the outcome of a shaderswap operation and renders it
// as text, JSON, YAML or a table.
package report

import "fmt"

// Action names the operation a Report describes.
type Action string

const (
	ActionReplace Action = "replace"
	ActionList    Action = "list"
	ActionShaders Action = "shaders"
	ActionInit    Action = "init"
)

// Report is the outcome of one operation.
type Report struct {
	Action  Action `json:"action" yaml:"action"`
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	Scope  string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	DryRun bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	// Candidates is the number of unique resources considered.
	Candidates int `json:"candidates" yaml:"candidates"`

	Entries []Entry  `json:"entries" yaml:"entries"`
	Written []string `json:"written,omitempty" yaml:"written,omitempty"`
	Errors  []Error  `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Entry is one material or shader in a report.
type Entry struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Shader string `json:"shader,omitempty" yaml:"shader,omitempty"`
}

// Error is a failure tied to an asset path.
type Error struct {
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// New returns a successful, empty report.
func New(action Action, message string) *Report {
	return &Report{
		Action:  action,
		Success: true,
		Message: message,
		Entries: []Entry{},
	}
}

// Fail marks the report failed and records err against path.
func (r *Report) Fail(path string, err error) {
	r.Success = false
	r.Errors = append(r.Errors, Error{Path: path, Message: err.Error()})
}

// String formats the error as "path: message".
func (e Error) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}
