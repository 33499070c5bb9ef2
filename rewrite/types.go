// Package rewrite provides the bulk resource-attribute rewriter.
//
// A Rewriter gathers candidate resources from a Collector, deduplicates them
// by identity, and rewrites one attribute on every candidate whose current
// value equals the requested source value. The host environment owns the
// resources; the rewriter only ever writes the one attribute.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest marks a request rejected by a fail-fast guard.
// It is reported through Result.Rejected and never returned as an error.
var ErrInvalidRequest = errors.New("invalid rewrite request")

// Scope selects which collector supplies candidates.
type Scope int

const (
	// ScopeSelection gathers from the current selection.
	ScopeSelection Scope = iota
	// ScopeScene gathers from every renderable object currently loaded.
	ScopeScene
	// ScopeProject gathers from the project asset index.
	ScopeProject
)

// String returns the string representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeSelection:
		return "selection"
	case ScopeScene:
		return "scene"
	case ScopeProject:
		return "project"
	default:
		return "unknown"
	}
}

// ParseScope parses a scope name. Matching is case-insensitive.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "selection":
		return ScopeSelection, nil
	case "scene":
		return ScopeScene, nil
	case "project", "":
		return ScopeProject, nil
	default:
		return 0, fmt.Errorf("unknown scope %q (supported: selection, scene, project)", s)
	}
}

// Resource is a mutable, identity-bearing object owned by the host.
type Resource[V comparable] interface {
	// ID returns the stable identity key. Two handles with the same ID are
	// the same resource even when they are distinct Go values.
	ID() string
	// Attribute returns the current attribute value, or nil when absent.
	Attribute() *V
	// SetAttribute overwrites the attribute. A nil value clears it.
	SetAttribute(v *V)
}

// Collector supplies candidate resources for each scope. Implementations may
// return resources in any order and may repeat them.
type Collector[V comparable] interface {
	CollectFromSelection(ctx context.Context) ([]Resource[V], error)
	CollectFromLoadedScene(ctx context.Context) ([]Resource[V], error)
	CollectFromProjectIndex(ctx context.Context, typeFilter string) ([]Resource[V], error)
	// SelectionLen reports how many objects are currently selected.
	SelectionLen() int
}

// Request describes one rewrite.
type Request[V comparable] struct {
	Scope  Scope
	Source *V
	Target *V
}

// Result lists the resources a rewrite mutated, in first-encounter order.
type Result[V comparable] struct {
	Mutated []Resource[V]
	// Candidates is the size of the deduplicated candidate set.
	Candidates int
	// Rejected is non-nil when a fail-fast guard stopped the request
	// before enumeration. It wraps ErrInvalidRequest.
	Rejected error
}

// Empty reports whether no resource was mutated.
func (r *Result[V]) Empty() bool {
	return len(r.Mutated) == 0
}
