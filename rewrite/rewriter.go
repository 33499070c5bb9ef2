package rewrite

import (
	"context"
	"fmt"
)

// ProjectTypeFilter is the asset index filter used for ScopeProject unless
// the Rewriter is configured otherwise.
const ProjectTypeFilter = "t:Material"

// Rewriter swaps one attribute value for another across a scope.
// It is synchronous and not safe for reentrant use.
type Rewriter[V comparable] struct {
	collector  Collector[V]
	typeFilter string
}

// Option configures a Rewriter.
type Option[V comparable] func(*Rewriter[V])

// WithTypeFilter overrides the asset index filter used for ScopeProject.
func WithTypeFilter[V comparable](filter string) Option[V] {
	return func(r *Rewriter[V]) {
		r.typeFilter = filter
	}
}

// New creates a Rewriter backed by the given collector.
func New[V comparable](collector Collector[V], opts ...Option[V]) *Rewriter[V] {
	r := &Rewriter[V]{
		collector:  collector,
		typeFilter: ProjectTypeFilter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GatherCandidates collects the resources for scope, dropping repeats of an
// identity already seen. First-encounter order is preserved.
func (r *Rewriter[V]) GatherCandidates(ctx context.Context, scope Scope) ([]Resource[V], error) {
	var (
		found []Resource[V]
		err   error
	)

	switch scope {
	case ScopeSelection:
		found, err = r.collector.CollectFromSelection(ctx)
	case ScopeScene:
		found, err = r.collector.CollectFromLoadedScene(ctx)
	case ScopeProject:
		found, err = r.collector.CollectFromProjectIndex(ctx, r.typeFilter)
	default:
		return nil, fmt.Errorf("gather %s: unsupported scope", scope)
	}
	if err != nil {
		return nil, fmt.Errorf("gather %s: %w", scope, err)
	}

	seen := make(map[string]struct{}, len(found))
	candidates := make([]Resource[V], 0, len(found))
	for _, res := range found {
		if res == nil {
			continue
		}
		id := res.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, res)
	}
	return candidates, nil
}

// Rewrite sets Target on every candidate in req.Scope whose attribute equals
// Source and returns those candidates. A request with neither value, or a
// selection request with nothing selected, is rejected without enumerating.
// The returned error is non-nil only when the collector fails, in which case
// nothing has been written.
func (r *Rewriter[V]) Rewrite(ctx context.Context, req Request[V]) (*Result[V], error) {
	if req.Source == nil && req.Target == nil {
		return rejected[V]("neither source nor target given"), nil
	}
	if req.Scope == ScopeSelection && r.collector.SelectionLen() == 0 {
		return rejected[V]("selection is empty"), nil
	}

	candidates, err := r.GatherCandidates(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	result := &Result[V]{Candidates: len(candidates)}
	for _, res := range candidates {
		if replace(res, req.Source, req.Target) {
			result.Mutated = append(result.Mutated, res)
		}
	}
	return result, nil
}

// replace writes target when res currently holds source. Both guards stay
// here even though Rewrite already rejected the empty request.
func replace[V comparable](res Resource[V], source, target *V) bool {
	if source == nil && target == nil {
		return false
	}
	if !matches(res.Attribute(), source) {
		return false
	}
	res.SetAttribute(clone(target))
	return true
}

// matches reports whether current equals source. An absent source matches
// nothing, not even an absent attribute.
func matches[V comparable](current, source *V) bool {
	if source == nil || current == nil {
		return false
	}
	return *current == *source
}

func clone[V comparable](v *V) *V {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func rejected[V comparable](reason string) *Result[V] {
	return &Result[V]{Rejected: fmt.Errorf("%w: %s", ErrInvalidRequest, reason)}
}
