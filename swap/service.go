// Package swap runs shader replacement against a Unity project on disk.
package swap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lex00/shaderswap-go/collect"
	"github.com/lex00/shaderswap-go/report"
	"github.com/lex00/shaderswap-go/rewrite"
	"github.com/lex00/shaderswap-go/unity"
)

// Options describe one operation. Source and Target accept anything
// unity.ShaderIndex.Resolve does; empty means no shader.
type Options struct {
	Project   string
	Scope     string
	Source    string
	Target    string
	Selection []string
	Scenes    []string
	Exclude   []string
	DryRun    bool
	Workers   int
}

// Runner is the set of operations the CLI and the MCP tools drive.
type Runner interface {
	Replace(ctx context.Context, opts Options) (*report.Report, error)
	List(ctx context.Context, opts Options) (*report.Report, error)
	Shaders(ctx context.Context, opts Options) (*report.Report, error)
}

var _ Runner = (*Service)(nil)

// Service executes swap operations.
type Service struct {
	logger *slog.Logger
}

// NewService returns a Service logging to logger. A nil logger discards.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{logger: logger}
}

// session is an opened and indexed project.
type session struct {
	db      *unity.AssetDatabase
	shaders *unity.ShaderIndex
	scope   rewrite.Scope
	rw      *rewrite.Rewriter[unity.ObjectRef]
}

func (s *Service) open(ctx context.Context, opts Options) (*session, error) {
	scope, err := rewrite.ParseScope(opts.Scope)
	if err != nil {
		return nil, err
	}
	project := opts.Project
	if project == "" {
		project = "."
	}

	db, err := unity.Open(project,
		unity.WithLogger(s.logger),
		unity.WithExcludeDirs(opts.Exclude...),
		unity.WithWorkers(opts.Workers))
	if err != nil {
		return nil, err
	}
	if err := db.Index(ctx); err != nil {
		return nil, err
	}
	shaders, err := unity.BuildShaderIndex(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("index shaders: %w", err)
	}

	col := collect.New(db,
		collect.WithSelection(opts.Selection...),
		collect.WithScenes(opts.Scenes...),
		collect.WithLogger(s.logger))
	return &session{
		db:      db,
		shaders: shaders,
		scope:   scope,
		rw:      rewrite.New[unity.ObjectRef](col),
	}, nil
}

// Replace swaps Source for Target on every material in scope and saves the
// changed assets unless DryRun is set. A request the rewriter rejects
// yields a successful, empty report naming the reason.
func (s *Service) Replace(ctx context.Context, opts Options) (*report.Report, error) {
	sess, err := s.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	source, err := sess.shaders.Resolve(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	target, err := sess.shaders.Resolve(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	r := report.New(report.ActionReplace, "")
	r.Scope = sess.scope.String()
	r.Source = sess.shaders.Name(source)
	r.Target = sess.shaders.Name(target)
	r.DryRun = opts.DryRun

	res, err := sess.rw.Rewrite(ctx, rewrite.Request[unity.ObjectRef]{
		Scope:  sess.scope,
		Source: source,
		Target: target,
	})
	if err != nil {
		return nil, err
	}
	if res.Rejected != nil {
		r.Message = res.Rejected.Error()
		s.logger.Info("nothing to replace", "reason", res.Rejected)
		return r, nil
	}

	r.Candidates = res.Candidates
	for _, m := range res.Mutated {
		r.Entries = append(r.Entries, s.entry(sess.shaders, m))
	}

	verb := "replaced"
	if opts.DryRun {
		verb = "would replace"
	} else {
		written, err := sess.db.SaveDirty()
		r.Written = written
		for _, e := range unwrapAll(err) {
			r.Fail("", e)
		}
	}
	r.Message = fmt.Sprintf("%s %s with %s on %d of %d materials (%s scope)",
		verb, r.Source, r.Target, len(res.Mutated), res.Candidates, r.Scope)
	s.logger.Info("shader replace finished",
		"scope", r.Scope, "candidates", res.Candidates, "mutated", len(res.Mutated),
		"written", len(r.Written), "dry_run", opts.DryRun)
	return r, nil
}

// List reports every material in scope with its current shader.
func (s *Service) List(ctx context.Context, opts Options) (*report.Report, error) {
	sess, err := s.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	found, err := sess.rw.GatherCandidates(ctx, sess.scope)
	if err != nil {
		return nil, err
	}

	r := report.New(report.ActionList, fmt.Sprintf("%d materials (%s scope)", len(found), sess.scope))
	r.Scope = sess.scope.String()
	r.Candidates = len(found)
	for _, m := range found {
		r.Entries = append(r.Entries, s.entry(sess.shaders, m))
	}
	return r, nil
}

// Shaders reports every shader the project can reference.
func (s *Service) Shaders(ctx context.Context, opts Options) (*report.Report, error) {
	sess, err := s.open(ctx, opts)
	if err != nil {
		return nil, err
	}

	list := sess.shaders.Shaders()
	r := report.New(report.ActionShaders, fmt.Sprintf("%d shaders", len(list)))
	for _, sh := range list {
		r.Entries = append(r.Entries, report.Entry{
			Name: sh.Name,
			Path: sh.Path,
			ID:   sh.Ref.String(),
		})
	}
	return r, nil
}

func (s *Service) entry(shaders *unity.ShaderIndex, res rewrite.Resource[unity.ObjectRef]) report.Entry {
	e := report.Entry{ID: res.ID(), Shader: shaders.Name(res.Attribute())}
	if m, ok := res.(*unity.Material); ok {
		e.Name = m.Name
		e.Path = m.Path()
	}
	return e
}

// unwrapAll flattens an errors.Join result.
func unwrapAll(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
