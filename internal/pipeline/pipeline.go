// Package pipeline runs the full description-to-script chain and packages the outcome
// as a Result. It is the boundary where every failure, including panics, becomes a
// structured error.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mathviz/internal/accuracy"
	"mathviz/internal/animation"
	"mathviz/internal/codegen"
	"mathviz/internal/logging"
	"mathviz/internal/nlp"
)

// Parser turns a description into a validated request.
type Parser interface {
	Parse(description string) (*animation.Request, error)
}

// Generator renders a request into scene source.
type Generator interface {
	Generate(req *animation.Request) (string, error)
}

// Validator reviews a request and its generated source.
type Validator interface {
	Validate(req *animation.Request, source string) animation.ValidationReport
}

// Pipeline wires the three stages together. It holds no mutable state and is safe
// for concurrent use.
type Pipeline struct {
	parser    Parser
	generator Generator
	validator Validator
	logger    *logging.AppLogger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger logs stage timings and failures to logger.
func WithLogger(logger *logging.AppLogger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New returns a pipeline over the given stages.
func New(parser Parser, generator Generator, validator Validator, opts ...Option) *Pipeline {
	p := &Pipeline{parser: parser, generator: generator, validator: validator}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default builds a pipeline over the built-in rule and template tables.
func Default(opts ...Option) (*Pipeline, error) {
	gen, err := codegen.NewGenerator(codegen.DefaultTemplates())
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return New(
		nlp.NewParser(nlp.DefaultRules()),
		gen,
		accuracy.NewValidator(accuracy.Options{NormBound: accuracy.DefaultNormBound}),
		opts...,
	), nil
}

var defaultPipeline = sync.OnceValues(func() (*Pipeline, error) {
	return Default()
})

// Process runs description through the default pipeline.
func Process(description string, validate bool) Result {
	p, err := defaultPipeline()
	if err != nil {
		return failure(err)
	}
	return p.Process(description, validate)
}

// Process parses, generates and optionally validates description. It never panics and
// never returns partial output: on any failure only Error is set.
func (p *Pipeline) Process(description string, validate bool) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Error("Pipeline panic recovered", "panic", r)
			}
			res = Result{Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	start := time.Now()
	req, err := p.parser.Parse(description)
	p.logStage(StageParse, start, err)
	if err != nil {
		return failure(&StageError{Stage: StageParse, Err: err})
	}

	start = time.Now()
	source, err := p.generator.Generate(req)
	p.logStage(StageGenerate, start, err)
	if err != nil {
		return failure(&StageError{Stage: StageGenerate, Err: err})
	}

	snapshot := req.Snapshot()
	res = Result{
		Success:    true,
		SourceText: source,
		Snapshot:   &snapshot,
	}
	if validate {
		start = time.Now()
		report := p.validator.Validate(req, source)
		p.logStage(StageValidate, start, nil)
		res.Report = &report
	}
	return res
}

// ProcessBatch processes descriptions concurrently with at most limit in flight
// (limit <= 0 means unbounded). Results keep input order. Descriptions not started
// before ctx is cancelled are left as zero Results and the context error is returned.
func (p *Pipeline) ProcessBatch(ctx context.Context, descriptions []string, validate bool, limit int) ([]Result, error) {
	results := make([]Result, len(descriptions))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, description := range descriptions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.Process(description, validate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Pipeline) logStage(stage Stage, start time.Time, err error) {
	if p.logger != nil {
		p.logger.LogStage(string(stage), start, err)
	}
}
