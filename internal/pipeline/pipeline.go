package pipeline

import (
	"context"
	"log/slog"

	"github.com/wtsks/propsync/internal/model"
)

// Step defines the interface that all save hooks must implement.
// Steps are executed in sequence, each seeing the fields left by the
// previous ones.
type Step interface {
	// Do executes the step against the submission.
	// Returns an error if the step could not run; outcomes such as "no
	// match" are recorded on the submission and return nil.
	Do(ctx context.Context, sub *model.Submission) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded on the submission.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence.
// Cancellation is checked before each step.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps ran (errors are recorded on the submission).
func (p *Pipeline) Execute(ctx context.Context, sub *model.Submission) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("save hooks cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"listing", sub.ListingID,
		)

		if err := step.Do(ctx, sub); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"listing", sub.ListingID,
				"error", err,
			)

			sub.Errors = append(sub.Errors, step.Name()+": "+err.Error())

			if !p.continueOnError {
				return err
			}
		}

		sub.PerformedSteps = append(sub.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
