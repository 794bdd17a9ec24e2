package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/infrastructure"
)

// Pipeline executes registered stages strictly in registration order
type Pipeline struct {
	steps   []Step
	index   map[string]Step
	config  *Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewPipeline creates a pipeline running steps in the given order
func NewPipeline(logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		index:  make(map[string]Step),
		config: NewConfig(),
		logger: logger.With(slog.String("component", "pipeline")),
		tracer: otel.Tracer(infrastructure.InstrumentationName),
	}
	for _, s := range steps {
		if err := p.Register(s); err != nil {
			panic(err)
		}
	}
	return p
}

// WithConfig replaces the execution configuration
func (p *Pipeline) WithConfig(cfg *Config) *Pipeline {
	if cfg != nil {
		p.config = cfg
	}
	return p
}

// WithTelemetry sets the tracer and metrics used for each stage
func (p *Pipeline) WithTelemetry(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *Pipeline {
	if tracer != nil {
		p.tracer = tracer
	}
	p.metrics = metrics
	return p
}

// Register appends a step. IDs must be unique and non-empty.
func (p *Pipeline) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}
	if _, exists := p.index[id]; exists {
		return fmt.Errorf("step with ID %s already registered", id)
	}

	p.index[id] = step
	p.steps = append(p.steps, step)
	return nil
}

// Get retrieves a step by ID
func (p *Pipeline) Get(id string) (Step, bool) {
	s, ok := p.index[id]
	return s, ok
}

// IDs returns the step IDs in execution order
func (p *Pipeline) IDs() []string {
	ids := make([]string, len(p.steps))
	for i, s := range p.steps {
		ids[i] = s.ID()
	}
	return ids
}

// Run executes every step in order. The first failure halts the run and
// is returned as an *OperationError; later steps end skipped.
func (p *Pipeline) Run(ctx context.Context, state *OperationState) error {
	if state == nil {
		return NewFatalError("operation state is required", nil)
	}
	opts := state.Options
	if opts.StopAfter != "" {
		if _, ok := p.index[opts.StopAfter]; !ok {
			return NewFatalError(fmt.Sprintf("unknown stage %q", opts.StopAfter), nil)
		}
	}

	ctx = infrastructure.WithTraceID(ctx, state.ID)
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID),
			attribute.Int("operation.stages", len(p.steps)),
		),
	)
	defer span.End()

	for _, s := range p.steps {
		state.SetStage(s.ID(), NewStepState(s.ID(), s.Name()))
	}

	state.Start()
	p.logger.InfoContext(ctx, "pipeline started",
		slog.String("operation_id", state.ID),
		slog.Int("stage_count", len(p.steps)))

	stopped := false
	for i, step := range p.steps {
		ss := state.GetStage(step.ID())

		if stopped {
			ss.Skip("not requested")
			continue
		}
		if reason := skipReason(step.ID(), opts); reason != "" {
			ss.Skip(reason)
			p.logger.InfoContext(ctx, "stage skipped",
				slog.String("stage", step.ID()),
				slog.String("reason", reason))
			continue
		}

		if err := ctx.Err(); err != nil {
			opErr := NewCancellationError(step.ID(), err)
			p.skipRemaining(state, i)
			p.finish(ctx, span, state, opErr)
			return opErr
		}

		if err := p.executeStage(ctx, state, step, ss); err != nil {
			p.skipRemaining(state, i+1)
			p.finish(ctx, span, state, err)
			return err
		}

		if step.ID() == opts.StopAfter {
			stopped = true
		}
	}

	p.finish(ctx, span, state, nil)
	return nil
}

// executeStage runs one step inside its own span and timeout
func (p *Pipeline) executeStage(ctx context.Context, state *OperationState, step Step, ss *StepState) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.stage."+step.ID(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID),
			attribute.String("stage.id", step.ID()),
			attribute.String("stage.name", step.Name()),
		),
	)
	defer span.End()

	if err := step.Validate(state); err != nil {
		opErr := NewValidationError(step.ID(), err.Error())
		ss.Fail(opErr)
		infrastructure.RecordError(ctx, opErr)
		p.logger.WarnContext(ctx, "stage validation failed",
			slog.String("stage", step.ID()),
			slog.String("error", err.Error()))
		return opErr
	}

	timeout := p.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ss.Start()
	p.logger.DebugContext(ctx, "stage started", slog.String("stage", step.ID()))

	err := step.Execute(stageCtx, state)
	if err == nil && stageCtx.Err() != nil && ctx.Err() == nil {
		err = stageCtx.Err()
	}
	if err != nil {
		var opErr *OperationError
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			opErr = NewTimeoutError(step.ID(), timeout.String(), err)
		} else {
			opErr = WrapError(err, step.ID())
		}

		ss.Fail(opErr)
		p.metrics.RecordStage(ctx, step.ID(), ss.Duration(), opErr)
		infrastructure.RecordError(ctx, opErr)
		p.logger.WarnContext(ctx, "stage failed",
			slog.String("stage", step.ID()),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()))
		return opErr
	}

	ss.Complete()
	duration := ss.Duration()
	p.metrics.RecordStage(ctx, step.ID(), duration, nil)
	span.SetStatus(codes.Ok, "")
	p.logger.InfoContext(ctx, "stage completed",
		slog.String("stage", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

// skipRemaining marks every step from index from on as skipped
func (p *Pipeline) skipRemaining(state *OperationState, from int) {
	for _, s := range p.steps[from:] {
		if ss := state.GetStage(s.ID()); ss != nil && ss.GetStatus() == StepStatusPending {
			ss.Skip("previous stage did not complete")
		}
	}
}

// finish records the outcome of a run on state, span, metrics and log
func (p *Pipeline) finish(ctx context.Context, span trace.Span, state *OperationState, err error) {
	status := "success"
	switch {
	case err == nil:
		state.Complete()
		span.SetStatus(codes.Ok, "pipeline completed")
	case GetErrorType(err) == ErrorTypeCancellation:
		status = "cancelled"
		state.Cancel(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		status = "failure"
		state.Fail(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.String("operation.status", status),
		attribute.Float64("operation.duration_seconds", state.Duration().Seconds()),
	)
	p.metrics.RecordRun(ctx, status)

	if err != nil {
		p.logger.InfoContext(ctx, "pipeline aborted",
			slog.String("operation_id", state.ID),
			slog.String("stage", FailedStep(err)),
			slog.Duration("duration", state.Duration()))
		return
	}
	p.logger.InfoContext(ctx, "pipeline completed",
		slog.String("operation_id", state.ID),
		slog.Int("outputs", len(state.Outputs())),
		slog.Duration("duration", state.Duration()))
}

func skipReason(id string, opts RunOptions) string {
	switch {
	case id == StageIDPlot && opts.SkipPlot:
		return "plotting disabled"
	case id == StageIDExport && opts.SkipExport:
		return "export disabled"
	}
	return ""
}
