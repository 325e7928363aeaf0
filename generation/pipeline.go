package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	"github.com/tbxark/formbuilder/structured"
	"github.com/tbxark/formbuilder/types"
)

const (
	nodeGenerateDescription = "generate_description"
	nodeGenerateSteps       = "generate_steps"
	nodeGenerateQuestions   = "generate_questions"
	nodeEvaluateDescription = "evaluate_description"
	nodeEvaluateSteps       = "evaluate_steps"
	nodeEvaluateQuestions   = "evaluate_questions"
	nodeGenerateFinalForm   = "generate_final_form"

	evaluationToolName        = "evaluate_generated_output"
	evaluationToolDescription = "Grade generated form content as acceptable or unacceptable with feedback."
)

// pipelineState lives for one graph run only.
type pipelineState struct {
	UserPrompt      string
	FormDescription string
	FormSteps       string
	StepQuestions   string
}

// branch is one generator with its evaluator.
type branch struct {
	generate  string
	evaluate  string
	component string
	run       func(ctx context.Context, prompt string) (string, error)
	store     func(state *pipelineState, out string)
}

// draft is the graph output: the raw aggregator text plus the verdicts.
type draft struct {
	Raw         string
	Evaluations []Verdict
}

type pipelineOptions struct {
	hook   VerdictHook
	now    func() time.Time
	writer Writer
}

type Option func(*pipelineOptions)

// WithVerdictHook registers a callback for evaluator verdicts. Verdicts never
// gate aggregation; the hook is where a caller can act on them.
func WithVerdictHook(hook VerdictHook) Option {
	return func(o *pipelineOptions) {
		o.hook = hook
	}
}

// WithClock overrides the clock used for ids and created_at.
func WithClock(now func() time.Time) Option {
	return func(o *pipelineOptions) {
		o.now = now
	}
}

// WithWriter makes Generate persist the document it returns.
func WithWriter(w Writer) Option {
	return func(o *pipelineOptions) {
		o.writer = w
	}
}

// Pipeline fans a prompt out to the description, steps and questions
// generators, evaluates each branch and aggregates everything into one form.
type Pipeline struct {
	description *structured.TextChain[string]
	steps       *structured.TextChain[string]
	questions   *QuestionGenerator
	evaluator   *structured.Chain[*evaluationInput, evaluation]
	aggregator  *structured.TextChain[*aggregateInput]
	runnable    compose.Runnable[string, *draft]
	options     pipelineOptions
}

func NewPipeline(ctx context.Context, chatModel model.ToolCallingChatModel, opts ...Option) (*Pipeline, error) {
	options := pipelineOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	questions, err := NewQuestionGenerator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create question generator: %w", err)
	}
	evaluator, err := structured.NewChain[*evaluationInput, evaluation](
		chatModel,
		buildEvaluationPrompt(evaluationToolName),
		evaluationToolName,
		evaluationToolDescription,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator: %w", err)
	}
	p := &Pipeline{
		description: structured.NewTextChain[string](chatModel, buildDescriptionPrompt),
		steps:       structured.NewTextChain[string](chatModel, buildStepsPrompt),
		questions:   questions,
		evaluator:   evaluator,
		aggregator:  structured.NewTextChain[*aggregateInput](chatModel, buildAggregatePrompt),
		options:     options,
	}
	runnable, err := p.compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation graph: %w", err)
	}
	p.runnable = runnable
	return p, nil
}

func (p *Pipeline) compile(ctx context.Context) (compose.Runnable[string, *draft], error) {
	g := compose.NewGraph[string, *draft](compose.WithGenLocalState(func(ctx context.Context) *pipelineState {
		return &pipelineState{}
	}))

	keepPrompt := compose.WithStatePreHandler(func(ctx context.Context, in string, state *pipelineState) (string, error) {
		state.UserPrompt = in
		return in, nil
	})
	branches := []branch{
		{
			generate:  nodeGenerateDescription,
			evaluate:  nodeEvaluateDescription,
			component: ComponentDescription,
			run:       p.description.Invoke,
			store:     func(s *pipelineState, out string) { s.FormDescription = out },
		},
		{
			generate:  nodeGenerateSteps,
			evaluate:  nodeEvaluateSteps,
			component: ComponentSteps,
			run:       p.steps.Invoke,
			store:     func(s *pipelineState, out string) { s.FormSteps = out },
		},
		{
			generate:  nodeGenerateQuestions,
			evaluate:  nodeEvaluateQuestions,
			component: ComponentQuestions,
			run:       p.generateQuestions,
			store:     func(s *pipelineState, out string) { s.StepQuestions = out },
		},
	}

	for _, b := range branches {
		store := b.store
		if err := g.AddLambdaNode(b.generate, compose.InvokableLambda(b.run),
			keepPrompt,
			compose.WithStatePostHandler(func(ctx context.Context, out string, state *pipelineState) (string, error) {
				store(state, out)
				return out, nil
			}),
		); err != nil {
			return nil, err
		}
		if err := g.AddLambdaNode(b.evaluate, compose.InvokableLambda(p.evaluateNode(b.component)),
			compose.WithOutputKey(b.component),
		); err != nil {
			return nil, err
		}
		if err := g.AddEdge(compose.START, b.generate); err != nil {
			return nil, err
		}
		if err := g.AddEdge(b.generate, b.evaluate); err != nil {
			return nil, err
		}
	}

	if err := g.AddLambdaNode(nodeGenerateFinalForm, compose.InvokableLambda(p.aggregateNode)); err != nil {
		return nil, err
	}
	for _, b := range branches {
		if err := g.AddEdge(b.evaluate, nodeGenerateFinalForm); err != nil {
			return nil, err
		}
	}
	if err := g.AddEdge(nodeGenerateFinalForm, compose.END); err != nil {
		return nil, err
	}

	return g.Compile(ctx,
		compose.WithGraphName("form_builder"),
		compose.WithNodeTriggerMode(compose.AllPredecessor),
	)
}

func (p *Pipeline) generateQuestions(ctx context.Context, prompt string) (string, error) {
	questions, err := p.questions.GenerateQuestions(ctx, prompt)
	if err != nil {
		return "", err
	}
	data, err := sonic.MarshalIndent(QuestionList{Questions: questions}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}
	return string(data), nil
}

func (p *Pipeline) evaluateNode(component string) func(ctx context.Context, content string) (Verdict, error) {
	return func(ctx context.Context, content string) (Verdict, error) {
		var prompt string
		err := compose.ProcessState(ctx, func(_ context.Context, state *pipelineState) error {
			prompt = state.UserPrompt
			return nil
		})
		if err != nil {
			return Verdict{}, err
		}
		slog.Debug("Evaluating generated output", "component", component)
		result, err := p.evaluator.Invoke(ctx, &evaluationInput{Prompt: prompt, Component: component, Content: content})
		if err != nil {
			return Verdict{}, fmt.Errorf("evaluate %s: %w", component, err)
		}
		verdict := Verdict{Component: component, Grade: result.Grade, Feedback: result.Feedback}
		slog.Debug("Evaluated generated output", "component", component, "grade", verdict.Grade)
		if p.options.hook != nil {
			p.options.hook(ctx, verdict)
		}
		return verdict, nil
	}
}

func (p *Pipeline) aggregateNode(ctx context.Context, verdicts map[string]any) (*draft, error) {
	in := &aggregateInput{}
	err := compose.ProcessState(ctx, func(_ context.Context, state *pipelineState) error {
		in.Prompt = state.UserPrompt
		in.Description = state.FormDescription
		in.Steps = state.FormSteps
		in.Questions = state.StepQuestions
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Aggregating final form")
	raw, err := p.aggregator.Invoke(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("aggregate final form: %w", err)
	}
	out := &draft{Raw: raw}
	for _, component := range []string{ComponentDescription, ComponentSteps, ComponentQuestions} {
		if v, ok := verdicts[component].(Verdict); ok {
			out.Evaluations = append(out.Evaluations, v)
		}
	}
	return out, nil
}

// Run executes the graph and validates the aggregated form.
func (p *Pipeline) Run(ctx context.Context, prompt string) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	d, err := p.runnable.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("run generation graph: %w", err)
	}
	content, err := structured.DecodeJSON[types.FormContent](d.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return &Result{Content: content, Evaluations: d.Evaluations}, nil
}

// Generate runs the pipeline, wraps the content into a new document and,
// when a writer is configured, persists it.
func (p *Pipeline) Generate(ctx context.Context, prompt string) (*types.FormDocument, *Result, error) {
	result, err := p.Run(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}
	doc := types.NewDocument(result.Content, p.options.now())
	if p.options.writer != nil {
		if err := p.options.writer.Write(ctx, doc); err != nil {
			return nil, nil, fmt.Errorf("persist generated form: %w", err)
		}
		slog.Info("Generated form saved", "form_id", doc.FormID, "title", doc.FormContent.FormTitle)
	}
	return doc, result, nil
}
