package toolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yanqian/flowdash/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/flowdash/pkg/errors"
	"github.com/yanqian/flowdash/pkg/metrics"
)

var tracer = otel.Tracer("github.com/yanqian/flowdash/internal/domain/toolkit")

// Descriptor is the public description of a tool.
type Descriptor struct {
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	ProgressTitle       string         `json:"progressTitle"`
	ProgressDescription string         `json:"progressDescription"`
	Parameters          map[string]any `json:"parameters"`
}

// Outcome is the result of one tool execution.
type Outcome struct {
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
	Result  any    `json:"result"`
}

// Content renders the result as the JSON text handed back to the model.
func (o Outcome) Content() (string, error) {
	data, err := json.Marshal(o.Result)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", o.Tool, err)
	}
	return string(data), nil
}

type registeredTool struct {
	definition
	schema *jsonschema.Schema
}

// Registry holds the dashboard tools and their compiled argument schemas.
type Registry struct {
	tools    map[string]registeredTool
	order    []string
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewRegistry compiles the parameter schema of every builtin tool.
func NewRegistry(recorder *metrics.Recorder, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		tools:    make(map[string]registeredTool),
		recorder: recorder,
		logger:   logger.With("component", "toolkit.registry"),
	}
	for _, def := range builtinTools() {
		schema, err := compileSchema(def.name, def.parameters)
		if err != nil {
			return nil, err
		}
		r.tools[def.name] = registeredTool{definition: def, schema: schema}
		r.order = append(r.order, def.name)
	}
	return r, nil
}

func compileSchema(name string, parameters map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(parameters)
	if err != nil {
		return nil, fmt.Errorf("encode %s schema: %w", name, err)
	}
	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return schema, nil
}

// Descriptors lists the tools in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Descriptor{
			Name:                t.name,
			Description:         t.description,
			ProgressTitle:       t.progressTitle,
			ProgressDescription: t.progressDescription,
			Parameters:          t.parameters,
		})
	}
	return out
}

// Definitions returns the tools in the chat completion function format.
func (r *Registry) Definitions() []chatgpt.Tool {
	out := make([]chatgpt.Tool, 0, len(r.order))
	for _, d := range r.Descriptors() {
		out = append(out, chatgpt.Tool{
			Type: "function",
			Function: chatgpt.ToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}

// Progress returns the progress title for a tool, or a generic one.
func (r *Registry) Progress(name string) (string, string) {
	if t, ok := r.tools[name]; ok {
		return t.progressTitle, t.progressDescription
	}
	return "Running " + name, ""
}

// Execute validates args against the tool schema and runs it.
// Argument problems are reported inside the Outcome; only an unknown tool is an error.
func (r *Registry) Execute(ctx context.Context, name string, args []byte) (Outcome, error) {
	t, ok := r.tools[name]
	if !ok {
		return Outcome{}, apperrors.Wrap(apperrors.CodeNotFound, "unknown tool "+name, nil)
	}

	ctx, span := tracer.Start(ctx, "toolkit.execute")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	outcome := r.execute(ctx, t, args)
	span.SetAttributes(attribute.Bool("tool.success", outcome.Success))
	if !outcome.Success {
		span.SetStatus(codes.Error, "tool reported failure")
	}
	label := metrics.OutcomeSuccess
	if !outcome.Success {
		label = metrics.OutcomeFailure
	}
	r.recorder.ToolCall(name, label)
	r.logger.Debug("tool executed", "tool", name, "success", outcome.Success)
	return outcome, nil
}

func (r *Registry) execute(ctx context.Context, t registeredTool, args []byte) Outcome {
	if len(bytes.TrimSpace(args)) == 0 {
		args = []byte("{}")
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return invalidArguments(t.name, "arguments are not valid JSON: "+err.Error())
	}
	if err := t.schema.Validate(decoded); err != nil {
		return invalidArguments(t.name, strings.TrimSpace(err.Error()))
	}
	result, success, err := t.handle(ctx, args)
	if err != nil {
		return invalidArguments(t.name, err.Error())
	}
	return Outcome{Tool: t.name, Success: success, Result: result}
}

func invalidArguments(tool, details string) Outcome {
	return Outcome{
		Tool: tool,
		Result: InvalidArguments{
			Success: false,
			Error:   ErrInvalidArguments,
			Details: details,
		},
	}
}
