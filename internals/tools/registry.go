package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/docgate/docgate/internals/schemas"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrUnknownTool       = errors.New("unknown tool")
	ErrInvalidArguments  = errors.New("invalid arguments")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrAlreadyRegistered = errors.New("tool already registered")
)

var schemaPrinter = message.NewPrinter(language.English)

// Call is what a handler sees of an invocation. Log, when set, appends a
// progress line to the running task.
type Call struct {
	Subject   string
	Arguments map[string]any
	Log       func(line string)
}

func (c Call) Logf(format string, args ...any) {
	if c.Log != nil {
		c.Log(fmt.Sprintf(format, args...))
	}
}

type Handler func(ctx context.Context, call Call) (map[string]any, error)

// Tool describes one invocable operation. Resource and Action name the
// permission pair checked before the handler runs; tools without a pair are
// not gated.
type Tool struct {
	Name        string
	Description string
	Resource    string
	Action      string
	Required    []string
	InputSchema string
	Handler     Handler

	schema *jsonschema.Schema
}

func (t *Tool) Gated() bool {
	return t.Resource != "" && t.Action != ""
}

// Invoke checks required keys, validates the arguments against the input
// schema and runs the handler. Argument failures wrap ErrInvalidArguments and
// never reach the handler.
func (t *Tool) Invoke(ctx context.Context, call Call) (map[string]any, error) {
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
		call.Arguments = args
	}
	for _, key := range t.Required {
		if _, ok := args[key]; !ok {
			return nil, fmt.Errorf("%w: missing required argument '%s'", ErrInvalidArguments, key)
		}
	}
	if t.schema != nil {
		if err := t.schema.Validate(jsonCompatible(args)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidArguments, describeSchemaError(err))
		}
	}
	return t.Handler(ctx, call)
}

func (t *Tool) Describe() schemas.ToolSchema {
	return schemas.ToolSchema{
		Name:        t.Name,
		Description: t.Description,
		Resource:    t.Resource,
		Action:      t.Action,
		InputSchema: json.RawMessage(t.InputSchema),
	}
}

// Registry maps tool names to descriptors. Registration order is kept for
// listing.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]*Tool{}}
}

func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" || tool.Handler == nil {
		return fmt.Errorf("invalid tool %q", tool.Name)
	}
	if (tool.Resource == "") != (tool.Action == "") {
		return fmt.Errorf("tool %s: resource and action must be set together", tool.Name)
	}
	if tool.InputSchema != "" {
		compiled, err := compileSchema(tool.Name, tool.InputSchema)
		if err != nil {
			return err
		}
		tool.schema = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = &tool
	r.order = append(r.order, tool.Name)
	return nil
}

func (r *Registry) Resolve(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool, nil
}

func (r *Registry) Schemas() []schemas.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schemas.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Describe())
	}
	return out
}

func compileSchema(name, raw string) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("tool %s: parse input schema: %w", name, err)
	}
	resource := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("tool %s: add input schema: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("tool %s: compile input schema: %w", name, err)
	}
	return compiled, nil
}

func describeSchemaError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	collectSchemaErrors(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collectSchemaErrors(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, msgs)
	}
}

// jsonCompatible round-trips args through encoding/json so the validator only
// sees plain JSON values.
func jsonCompatible(args map[string]any) any {
	data, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return args
	}
	return out
}
