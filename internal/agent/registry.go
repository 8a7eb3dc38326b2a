package agent

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/logging"
)

// Handler executes one tool call. The returned string goes back to the model
// verbatim; a non-nil error is folded into an "Error: ..." result by the
// registry so a failed tool never aborts the turn.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named, described handler.
type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

// ToolDescriptor is the {name, description} pair advertised to the engine.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry holds the toolset for a daemon instance. Registration happens at
// startup; dispatch is read-only after that.
type Registry struct {
	order  []string
	tools  map[string]Tool
	logger *logrus.Entry
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logging.NewLogger("tools"),
	}
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Descriptors lists the registered tools in registration order.
func (r *Registry) Descriptors() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, ToolDescriptor{Name: t.Name, Description: t.Description})
	}
	return out
}

// Dispatch runs a tool call and always produces a result string. Unknown
// tools and handler errors become "Error: ..." results.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) string {
	t, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool '%s'", name)
	}

	result, err := t.Handler(ctx, args)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"tool":  name,
			"error": err,
		}).Warn("Tool call failed")
		return "Error: " + errorText(err)
	}
	return result
}

// errorText prefers the human message of a structured error over its
// CODE-prefixed Error() form; tool results read better without codes.
func errorText(err error) string {
	if serr, ok := err.(*errors.SeriemError); ok {
		return serr.Message
	}
	return err.Error()
}

// decodeArgs fills a typed args struct from the loosely-typed map the engine
// delivers. Weak typing tolerates the numeric and boolean forms different
// models emit.
func decodeArgs(args map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create argument decoder")
	}
	if err := decoder.Decode(args); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid tool arguments")
	}
	return nil
}
