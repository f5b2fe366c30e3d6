package tools

import (
	"fmt"
)

// Registry is the name-keyed tool catalog. Dispatch is O(1) and duplicate
// names fail at registration, so uniqueness is a construction-time
// invariant rather than a runtime assumption.
type Registry struct {
	defs  map[string]*Definition
	order []string // registration order, for stable listing
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition to the catalog
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("tool definition missing name")
	}
	if def.Run == nil {
		return fmt.Errorf("tool %s has no body", def.Name)
	}
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}

	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister registers a definition and panics on conflict; used for the
// static catalog built at process start
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns a definition by name
func (r *Registry) Get(name string) (*Definition, bool) {
	def, exists := r.defs[name]
	return def, exists
}

// List returns all definitions in registration order
func (r *Registry) List() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Names returns all tool names in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// PropertySchema is one parameter in the exported function-calling schema.
// Field names bind an external model-calling API; do not rename them.
type PropertySchema struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// ParameterSchema is the object schema of a tool's arguments
type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// FunctionSchema is the exported description of one tool
type FunctionSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ToolSchema wraps a function schema for function-calling APIs
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// Schema exports one definition in function-calling form
func (d *Definition) Schema() FunctionSchema {
	properties := make(map[string]PropertySchema, len(d.Params))
	var required []string

	for _, p := range d.Params {
		properties[p.Name] = PropertySchema{
			Type:        p.Type,
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return FunctionSchema{
		Name:        d.Name,
		Description: d.Description,
		Parameters: ParameterSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

// Schemas exports every registered tool for function calling, in
// registration order
func (r *Registry) Schemas() []ToolSchema {
	schemas := make([]ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, ToolSchema{
			Type:     "function",
			Function: r.defs[name].Schema(),
		})
	}
	return schemas
}
