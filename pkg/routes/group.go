package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/ineed/pkg/openapi"
)

// Group organizes routes under a common prefix. Tags label the group's
// operations in the OpenAPI spec; Middleware applies to every route in the
// group and its children.
type Group struct {
	Prefix     string
	Tags       []string
	Middleware []func(http.Handler) http.Handler
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.register(mux, "", nil)
	}
}

// Document adds every route that carries an Operation to spec, keyed by its
// full path. Group tags are applied when the operation declares none.
func Document(spec *openapi.Spec, groups ...Group) {
	for _, g := range groups {
		g.document(spec, "", nil)
	}
}

func (g Group) register(mux *http.ServeMux, parent string, shared []func(http.Handler) http.Handler) {
	prefix := parent + g.Prefix
	stack := append(append([]func(http.Handler) http.Handler{}, shared...), g.Middleware...)

	for _, r := range g.Routes {
		mux.Handle(r.Method+" "+prefix+r.Pattern, r.handler(stack))
	}
	for _, child := range g.Children {
		child.register(mux, prefix, stack)
	}
}

func (g Group) document(spec *openapi.Spec, parent string, tags []string) {
	prefix := parent + g.Prefix
	if len(g.Tags) > 0 {
		tags = g.Tags
	}

	for _, r := range g.Routes {
		if r.Operation == nil {
			continue
		}
		op := *r.Operation
		if len(op.Tags) == 0 {
			op.Tags = tags
		}
		spec.AddOperation(r.Method, openAPIPath(prefix+r.Pattern), &op)
	}
	for _, child := range g.Children {
		child.document(spec, prefix, tags)
	}
}

// openAPIPath converts ServeMux wildcards such as {key...} to {key}.
func openAPIPath(pattern string) string {
	if pattern == "" {
		return "/"
	}
	return strings.ReplaceAll(pattern, "...}", "}")
}
