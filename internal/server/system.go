package server

import (
	"fmt"
	"time"

	"github.com/methodbus/methodbus/pkg/api"
	"github.com/methodbus/methodbus/pkg/validate"
)

// systemHealth is the system.health output.
type systemHealth struct {
	Status      string `json:"status"`
	Collections int    `json:"collections"`
	Methods     int    `json:"methods"`
	Hooks       int    `json:"hooks"`
	Revision    int    `json:"revision"`
	UptimeSecs  int64  `json:"uptimeSeconds"`
	Timestamp   string `json:"timestamp"`
}

// systemMethodEntry is one entry in the system.methods output.
type systemMethodEntry struct {
	Name       string `json:"name"`
	Collection string `json:"collection"`
	BasePath   string `json:"basePath,omitempty"`
}

// systemParam is one parameter in the system.describe output.
type systemParam struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Convert     string   `json:"convert,omitempty"`
	Validators  []string `json:"validators,omitempty"`
}

// systemDescribe is the system.describe output.
type systemDescribe struct {
	Name        string        `json:"name"`
	Collection  string        `json:"collection"`
	Bare        string        `json:"bare"`
	BasePath    string        `json:"basePath,omitempty"`
	Description string        `json:"description,omitempty"`
	Params      []systemParam `json:"params"`
}

// NewSystemCollection builds the built-in "system" collection: health,
// method listing and per-method describe over the live registry.
func NewSystemCollection(reg *api.Registry, startedAt time.Time) *api.Collection {
	return api.NewCollection("system", "/system").
		MethodWithDescription("health", "Service health and registry statistics",
			func(_ *api.Context, reply api.ReplyFunc) {
				reply(nil, &systemHealth{
					Status:      "healthy",
					Collections: len(reg.Collections()),
					Methods:     len(reg.MethodNames()),
					Hooks:       reg.HookCount(),
					Revision:    reg.Revision(),
					UptimeSecs:  int64(time.Since(startedAt).Seconds()),
					Timestamp:   time.Now().UTC().Format(time.RFC3339),
				})
			}).
		MethodWithDescription("methods", "List all registered methods",
			func(_ *api.Context, reply api.ReplyFunc) {
				names := reg.MethodNames()
				entries := make([]systemMethodEntry, 0, len(names))
				for _, name := range names {
					m, ok := reg.Method(name)
					if !ok {
						continue
					}
					entries = append(entries, systemMethodEntry{
						Name:       m.Name(),
						Collection: m.Collection(),
						BasePath:   m.BasePath(),
					})
				}
				reply(nil, entries)
			}).
		MethodWithDescription("describe", "Describe one registered method",
			func(ictx *api.Context, reply api.ReplyFunc) {
				name, _ := ictx.Params["method"].(string)
				m, ok := reg.Method(name)
				if !ok {
					reply(api.MethodNotFoundError(name), nil)
					return
				}

				params := m.Params()
				out := &systemDescribe{
					Name:        m.Name(),
					Collection:  m.Collection(),
					Bare:        m.Bare(),
					BasePath:    m.BasePath(),
					Description: m.Description(),
					Params:      make([]systemParam, 0, len(params)),
				}
				for _, p := range params {
					sp := systemParam{
						Name:        p.Name,
						Description: p.Description,
						Convert:     p.Convert,
					}
					for _, spec := range p.Validates {
						sp.Validators = append(sp.Validators, spec.Name)
					}
					out.Params = append(out.Params, sp)
				}
				reply(nil, out)
			},
			api.Param{
				Name:        "method",
				Description: fmt.Sprintf("Fully-qualified method name, e.g. %q", "system.health"),
				Validates:   []validate.Spec{validate.Required("method is required")},
			})
}
