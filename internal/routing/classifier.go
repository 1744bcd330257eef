package routing

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jacksonlee411/peopleops/pkg/authz"
)

type RouteClass string

const (
	RouteClassInternalAPI RouteClass = "internal_api"
	RouteClassOps         RouteClass = "ops"
)

// RouteSpec is the resolved table row for one method+path.
type RouteSpec struct {
	Method      string
	Path        string
	Class       RouteClass
	Requirement authz.Requirement
}

type Classifier struct {
	entrypoint        string
	allowExact        map[string]map[string]RouteSpec
	allowPathPatterns []pathPatternRoute
	specs             []RouteSpec
}

func NewClassifier(a Allowlist, entrypoint string) (*Classifier, error) {
	ep, ok := a.Entrypoints[entrypoint]
	if !ok {
		return nil, errors.New("allowlist: missing entrypoint")
	}
	if len(ep.Routes) == 0 {
		return nil, errors.New("allowlist: entrypoint routes empty")
	}

	c := &Classifier{entrypoint: entrypoint, allowExact: make(map[string]map[string]RouteSpec)}
	patternIndex := make(map[string]int)
	for _, r := range ep.Routes {
		if r.Path == "" || r.RouteClass == "" || len(r.Methods) == 0 {
			return nil, errors.New("allowlist: invalid route")
		}
		req, err := requirementFromRoute(r)
		if err != nil {
			return nil, err
		}

		var methods map[string]RouteSpec
		if p, ok := parsePathPattern(r.Path); ok {
			idx, seen := patternIndex[r.Path]
			if !seen {
				idx = len(c.allowPathPatterns)
				patternIndex[r.Path] = idx
				c.allowPathPatterns = append(c.allowPathPatterns, pathPatternRoute{pattern: p, methods: make(map[string]RouteSpec)})
			}
			methods = c.allowPathPatterns[idx].methods
		} else {
			if c.allowExact[r.Path] == nil {
				c.allowExact[r.Path] = make(map[string]RouteSpec)
			}
			methods = c.allowExact[r.Path]
		}

		for _, m := range r.Methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if _, dup := methods[m]; dup {
				return nil, fmt.Errorf("allowlist: duplicate route %s %s", m, r.Path)
			}
			spec := RouteSpec{Method: m, Path: r.Path, Class: RouteClass(r.RouteClass), Requirement: req}
			methods[m] = spec
			c.specs = append(c.specs, spec)
		}
	}
	return c, nil
}

func requirementFromRoute(r Route) (authz.Requirement, error) {
	access := authz.AccessOpen
	if strings.TrimSpace(r.Access) != "" {
		a, err := authz.ParseAccess(r.Access)
		if err != nil {
			return authz.Requirement{}, fmt.Errorf("allowlist: %s: %w", r.Path, err)
		}
		access = a
	}
	req := authz.Requirement{
		Object: strings.TrimSpace(r.Object),
		Action: strings.TrimSpace(r.Action),
		Access: access,
		Roles:  r.Roles,
	}
	if err := req.Validate(); err != nil {
		return authz.Requirement{}, fmt.Errorf("allowlist: %s: %w", r.Path, err)
	}
	return req, nil
}

// Lookup finds the declared row for method+path, exact paths first.
func (c *Classifier) Lookup(method string, path string) (RouteSpec, bool) {
	if methods, ok := c.allowExact[path]; ok {
		spec, ok := methods[method]
		return spec, ok
	}
	for _, p := range c.allowPathPatterns {
		if !p.pattern.Match(path) {
			continue
		}
		if spec, ok := p.methods[method]; ok {
			return spec, true
		}
	}
	return RouteSpec{}, false
}

// Requirement returns the declared requirement for method+path. Undeclared
// routes are Open.
func (c *Classifier) Requirement(method string, path string) authz.Requirement {
	if spec, ok := c.Lookup(method, path); ok {
		return spec.Requirement
	}
	return authz.Requirement{Access: authz.AccessOpen}
}

func (c *Classifier) Requirements() []authz.Requirement {
	out := make([]authz.Requirement, 0, len(c.specs))
	for _, s := range c.specs {
		out = append(out, s.Requirement)
	}
	return out
}

// Routes returns every declared method+path row in table order.
func (c *Classifier) Routes() []RouteSpec {
	return append([]RouteSpec(nil), c.specs...)
}

func (c *Classifier) Classify(path string) RouteClass {
	if methods, ok := c.allowExact[path]; ok {
		if spec, ok := methods[http.MethodGet]; ok {
			return spec.Class
		}
		for _, spec := range methods {
			return spec.Class
		}
	}
	for _, p := range c.allowPathPatterns {
		if p.pattern.Match(path) {
			for _, spec := range p.methods {
				return spec.Class
			}
		}
	}
	if hasPrefixSegment(path, "/ops") {
		return RouteClassOps
	}
	return RouteClassInternalAPI
}

func hasPrefixSegment(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

type pathPatternRoute struct {
	pattern PathPattern
	methods map[string]RouteSpec
}
