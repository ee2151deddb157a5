// Package locator implements the locator grammar and process-wide driver
// registry (§4.C, §6): `scheme ":" body ("#" fragment)? ("?" query)?`.
// Parsing is total — every string either yields a Locator picked up by a
// registered scheme's factory, or an UnknownScheme error.
package locator

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/dbcrossbar/dbcrossbar/internal/xerror"
)

// Locator is a parsed locator string, not yet handed to a driver factory.
type Locator struct {
	// Raw is the original, unparsed locator string.
	Raw string
	// Scheme is the leading "scheme:" keyword, e.g. "postgres", "gs".
	Scheme string
	// Body is everything between the scheme and an optional "#"/"?".
	Body string
	// Fragment is the "#..." suffix, without its leading '#' ("" if absent).
	Fragment string
	// Query holds "?key=value&..." parameters, parsed with net/url.
	Query url.Values
}

var schemeRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):`)

// Parse splits raw into its Scheme/Body/Fragment/Query components. It
// does not look the scheme up in any registry; use Registry.Open for
// that.
func Parse(raw string) (Locator, error) {
	m := schemeRe.FindStringSubmatchIndex(raw)
	if m == nil {
		return Locator{}, &xerror.LocatorError{Locator: raw, Reason: "missing \"scheme:\" prefix"}
	}
	scheme := raw[m[2]:m[3]]
	rest := raw[m[1]:]

	query := url.Values{}
	if qIdx := strings.IndexByte(rest, '?'); qIdx != -1 {
		q, err := url.ParseQuery(rest[qIdx+1:])
		if err != nil {
			return Locator{}, &xerror.LocatorError{Locator: raw, Reason: "invalid query string: " + err.Error()}
		}
		query = q
		rest = rest[:qIdx]
	}

	fragment := ""
	if fIdx := strings.IndexByte(rest, '#'); fIdx != -1 {
		fragment = rest[fIdx+1:]
		rest = rest[:fIdx]
	}

	return Locator{Raw: raw, Scheme: scheme, Body: rest, Fragment: fragment, Query: query}, nil
}

// Factory builds a driver handle from a parsed Locator. It returns `any`
// so this package never has to import internal/driver; callers type-assert
// the result to the richer internal/driver.Driver interface.
type Factory func(Locator) (any, error)

// Registry is a scheme -> driver-factory table. The zero value is usable;
// NewRegistry exists so tests can construct isolated instances rather than
// mutating process-wide state (§9 "Global state").
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates scheme with factory. Intended to be called once
// per scheme at process startup; registering the same scheme twice is a
// programming error and panics, matching the "registration… is
// effectively read-only thereafter" contract in §4.C.
func (r *Registry) Register(scheme string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[scheme]; exists {
		panic(fmt.Sprintf("locator: scheme %q registered twice", scheme))
	}
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[scheme] = factory
}

// Schemes returns the set of registered scheme names.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for s := range r.factories {
		names = append(names, s)
	}
	return names
}

// Open parses raw and, if its scheme is registered, invokes that
// scheme's factory. Returns an UnknownScheme-kind *xerror.LocatorError if
// no factory is registered for the parsed scheme.
func (r *Registry) Open(raw string) (any, error) {
	loc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	factory, ok := r.factories[loc.Scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, &xerror.LocatorError{Locator: raw, Reason: fmt.Sprintf("unknown scheme %q", loc.Scheme)}
	}
	return factory(loc)
}

// global is the process-wide registry every built-in driver registers
// itself with during package init (§9 "Only the locator registry and the
// worker pool are process-wide").
var global = NewRegistry()

// Global returns the process-wide Registry.
func Global() *Registry {
	return global
}

// Register registers scheme on the process-wide registry.
func Register(scheme string, factory Factory) {
	global.Register(scheme, factory)
}

// Open parses and opens raw against the process-wide registry.
func Open(raw string) (any, error) {
	return global.Open(raw)
}
