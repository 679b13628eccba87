// Package recipe holds the unit of work the wrapper schedules: one AutoPkg
// recipe identifier plus the outcome fields the run fills in.
package recipe

import (
	"strings"
)

// Trust is the tri-state outcome of trust verification.
type Trust int

const (
	TrustUnknown  Trust = iota // verification not run (disabled or not reached)
	TrustVerified              // verify-trust-info succeeded
	TrustFailed                // verify-trust-info reported drift
)

// String returns a human label for the trust state.
func (t Trust) String() string {
	switch t {
	case TrustVerified:
		return "verified"
	case TrustFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failure is one entry of an autopkg run report's failures list.
type Failure struct {
	Message   string `json:"message" plist:"message"`
	Recipe    string `json:"recipe,omitempty" plist:"recipe"`
	Traceback string `json:"traceback,omitempty" plist:"traceback"`
}

// Results captures what a run produced.
type Results struct {
	Imported []map[string]string // munki importer rows
	Failures []Failure
	Message  string // stderr of the failing autopkg call, if any
}

// Recipe is a single recipe and its run state. The identifier is fixed at
// construction; the remaining fields are written only by the worker that
// owns the recipe and read after its batch completes.
type Recipe struct {
	identifier string

	PostProcessors []string
	Trust          Trust
	Error          bool
	Updated        bool
	Results        Results
}

// New creates a recipe for the given identifier.
func New(identifier string, postProcessors []string) *Recipe {
	return &Recipe{
		identifier:     strings.TrimSpace(identifier),
		PostProcessors: postProcessors,
	}
}

// Identifier returns the recipe identifier exactly as it is passed to autopkg.
func (r *Recipe) Identifier() string { return r.identifier }

// Name is the identifier segment before the first dot.
func (r *Recipe) Name() string {
	name, _, _ := strings.Cut(r.identifier, ".")
	return name
}

// Type is everything after the first dot, or "" if there is no dot.
func (r *Recipe) Type() string { return TypeOf(r.identifier) }

// Segments returns Type split on dots with empty parts dropped.
func (r *Recipe) Segments() []string { return SegmentsOf(r.identifier) }

// Failed reports whether the run errored or the report carried failures.
// A failed trust verification alone does not count.
func (r *Recipe) Failed() bool {
	return r.Error || len(r.Results.Failures) > 0
}

// String implements fmt.Stringer.
func (r *Recipe) String() string { return r.identifier }

// TypeOf returns the part of an identifier after its first dot.
func TypeOf(identifier string) string {
	_, typ, _ := strings.Cut(identifier, ".")
	return typ
}

// SegmentsOf returns the dot separated parts of an identifier's type.
func SegmentsOf(identifier string) []string {
	return splitDots(TypeOf(identifier))
}

func splitDots(s string) []string {
	parts := strings.Split(s, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
