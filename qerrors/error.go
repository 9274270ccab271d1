// Package qerrors defines the tagged error taxonomy shared by every stage
// of the query engine: the front-end adapters, the optimizer, the physical
// planner, and the executor all return *Error rather than ad-hoc sentinel
// values, so a caller can switch on Kind without string-matching messages.
package qerrors

import "fmt"

// Kind identifies one of the error taxonomy entries from the engine's
// error-handling design. Kinds are distinct categories, not type names.
type Kind string

const (
	// SchemaMismatch means a column referenced by a plan does not exist
	// or has the wrong logical type.
	SchemaMismatch Kind = "SchemaMismatch"
	// UnsupportedExpression means a front-end adapter cannot translate a
	// construct into the supported logical-plan/predicate set.
	UnsupportedExpression Kind = "UnsupportedExpression"
	// SqlParseError means the SQL string front-end failed to parse.
	SqlParseError Kind = "SqlParseError"
	// CorruptChunk means a chunk's internal buffers violate an invariant
	// (length mismatch, non-monotone offsets, wrong-size null bitmap).
	CorruptChunk Kind = "CorruptChunk"
	// ArithmeticOverflow means an integer aggregation exceeded its target
	// width.
	ArithmeticOverflow Kind = "ArithmeticOverflow"
	// Cancelled means the caller's cancellation token fired mid-query.
	Cancelled Kind = "Cancelled"
	// CapacityExceeded means hash aggregation exceeded its configured
	// group-table size.
	CapacityExceeded Kind = "CapacityExceeded"
)

// Error is the single error value returned by every core package. It is
// deliberately a tagged struct rather than a family of sentinel values, so
// that Entity/Name/Message context travels with the error the way the
// teacher codebase's ValidationError does.
type Error struct {
	Kind    Kind
	Entity  string // what was being processed: "column", "chunk", "plan", ...
	Name    string // the specific name/index involved, if any
	Message string
	Pos     int // byte offset into source text; only meaningful for SqlParseError
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == SqlParseError:
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Pos, e.Message)
	case e.Name != "":
		return fmt.Sprintf("%s: %s %q: %s", e.Kind, e.Entity, e.Name, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, qerrors.SchemaMismatch) style checks work by
// comparing Kind; callers more commonly switch on As+Kind, but this keeps
// errors.Is usable for the common "is this kind of failure" check.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds a tagged error with just a kind and message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a tagged error that also carries an underlying cause for
// errors.Unwrap / errors.As chains.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithEntity returns a copy of the error annotated with an entity/name pair,
// mirroring the teacher's ValidationError{Entity, Name, Message} shape.
func (e *Error) WithEntity(entity, name string) *Error {
	cp := *e
	cp.Entity = entity
	cp.Name = name
	return &cp
}

// SchemaMismatchf is a convenience constructor for the most common error
// kind raised by the planner and executor.
func SchemaMismatchf(format string, args ...any) *Error {
	return New(SchemaMismatch, format, args...)
}

// Corruptf is a convenience constructor for chunk invariant violations.
func Corruptf(format string, args ...any) *Error {
	return New(CorruptChunk, format, args...)
}
