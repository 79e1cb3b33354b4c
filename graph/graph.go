// Package graph defines the property-graph store port the groupmesh core depends on.
//
// The core issues parameterized Cypher through this interface and never touches a
// concrete driver directly. The production adapter lives in graph/bolt; graphtest
// provides an in-memory fake for resolver tests.
package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Record is a single result row, keyed by the names in the query's RETURN clause.
// Node projections (e.g. `RETURN group {.*, myRole: membership.role}`) arrive as
// nested map[string]any values.
type Record map[string]any

// Tx is a transaction in progress. Statements run on the same Tx execute in
// program order and commit or roll back together.
type Tx interface {
	Run(ctx context.Context, query string, params map[string]any) ([]Record, error)
}

// TxWork is a unit of work executed inside a managed transaction. Returning an
// error rolls the transaction back.
type TxWork func(ctx context.Context, tx Tx) (any, error)

// Session is a dedicated store session. Callers must Close it on every exit
// path; transactions issued on one session execute in program order.
type Session interface {
	ExecuteRead(ctx context.Context, work TxWork) (any, error)
	ExecuteWrite(ctx context.Context, work TxWork) (any, error)
	Close(ctx context.Context) error
}

// Driver hands out sessions against the property graph.
type Driver interface {
	NewSession(ctx context.Context) Session
	Close(ctx context.Context) error
}

// Label names a node label. Labels are interpolated into Cypher text (parameters
// cannot bind labels), so only values passing Valid may ever reach a query.
type Label string

// Node labels of the groupmesh subgraph.
const (
	LabelGroup    Label = "Group"
	LabelUser     Label = "User"
	LabelPost     Label = "Post"
	LabelCategory Label = "Category"
)

var labelRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Valid reports whether the label is safe to interpolate into a query.
func (l Label) Valid() bool {
	return labelRe.MatchString(string(l))
}

func (l Label) String() string {
	return string(l)
}

// ConstraintViolationError is returned by adapters when the store rejects a
// write that would duplicate a value covered by a uniqueness constraint. It is
// the authority behind the slug allocator's optimistic pre-check.
type ConstraintViolationError struct {
	// Code is the store-specific failure code, e.g.
	// Neo.ClientError.Schema.ConstraintValidationFailed.
	Code string
	// Message is the store-supplied detail, typically naming the label and
	// property whose constraint fired.
	Message string
}

func (e *ConstraintViolationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("constraint violation (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("constraint violation: %s", e.Message)
}

// IsConstraintViolation reports whether err carries a store uniqueness rejection.
func IsConstraintViolation(err error) bool {
	var cv *ConstraintViolationError
	return errors.As(err, &cv)
}

// UnavailableError is returned by adapters for transport or connection
// failures. It is not recoverable locally and is propagated as-is.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("graph store unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is a store connectivity failure.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}
