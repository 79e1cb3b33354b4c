// Package graphtest provides an in-memory fake graph driver for tests.
//
// The fake does not interpret Cypher. Tests script results by matching
// substrings of the query text and can inspect every statement that ran,
// which is enough to assert query selection, bound parameters, transaction
// ordering, and session cleanup.
package graphtest

import (
	"context"
	"strings"
	"sync"

	"github.com/groupmesh/groupmesh-server/graph"
)

// Call records one statement executed through the fake.
type Call struct {
	Query  string
	Params map[string]any
	Write  bool
}

type stub struct {
	substr  string
	records []graph.Record
	err     error
}

// Driver is a scriptable graph.Driver.
type Driver struct {
	mu       sync.Mutex
	stubs    []stub
	calls    []Call
	sessions int
	closed   int
}

var _ graph.Driver = (*Driver)(nil)

// NewDriver creates an empty fake driver. Unscripted queries succeed with no
// records.
func NewDriver() *Driver {
	return &Driver{}
}

// Stub scripts records for every query containing substr. Earlier stubs win.
func (d *Driver) Stub(substr string, records ...graph.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stubs = append(d.stubs, stub{substr: substr, records: records})
}

// StubErr scripts a failure for every query containing substr.
func (d *Driver) StubErr(substr string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stubs = append(d.stubs, stub{substr: substr, err: err})
}

// Calls returns every statement executed so far, in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// OpenSessions returns the number of sessions opened but not yet closed.
func (d *Driver) OpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions - d.closed
}

// NewSession opens a fake session.
func (d *Driver) NewSession(context.Context) graph.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions++
	return &session{driver: d}
}

// Close is a no-op on the fake.
func (d *Driver) Close(context.Context) error {
	return nil
}

func (d *Driver) run(query string, params map[string]any, write bool) ([]graph.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Query: query, Params: params, Write: write})

	for _, s := range d.stubs {
		if strings.Contains(query, s.substr) {
			return s.records, s.err
		}
	}
	return nil, nil
}

type session struct {
	driver *Driver
}

func (s *session) ExecuteRead(ctx context.Context, work graph.TxWork) (any, error) {
	return work(ctx, &tx{driver: s.driver, write: false})
}

func (s *session) ExecuteWrite(ctx context.Context, work graph.TxWork) (any, error) {
	return work(ctx, &tx{driver: s.driver, write: true})
}

func (s *session) Close(context.Context) error {
	s.driver.mu.Lock()
	defer s.driver.mu.Unlock()
	s.driver.closed++
	return nil
}

type tx struct {
	driver *Driver
	write  bool
}

func (t *tx) Run(ctx context.Context, query string, params map[string]any) ([]graph.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.driver.run(query, params, t.write)
}
