// Package bolt adapts the Neo4j bolt driver to the graph store port.
package bolt

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/groupmesh/groupmesh-server/graph"
)

// constraintViolationCode is the Neo4j failure code raised when a write would
// duplicate a value covered by a uniqueness constraint.
const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Config holds bolt connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string // empty selects the server default database
}

// Driver wraps a Neo4j driver behind the graph.Driver port.
type Driver struct {
	drv      neo4j.DriverWithContext
	database string
}

var _ graph.Driver = (*Driver)(nil)

// Open creates a bolt-backed graph driver. The underlying driver connects
// lazily; Open fails only on malformed configuration.
func Open(cfg Config) (*Driver, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	drv, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("open bolt driver: %w", err)
	}

	return &Driver{drv: drv, database: cfg.Database}, nil
}

// NewSession opens a dedicated session. The caller must Close it.
func (d *Driver) NewSession(ctx context.Context) graph.Session {
	sess := d.drv.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
	return &session{sess: sess}
}

// Close releases the underlying driver and its connection pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.drv.Close(ctx)
}

type session struct {
	sess neo4j.SessionWithContext
}

func (s *session) ExecuteRead(ctx context.Context, work graph.TxWork) (any, error) {
	out, err := s.sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(ctx, &managedTx{tx: tx})
	})
	return out, translateErr(err)
}

func (s *session) ExecuteWrite(ctx context.Context, work graph.TxWork) (any, error) {
	out, err := s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(ctx, &managedTx{tx: tx})
	})
	return out, translateErr(err)
}

func (s *session) Close(ctx context.Context) error {
	return s.sess.Close(ctx)
}

type managedTx struct {
	tx neo4j.ManagedTransaction
}

func (t *managedTx) Run(ctx context.Context, query string, params map[string]any) ([]graph.Record, error) {
	result, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, translateErr(err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, translateErr(err)
	}

	out := make([]graph.Record, 0, len(records))
	for _, rec := range records {
		row := make(graph.Record, len(rec.Keys))
		for i, key := range rec.Keys {
			row[key] = rec.Values[i]
		}
		out = append(out, row)
	}
	return out, nil
}

// translateErr maps driver failures onto the port's error types. Uniqueness
// rejections become ConstraintViolationError so callers can translate them to
// domain conflicts; connectivity failures become UnavailableError.
func translateErr(err error) error {
	if err == nil {
		return nil
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolationCode {
		return &graph.ConstraintViolationError{Code: neoErr.Code, Message: neoErr.Msg}
	}

	if neo4j.IsConnectivityError(err) {
		return &graph.UnavailableError{Err: err}
	}

	return err
}
