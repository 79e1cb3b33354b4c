package bolt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupmesh/groupmesh-server/graph"
)

func TestTranslateErrConstraintViolation(t *testing.T) {
	neoErr := &neo4j.Neo4jError{
		Code: "Neo.ClientError.Schema.ConstraintValidationFailed",
		Msg:  "Node(42) already exists with label `Group` and property `slug`",
	}

	got := translateErr(fmt.Errorf("run: %w", neoErr))

	require.True(t, graph.IsConstraintViolation(got))
	var cv *graph.ConstraintViolationError
	require.True(t, errors.As(got, &cv))
	assert.Equal(t, neoErr.Code, cv.Code)
	assert.Contains(t, cv.Message, "slug")
}

func TestTranslateErrOtherNeoErrorsPassThrough(t *testing.T) {
	neoErr := &neo4j.Neo4jError{
		Code: "Neo.ClientError.Statement.SyntaxError",
		Msg:  "Invalid input",
	}

	got := translateErr(neoErr)

	assert.False(t, graph.IsConstraintViolation(got))
	assert.Equal(t, neoErr, got)
}

func TestTranslateErrNil(t *testing.T) {
	assert.NoError(t, translateErr(nil))
}

func TestOpenRejectsMalformedURI(t *testing.T) {
	_, err := Open(Config{URI: "://not-a-uri"})
	assert.Error(t, err)
}

func TestOpenConnectsLazily(t *testing.T) {
	drv, err := Open(Config{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "secret",
	})

	require.NoError(t, err, "opening must not dial")
	assert.NoError(t, drv.Close(context.Background()))
}
