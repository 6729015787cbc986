package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements(768)
	require.Len(t, stmts, 4)

	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", stmts[0])
	assert.Contains(t, stmts[1], "embedding         vector(768)")
	assert.Contains(t, stmts[2], "UNIQUE INDEX")
	assert.Contains(t, stmts[2], "(generic_name_key)")
	assert.Contains(t, stmts[3], "vector_cosine_ops")

	for _, stmt := range stmts {
		assert.True(t, strings.Contains(stmt, "IF NOT EXISTS"), stmt)
	}
}
