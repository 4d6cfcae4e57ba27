package surreal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	surrealdb "github.com/surrealdb/surrealdb.go"
)

func TestStatementRows(t *testing.T) {
	assert.Nil(t, statementRows[categoryRecord](nil))
	assert.Nil(t, statementRows(&[]surrealdb.QueryResult[[]categoryRecord]{}))
	assert.Empty(t, statementRows(&[]surrealdb.QueryResult[[]categoryRecord]{{Status: "OK"}}))

	rows := statementRows(&[]surrealdb.QueryResult[[]categoryRecord]{
		{Status: "OK", Result: []categoryRecord{{Name: "Deporte"}, {Name: "Mobiliario"}}},
		{Status: "OK", Result: []categoryRecord{{Name: "ignored"}}},
	})
	assert.Equal(t, []categoryRecord{{Name: "Deporte"}, {Name: "Mobiliario"}}, rows)
}
