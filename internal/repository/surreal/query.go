package surreal

import (
	"context"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// queryAll runs a single-statement query. An empty table or an unmatched
// record yields an empty slice, so callers decide "not found" from the shape
// of the result and every error is a real failure.
func queryAll[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	return statementRows(results), nil
}

// statementRows returns the rows of the first statement, or nil when it
// produced none
func statementRows[T any](results *[]surrealdb.QueryResult[[]T]) []T {
	if results == nil || len(*results) == 0 {
		return nil
	}
	return (*results)[0].Result
}

func selectRecord[T any](ctx context.Context, db *surrealdb.DB, rid models.RecordID) (*T, error) {
	rows, err := queryAll[T](ctx, db, "SELECT * FROM $rid", map[string]any{"rid": rid})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func deleteRecord[T any](ctx context.Context, db *surrealdb.DB, rid models.RecordID) (*T, error) {
	rows, err := queryAll[T](ctx, db, "DELETE $rid RETURN BEFORE", map[string]any{"rid": rid})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
