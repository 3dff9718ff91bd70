package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ambda/dataops-platform-sub001/pkg/executor"
)

func openTestExecutor(t *testing.T) *SQLiteExecutor {
	t.Helper()
	exec, err := New(executor.Config{Type: "sqlite", Database: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { exec.Close() })
	return exec
}

func TestExecute_DDLAndQuery(t *testing.T) {
	exec := openTestExecutor(t)
	ctx := context.Background()

	qr := exec.Execute(ctx, "CREATE TABLE events (id INTEGER, name TEXT)", 10)
	require.True(t, qr.Success, qr.Error)

	qr = exec.Execute(ctx, "INSERT INTO events VALUES (1, 'a'), (2, 'b'), (3, NULL)", 10)
	require.True(t, qr.Success, qr.Error)
	assert.EqualValues(t, 3, qr.RowCount)

	qr = exec.Execute(ctx, "SELECT id, name FROM events ORDER BY id", 10)
	require.True(t, qr.Success, qr.Error)
	assert.EqualValues(t, 3, qr.RowCount)
	assert.Equal(t, []string{"id", "name"}, qr.Columns)
	require.Len(t, qr.Rows, 3)
}

func TestExecute_AssertionQuery(t *testing.T) {
	exec := openTestExecutor(t)
	ctx := context.Background()

	require.True(t, exec.Execute(ctx, "CREATE TABLE t (id INTEGER)", 10).Success)
	require.True(t, exec.Execute(ctx, "INSERT INTO t VALUES (1), (NULL)", 10).Success)

	qr := exec.Execute(ctx, "SELECT * FROM t WHERE id IS NULL", 10)
	require.True(t, qr.Success, qr.Error)
	assert.EqualValues(t, 1, qr.RowCount)
}

func TestExecute_SyntaxError(t *testing.T) {
	exec := openTestExecutor(t)

	qr := exec.Execute(context.Background(), "SELEC broken", 10)
	assert.False(t, qr.Success)
	assert.NotEmpty(t, qr.Error)
}

func TestDryRun(t *testing.T) {
	exec := openTestExecutor(t)
	ctx := context.Background()

	require.True(t, exec.Execute(ctx, "CREATE TABLE t (id INTEGER)", 10).Success)

	dr := exec.DryRun(ctx, "SELECT * FROM t")
	assert.True(t, dr.Valid, dr.Error)

	dr = exec.DryRun(ctx, "SELECT * FROM missing_table")
	assert.False(t, dr.Valid)
}

func TestTestConnection(t *testing.T) {
	exec := openTestExecutor(t)
	assert.True(t, exec.TestConnection(context.Background()))
}

func TestGetTableSchema(t *testing.T) {
	exec := openTestExecutor(t)
	ctx := context.Background()

	require.True(t, exec.Execute(ctx, "CREATE TABLE events (id INTEGER, name TEXT)", 10).Success)

	cols, err := exec.GetTableSchema(ctx, "events")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "name", cols[1].Name)

	_, err = exec.GetTableSchema(ctx, "missing")
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	assert.True(t, executor.IsRegistered("sqlite"))
}
