package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core/course"
)

// stubConn scripts the queries the enrollment transaction issues. It
// mimics the Postgres parser's refusal to combine FOR UPDATE with an
// aggregate, so a regression there fails before any assertion.
type stubConn struct {
	queries  []string
	capacity int
	enrolled int
	missing  bool
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare unsupported") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func (c *stubConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.queries = append(c.queries, query)
	switch {
	case strings.Contains(query, "COUNT") && strings.Contains(query, "FOR UPDATE"):
		return nil, errors.New("pq: FOR UPDATE is not allowed with aggregate functions")
	case strings.Contains(query, "FOR UPDATE"):
		if c.missing {
			return &stubRows{cols: []string{"max_students"}, done: true}, nil
		}
		return &stubRows{cols: []string{"max_students"}, vals: []driver.Value{int64(c.capacity)}}, nil
	case strings.Contains(query, "student_id = $2"):
		return &stubRows{cols: []string{"count"}, vals: []driver.Value{int64(0)}}, nil
	case strings.Contains(query, "COUNT"):
		return &stubRows{cols: []string{"count"}, vals: []driver.Value{int64(c.enrolled)}}, nil
	}
	return nil, errors.New("unexpected query: " + query)
}

func (c *stubConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.queries = append(c.queries, query)
	return driver.RowsAffected(1), nil
}

type stubRows struct {
	cols []string
	vals []driver.Value
	done bool
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	copy(dest, r.vals)
	r.done = true
	return nil
}

type stubConnector struct{ conn *stubConn }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use the connector") }

func openStub(conn *stubConn) *sqlx.DB {
	return sqlx.NewDb(sql.OpenDB(stubConnector{conn: conn}), "postgres")
}

func TestCourseRepository_EnrollStudent(t *testing.T) {
	ctx := context.Background()

	conn := &stubConn{capacity: 2, enrolled: 1}
	repo := NewCourseRepository(openStub(conn))
	require.NoError(t, repo.EnrollStudent(ctx, "crs-1", "std-1", 2))

	require.NotEmpty(t, conn.queries)
	assert.Contains(t, conn.queries[0], "FOR UPDATE", "capacity check must lock the course row")
	assert.NotContains(t, conn.queries[0], "COUNT")
	assert.Contains(t, conn.queries[len(conn.queries)-1], "INSERT INTO course_students")

	t.Run("course full", func(t *testing.T) {
		full := &stubConn{capacity: 1, enrolled: 1}
		err := NewCourseRepository(openStub(full)).EnrollStudent(ctx, "crs-1", "std-2", 1)
		assert.Equal(t, course.ErrCourseFull, errors.Cause(err))
		for _, q := range full.queries {
			assert.NotContains(t, q, "INSERT", "full course must not insert")
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		gone := &stubConn{missing: true}
		err := NewCourseRepository(openStub(gone)).EnrollStudent(ctx, "nope", "std-1", 10)
		assert.Equal(t, course.ErrNotFound, errors.Cause(err))
	})

	t.Run("locked capacity overrides the caller's stale value", func(t *testing.T) {
		stale := &stubConn{capacity: 1, enrolled: 1}
		err := NewCourseRepository(openStub(stale)).EnrollStudent(ctx, "crs-1", "std-2", 5)
		assert.Equal(t, course.ErrCourseFull, errors.Cause(err))
	})
}
