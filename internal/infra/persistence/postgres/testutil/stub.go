// Package testutil provides an in-memory stand-in for the postgres driver so
// the snapshot store can be exercised without a server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// StubConn keeps the state table rows and the statements issued against it.
type StubConn struct {
	Execs      []string
	Rows       map[string][]byte
	Order      []string
	FailPing   bool
	FailBegin  bool
	FailCommit bool
	FailUpsert map[string]bool
	RowsErr    error
}

var stubSeq atomic.Int64

// NewStubDB registers a uniquely named driver backed by a fresh StubConn.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Rows: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Seed stores a raw payload for bucket as if a previous process had written it.
func (c *StubConn) Seed(bucket string, payload []byte) {
	if _, ok := c.Rows[bucket]; !ok {
		c.Order = append(c.Order, bucket)
	}
	c.Rows[bucket] = payload
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext. Only the state upsert mutates rows.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT INTO STATE") {
		return driver.RowsAffected(0), nil
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("expected bucket and payload, got %d args", len(args))
	}
	bucket, _ := args[0].Value.(string)
	if c.FailUpsert[bucket] {
		return nil, fmt.Errorf("exec fail for %s", bucket)
	}
	payload, _ := args[1].Value.([]byte)
	c.Seed(bucket, append([]byte(nil), payload...))
	return driver.RowsAffected(1), nil
}

// QueryContext implements driver.QueryerContext for the state table select.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(strings.ToLower(query), "from state") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	values := make([][]driver.Value, 0, len(c.Order))
	for _, bucket := range c.Order {
		values = append(values, []driver.Value{bucket, c.Rows[bucket]})
	}
	return &stubRows{rows: values, err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error { return nil }

type stubRows struct {
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
