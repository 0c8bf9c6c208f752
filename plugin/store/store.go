package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hlpio/logdec/pkg/entries"
	"github.com/hlpio/logdec/pkg/iterator"
	_ "modernc.org/sqlite"
)

var (
	tablePattern = regexp.MustCompile(`^[\w\d]+(\.[\w\d]+)?$`)
	ErrBadTable  = errors.New("invalid table name")
)

const (
	createTable = `
create table if not exists %s (
	evt_id integer primary key
)`
)

// SqliteStore persists decoded events using Sqlite3 as a storage engine.
// The table schema grows a text column per discovered event field.
type SqliteStore struct {
	db  *sql.DB
	log hclog.Logger
}

func NewStore(log hclog.Logger, filename string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	return &SqliteStore{
		db:  db,
		log: log.Named("event-store"),
	}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// QueryEntries streams previously stored events back out of the given table.
func (s *SqliteStore) QueryEntries(table string) (iterator.Iterator, error) {
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %s", ErrBadTable, table)
	}
	rows, err := s.db.Query("select * from " + table)
	if err != nil {
		return nil, err
	}
	return newQueryIterator(s.log, rows)
}

func (s *SqliteStore) Sink(iter iterator.Iterator, table string) error {
	return s.SinkCtx(context.Background(), iter, table)
}

// SinkCtx appends every event in the iterator to the given table, creating
// the table and any missing columns on the fly.
func (s *SqliteStore) SinkCtx(ctx context.Context, iter iterator.Iterator, table string) error {
	if !tablePattern.MatchString(table) {
		iterator.Drain(iter)
		return fmt.Errorf("%w: %s", ErrBadTable, table)
	}
	s.log.Debug("Establishing connection")
	conn, err := s.db.Conn(ctx)
	if err != nil {
		iterator.Drain(iter)
		return err
	}
	s.log.Debug("Ensuring the specified table is present")
	if err := s.ensureTable(ctx, conn, table); err != nil {
		iterator.Drain(iter)
		_ = conn.Close()
		return err
	}
	cols, err := s.tableColumns(ctx, conn, table)
	if err != nil {
		iterator.Drain(iter)
		_ = conn.Close()
		return err
	}
	colMap := map[string]bool{}
	for _, c := range cols {
		colMap[c] = true
	}
	s.log.Debug("Starting sink operation")
	s.sink(ctx, conn, table, iter, colMap)
	return nil
}

func (s *SqliteStore) ensureTable(ctx context.Context, conn *sql.Conn, table string) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf(createTable, table))
	return err
}

func (s *SqliteStore) tableColumns(ctx context.Context, conn *sql.Conn, table string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "select * from "+table)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	return rows.Columns()
}

func (s *SqliteStore) addColumn(ctx context.Context, conn *sql.Conn, table string, colName string) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf("alter table %s add column \"%s\" text null", table, colName))
	return err
}

func (s *SqliteStore) sink(ctx context.Context, conn *sql.Conn, table string, iter iterator.Iterator, colMap map[string]bool) {
	log := s.log.With("table", table).Named("sink")
	cancelled := false

	defer func() {
		_ = conn.Close()
		log.Debug("DB connection closed")
	}()

	go func() {
		<-ctx.Done()
		cancelled = true
	}()

	err := iter.Iterate(func(entry entries.LogEntry, _ int) error {
		if cancelled {
			return iterator.ErrStopIteration
		}

		var intoFields []string
		for k := range entry {
			if !colMap[k] {
				log.Debug("New field discovered, adding to table", "field", k)
				if err := s.addColumn(ctx, conn, table, k); err != nil {
					log.Error("Failed to add field to table", "field", k, "error", err)
					return err
				}
				colMap[k] = true
			}
			intoFields = append(intoFields, k)
		}

		var intoStr strings.Builder
		var params strings.Builder
		for i, f := range intoFields {
			if i > 0 {
				intoStr.WriteString(",")
				params.WriteString(",")
			}
			intoStr.WriteString("\"" + f + "\"")
			params.WriteString("?")
		}
		query := fmt.Sprintf("insert into %s (%s) values (%s)", table, intoStr.String(), params.String())
		stmt, err := conn.PrepareContext(ctx, query)
		if err != nil {
			log.Error("Failed to prepare statement", "error", err)
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()
		args := make([]any, len(intoFields))
		for i, f := range intoFields {
			str, ok := entry.AsString(f)
			if !ok {
				args[i] = ""
				log.Warn("Field not able to be coerced to string", "field", f)
				continue
			}
			args[i] = str
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			log.Error("Failed to insert into table", "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		log.Error("Error sinking to DB, draining iterator", "error", err)
		iterator.Drain(iter)
	}
}
