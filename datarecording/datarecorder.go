// Package datarecording stores simulation telemetry in SQLite tables. Every
// table is described by a flat struct; each exported field becomes a column.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// flushThreshold is the number of buffered rows that forces a flush.
const flushThreshold = 100000

// DataRecorder buffers rows and writes them to a recording.
type DataRecorder interface {
	// CreateTable adds a table whose columns are the fields of sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers a row. The row must have the table's struct type.
	InsertData(tableName string, entry any)

	// Flush writes every buffered row in one transaction.
	Flush()
}

// New creates a DataRecorder that writes to <path>.sqlite3. An empty path
// picks a unique name. Buffered rows are flushed when the program exits.
func New(path string) DataRecorder {
	if path == "" {
		path = "tvss_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	w := &sqliteWriter{
		db:     db,
		tables: make(map[string]*tableBuffer),
	}

	atexit.Register(w.Flush)

	return w
}

type tableBuffer struct {
	rowType reflect.Type
	insert  string
	rows    []any
}

type sqliteWriter struct {
	lock     sync.Mutex
	db       *sql.DB
	tables   map[string]*tableBuffer
	buffered int
}

var columnKinds = map[reflect.Kind]bool{
	reflect.Bool:    true,
	reflect.Int:     true,
	reflect.Int8:    true,
	reflect.Int16:   true,
	reflect.Int32:   true,
	reflect.Int64:   true,
	reflect.Uint:    true,
	reflect.Uint8:   true,
	reflect.Uint16:  true,
	reflect.Uint32:  true,
	reflect.Uint64:  true,
	reflect.Float32: true,
	reflect.Float64: true,
	reflect.String:  true,
}

// validateRowType accepts flat structs of exported scalar fields.
func validateRowType(rowType reflect.Type) error {
	if rowType.Kind() != reflect.Struct {
		return fmt.Errorf("row type %s is not a struct", rowType)
	}

	for i := 0; i < rowType.NumField(); i++ {
		f := rowType.Field(i)

		if !f.IsExported() {
			return fmt.Errorf("field %s of %s is not exported", f.Name, rowType)
		}

		if !columnKinds[f.Type.Kind()] {
			return fmt.Errorf("field %s of %s has kind %s, not a column kind",
				f.Name, rowType, f.Type.Kind())
		}
	}

	return nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	rowType := reflect.TypeOf(sampleEntry)
	if err := validateRowType(rowType); err != nil {
		panic(err)
	}

	columns := structs.Names(sampleEntry)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	w.lock.Lock()
	defer w.lock.Unlock()

	w.mustExec("CREATE TABLE " + tableName +
		" (" + strings.Join(columns, ", ") + ")")

	w.tables[tableName] = &tableBuffer{
		rowType: rowType,
		insert:  "INSERT INTO " + tableName + " VALUES (" + placeholders + ")",
	}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	w.lock.Lock()

	t, ok := w.tables[tableName]
	if !ok {
		w.lock.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.rowType {
		w.lock.Unlock()
		panic(fmt.Sprintf("entry of type %T does not fit table %s",
			entry, tableName))
	}

	t.rows = append(t.rows, entry)
	w.buffered++
	full := w.buffered >= flushThreshold

	w.lock.Unlock()

	if full {
		w.Flush()
	}
}

func (w *sqliteWriter) Flush() {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.buffered == 0 {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		panic(err)
	}

	for _, t := range w.tables {
		writeRows(tx, t)
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	w.buffered = 0
}

func writeRows(tx *sql.Tx, t *tableBuffer) {
	if len(t.rows) == 0 {
		return
	}

	stmt, err := tx.Prepare(t.insert)
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, row := range t.rows {
		if _, err := stmt.Exec(structs.Values(row)...); err != nil {
			panic(err)
		}
	}

	t.rows = nil
}

func (w *sqliteWriter) mustExec(query string) {
	if _, err := w.db.Exec(query); err != nil {
		panic(fmt.Errorf("execute %q: %w", query, err))
	}
}
