// Package tracing records what happens during a simulation.
package tracing

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// ErrExists is returned when the database file is already there.
var ErrExists = errors.New("database file already exists")

// DataRecorder is a backend that can record and store data.
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables.
	ListTables() []string

	// Flush writes the buffered entries to the database.
	Flush()
}

// SQLiteRecorder is a DataRecorder that writes into an SQLite database.
// Entries are buffered and written in batches. Buffered entries are flushed
// when the program exits through atexit.
type SQLiteRecorder struct {
	db *sql.DB

	dbName     string
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int
}

type table struct {
	structType reflect.Type
	entries    []any
}

// NewSQLiteRecorder creates the database path + ".sqlite3". An empty path
// picks a unique name.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = "axilite_trace_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	log.WithField("file", filename).Info("recording into database")

	r := newSQLiteRecorder(db)
	r.dbName = path

	return r, nil
}

// NewSQLiteRecorderWithDB creates a recorder that writes into db.
func NewSQLiteRecorderWithDB(db *sql.DB) *SQLiteRecorder {
	return newSQLiteRecorder(db)
}

func newSQLiteRecorder(db *sql.DB) *SQLiteRecorder {
	r := &SQLiteRecorder{
		db:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// DB returns the underlying database.
func (r *SQLiteRecorder) DB() *sql.DB {
	return r.db
}

// Close flushes the buffered entries and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.Flush()
	return r.db.Close()
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func fieldNames(entry any) []string {
	t := reflect.TypeOf(entry)

	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		names = append(names, t.Field(i).Name)
	}

	return names
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("entry %T is not a struct", entry)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() || !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("field %s of %T cannot be recorded", field.Name, entry)
		}
	}

	return nil
}

// CreateTable creates a table. It panics if the entry has fields that are
// not plain values.
func (r *SQLiteRecorder) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	fields := strings.Join(fieldNames(sampleEntry), ", \n\t")
	r.mustExecute(`CREATE TABLE ` + tableName + ` (` + "\n\t" + fields + "\n" + `);`)

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	r.tableNames = append(r.tableNames, tableName)
}

// InsertData buffers an entry. It panics if the table does not exist or
// the entry does not have the type of the table.
func (r *SQLiteRecorder) InsertData(tableName string, entry any) {
	t, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("table %s stores %s, got %T", tableName, t.structType, entry))
	}

	t.entries = append(t.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.Flush()
	}
}

// ListTables returns the table names in creation order.
func (r *SQLiteRecorder) ListTables() []string {
	return append([]string(nil), r.tableNames...)
}

// Flush writes every buffered entry in one database transaction.
func (r *SQLiteRecorder) Flush() {
	if r.entryCount == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, tableName := range r.tableNames {
		t := r.tables[tableName]
		if len(t.entries) == 0 {
			continue
		}

		stmt := r.prepareStatement(tableName, t.entries[0])

		for _, entry := range t.entries {
			v := reflect.ValueOf(entry)

			values := make([]any, 0, v.NumField())
			for i := 0; i < v.NumField(); i++ {
				values = append(values, v.Field(i).Interface())
			}

			if _, err := stmt.Exec(values...); err != nil {
				panic(err)
			}
		}

		t.entries = nil

		stmt.Close()
	}

	r.entryCount = 0
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.db.Exec(query)
	if err != nil {
		log.WithField("query", query).Error("failed to execute")
		panic(err)
	}

	return res
}

func (r *SQLiteRecorder) prepareStatement(tableName string, entry any) *sql.Stmt {
	marks := make([]string, len(fieldNames(entry)))
	for i := range marks {
		marks[i] = "?"
	}

	stmt, err := r.db.Prepare(
		"INSERT INTO " + tableName + " VALUES (" + strings.Join(marks, ", ") + ")")
	if err != nil {
		panic(err)
	}

	return stmt
}
