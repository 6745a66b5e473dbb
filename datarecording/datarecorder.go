// Package datarecording stores the engine's paging events in a SQLite
// database so that fault, eviction, and fetch behavior can be inspected
// after a run.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// PagingRecorder captures the engine's paging events.
type PagingRecorder interface {
	// RecordFault captures one fault-handler invocation.
	RecordFault(e FaultEvent)

	// RecordEviction captures one page written out to the backing store.
	RecordEviction(e EvictEvent)

	// RecordFetch captures one page read back from the backing store.
	RecordFetch(e FetchEvent)

	// Flush writes all buffered events to the database.
	Flush()
}

// New creates a PagingRecorder backed by a SQLite database in the file
// path + ".sqlite3". An empty path picks a unique name. Buffered events are flushed at process
// exit.
func New(path string) PagingRecorder {
	r := NewSQLiteRecorder(path)
	r.Init()

	atexit.Register(func() { r.Flush() })

	return r
}

// SQLiteRecorder writes paging events into a SQLite database, one table
// per event kind.
type SQLiteRecorder struct {
	*sql.DB

	dbName    string
	batchSize int

	faults    []FaultEvent
	evictions []EvictEvent
	fetches   []FetchEvent
}

// NewSQLiteRecorder prepares a recorder for the database in the file
// path + ".sqlite3". Init must be called before use.
func NewSQLiteRecorder(path string) *SQLiteRecorder {
	return &SQLiteRecorder{
		dbName:    path,
		batchSize: 100000,
	}
}

// Init establishes the connection to the database and creates the faults,
// evictions, and fetches tables.
func (r *SQLiteRecorder) Init() {
	if r.dbName == "" {
		r.dbName = "paging_trace_" + xid.New().String()
	}

	filename := r.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r.DB = db

	r.mustExecute(createTableSQL("faults", FaultEvent{}))
	r.mustExecute(createTableSQL("evictions", EvictEvent{}))
	r.mustExecute(createTableSQL("fetches", FetchEvent{}))
}

// RecordFault buffers one fault event.
func (r *SQLiteRecorder) RecordFault(e FaultEvent) {
	r.faults = append(r.faults, e)
	r.flushIfFull()
}

// RecordEviction buffers one eviction event.
func (r *SQLiteRecorder) RecordEviction(e EvictEvent) {
	r.evictions = append(r.evictions, e)
	r.flushIfFull()
}

// RecordFetch buffers one fetch event.
func (r *SQLiteRecorder) RecordFetch(e FetchEvent) {
	r.fetches = append(r.fetches, e)
	r.flushIfFull()
}

func (r *SQLiteRecorder) pending() int {
	return len(r.faults) + len(r.evictions) + len(r.fetches)
}

func (r *SQLiteRecorder) flushIfFull() {
	if r.pending() >= r.batchSize {
		r.Flush()
	}
}

// Flush writes all buffered events to the database in one transaction.
func (r *SQLiteRecorder) Flush() {
	if r.pending() == 0 {
		return
	}

	tx, err := r.Begin()
	if err != nil {
		panic(err)
	}

	for _, e := range r.faults {
		r.insert(tx, "faults", e)
	}
	r.faults = nil

	for _, e := range r.evictions {
		r.insert(tx, "evictions", e)
	}
	r.evictions = nil

	for _, e := range r.fetches {
		r.insert(tx, "fetches", e)
	}
	r.fetches = nil

	if err := tx.Commit(); err != nil {
		panic(err)
	}
}

func (r *SQLiteRecorder) insert(tx *sql.Tx, table string, event any) {
	values := structs.Values(event)

	placeholders := strings.Repeat("?, ", len(values))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	insertSQL := "INSERT INTO " + table + " VALUES (" + placeholders + ")"

	if _, err := tx.Exec(insertSQL, values...); err != nil {
		panic(err)
	}
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

func createTableSQL(table string, sampleEvent any) string {
	columns := structs.Names(sampleEvent)

	return "CREATE TABLE " + table +
		" (\n\t" + strings.Join(columns, ", \n\t") + "\n);"
}
