// Package audit provides centralised audit logging for studio operations.
// Entries land in an audit_log table in the main database and track every
// mutating API call and MCP tool invocation.
//
// # Fluent API
//
// Use the fluent builder API to construct and write entries:
//
//	audit.Event("node:create", "create").
//		Actor(id.UserID, id.UserName).
//		Project(projectID).
//		Node(nodeID).
//		Write(err)
//
//	audit.Event("document:patch", "patch").
//		Actor(id.UserID, id.UserName).
//		Document(docID).
//		ContentChange(before, after).
//		Write(err)
//
// The source parameter follows the format "{entity}:{operation}" for HTTP
// handlers or "mcp:{tool}" for MCP tools.
//
// Errors during logging are silently ignored (best-effort). A document patch
// should succeed even if we can't record it.
package audit

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/crypto/blake2b"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single audit log entry.
type Entry struct {
	Source   string // e.g., "node:move", "mcp:get_application_context"
	Action   string // verb: create, update, move, delete, patch, read
	ActorID  string
	Actor    string
	Project  int64  // project affected, 0 when not project-scoped
	Node     string // node affected
	Document int64  // document affected

	// Timing
	Start int64 // unix timestamp when Event() called
	End   int64 // unix timestamp when Write() called

	Success bool
	Error   string
	Detail  map[string]any
}

// Builder constructs an audit entry using a fluent API. Create with [Event],
// chain methods to set fields, then call [Builder.Write] to persist it.
type Builder struct {
	entry Entry
}

// Event creates a new audit entry builder for an operation.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().Unix(),
		},
	}
}

// Actor sets who performed the operation.
func (b *Builder) Actor(id, name string) *Builder {
	b.entry.ActorID = id
	b.entry.Actor = name
	return b
}

// Project sets the affected project.
func (b *Builder) Project(id int64) *Builder {
	b.entry.Project = id
	return b
}

// Node sets the affected node.
func (b *Builder) Node(id string) *Builder {
	b.entry.Node = id
	return b
}

// Document sets the affected document.
func (b *Builder) Document(id int64) *Builder {
	b.entry.Document = id
	return b
}

// Detail adds an operation-specific key/value to the entry.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// ContentChange records a content transition: hashes of both sides plus a
// compact diff summary, so the log shows what changed without storing full
// document bodies.
func (b *Builder) ContentChange(before, after json.RawMessage) *Builder {
	b.Detail("content_before", hash(before))
	b.Detail("content_after", hash(after))
	b.Detail("diff", diffSummary(string(before), string(after)))
	return b
}

// Write finalises the entry with the operation's outcome and persists it via
// the global logger. A nil logger drops the entry.
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().Unix()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}

	mu.Lock()
	l := global
	mu.Unlock()
	if l != nil {
		l.log(b.entry)
	}
}

// Logger writes audit entries to the audit_log table.
type Logger struct {
	db *sql.DB
}

// Init installs the global logger on the given database, creating the
// audit_log table if needed.
func Init(db *sql.DB) error {
	if err := migrate(db); err != nil {
		return err
	}
	mu.Lock()
	global = &Logger{db: db}
	mu.Unlock()
	return nil
}

// Reset removes the global logger. Used by tests.
func Reset() {
	mu.Lock()
	global = nil
	mu.Unlock()
}

func (l *Logger) log(e Entry) {
	var detail *string
	if len(e.Detail) > 0 {
		if b, err := json.Marshal(e.Detail); err == nil {
			s := string(b)
			detail = &s
		}
	}

	success := 0
	if e.Success {
		success = 1
	}

	_, err := l.db.Exec(`
		INSERT INTO audit_log (start, end, source, action, actor_id, actor_name,
		                       project_id, node_id, document_id, success, error, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Start, e.End, e.Source, e.Action,
		nilIfEmpty(e.ActorID), nilIfEmpty(e.Actor),
		nilIfZero(e.Project), nilIfEmpty(e.Node), nilIfZero(e.Document),
		success, nilIfEmpty(e.Error), detail,
	)
	if err != nil {
		// Best-effort: don't break the main operation, but report the failure
		_, _ = fmt.Fprintf(os.Stderr, "studio: audit log write failed: %v\n", err)
	}
}

// migrate creates the audit_log table if it doesn't exist.
func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			start       INTEGER NOT NULL,
			end         INTEGER NOT NULL,
			source      TEXT NOT NULL,
			action      TEXT NOT NULL,
			actor_id    TEXT,
			actor_name  TEXT,
			project_id  INTEGER,
			node_id     TEXT,
			document_id INTEGER,
			success     INTEGER NOT NULL,
			error       TEXT,
			detail      TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_start ON audit_log(start);
		CREATE INDEX IF NOT EXISTS idx_audit_source ON audit_log(source);
		CREATE INDEX IF NOT EXISTS idx_audit_project ON audit_log(project_id);
	`)
	return err
}

// hash fingerprints content for the log without storing it.
func hash(b []byte) string {
	h, err := blake2b.New(8, nil) // 64-bit = 16 hex chars
	if err != nil {
		panic("blake2b.New failed: " + err.Error())
	}
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

// diffSummary produces a short human-readable summary of a content change:
// characters inserted and deleted.
func diffSummary(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	var ins, del int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ins += len(d.Text)
		case diffmatchpatch.DiffDelete:
			del += len(d.Text)
		}
	}
	return fmt.Sprintf("+%d -%d", ins, del)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nilIfZero(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}
