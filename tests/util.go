package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/storage/inmem"
)

// NewConfig loads the TEST configuration.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	t.Setenv("ENV", "TEST")
	conf, err := core.NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() failed: %v", err)
	}
	return conf
}

func CreateEntity(t *testing.T, db *inmemdb.DB, def resource.Definition, fields resource.Entity) resource.Entity {
	t.Helper()
	row, err := db.Insert(def, fields)
	if err != nil {
		t.Fatalf("CreateEntity() failed: %v", err)
	}
	return row
}

// CreateBooks inserts n books, the last one being the newest.
func CreateBooks(t *testing.T, db *inmemdb.DB, n int) resource.Collection {
	t.Helper()
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	origNow := inmemdb.NowFunc
	defer func() { inmemdb.NowFunc = origNow }()

	books := make(resource.Collection, 0, n)
	for i := 1; i <= n; i++ {
		inmemdb.NowFunc = func() time.Time { return now.Add(time.Duration(i) * time.Minute) }
		books = append(books, CreateEntity(t, db, resource.Books, resource.Entity{
			"title":  fmt.Sprintf("Book %02d", i),
			"author": fmt.Sprintf("Author %d", i%3),
		}))
	}
	return books
}

// Logger records log entries in memory.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	lvls := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		lvls = append(lvls, e.Level)
	}
	return lvls
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }
