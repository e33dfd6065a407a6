package inmemdb

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-console/core/resource"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrWrongPassword = errors.New("wrong password")

	NowFunc = time.Now                                     // mockable
	NewID   = func() string { return uuid.New().String() } // mockable

	// secret fields are hashed on write and never returned
	secretFields = map[string]bool{"password": true}
)

type (
	// DB keeps one table per resource, rows in insertion order.
	DB struct {
		mutex  sync.RWMutex
		tables map[string]*table
	}

	table struct {
		idField string
		rows    []resource.Entity
		secrets map[string]map[string][]byte // id -> field -> bcrypt hash
	}
)

// Open creates an empty table for each definition.
func Open(defs ...resource.Definition) *DB {
	db := &DB{tables: make(map[string]*table, len(defs))}
	for _, def := range defs {
		db.tables[def.Name] = &table{idField: def.IDField, secrets: make(map[string]map[string][]byte)}
	}
	return db
}

func (db *DB) table(def resource.Definition) (*table, error) {
	t, ok := db.tables[def.Name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTable, def.Name)
	}
	return t, nil
}

func (t *table) index(id string) int {
	for i, row := range t.rows {
		if rid, _ := row.ID(t.idField); rid == id {
			return i
		}
	}
	return -1
}

// write copies fields onto row, hashing secrets.
func (t *table) write(id string, row, fields resource.Entity) error {
	for k, v := range fields {
		if k == t.idField || k == "createdAt" {
			continue
		}
		if secretFields[k] {
			pwd, ok := v.(string)
			if !ok || pwd == "" {
				continue
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
			if err != nil {
				return errors.Wrap(err, "hashing "+k)
			}
			if t.secrets[id] == nil {
				t.secrets[id] = make(map[string][]byte)
			}
			t.secrets[id][k] = hash
			continue
		}
		row[k] = v
	}
	return nil
}

// Insert stores a copy of fields under a new identifier and creation time, and returns the stored row.
func (db *DB) Insert(def resource.Definition, fields resource.Entity) (resource.Entity, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t, err := db.table(def)
	if err != nil {
		return nil, err
	}

	id := NewID()
	row := resource.Entity{
		t.idField:   id,
		"createdAt": NowFunc().UTC().Format(time.RFC3339Nano),
	}
	if err := t.write(id, row, fields.Clone()); err != nil {
		return nil, err
	}
	t.rows = append(t.rows, row)
	return row.Clone(), nil
}

// All returns every row of def's table.
func (db *DB) All(def resource.Definition) (resource.Collection, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	t, err := db.table(def)
	if err != nil {
		return nil, err
	}
	rows := make(resource.Collection, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, row.Clone())
	}
	return rows, nil
}

// Search returns the rows where every param field contains its value, ignoring case.
func (db *DB) Search(def resource.Definition, params map[string]string) (resource.Collection, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	t, err := db.table(def)
	if err != nil {
		return nil, err
	}

	res := make(resource.Collection, 0)
rows:
	for _, row := range t.rows {
		for field, want := range params {
			if !contains(row[field], want) {
				continue rows
			}
		}
		res = append(res, row.Clone())
	}
	return res, nil
}

// Get returns the row identified by id.
func (db *DB) Get(def resource.Definition, id string) (resource.Entity, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	t, err := db.table(def)
	if err != nil {
		return nil, err
	}
	i := t.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return t.rows[i].Clone(), nil
}

// Update merges patch into the row identified by id. The identifier and creation time never change.
func (db *DB) Update(def resource.Definition, id string, patch resource.Entity) (resource.Entity, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t, err := db.table(def)
	if err != nil {
		return nil, err
	}
	i := t.index(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	// only save set fields
	row := t.rows[i].Clone()
	if err := t.write(id, row, patch.Clone()); err != nil {
		return nil, err
	}
	t.rows[i] = row
	return row.Clone(), nil
}

func (db *DB) Delete(def resource.Definition, id string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t, err := db.table(def)
	if err != nil {
		return err
	}
	i := t.index(id)
	if i < 0 {
		return ErrNotFound
	}
	t.rows = append(t.rows[:i:i], t.rows[i+1:]...)
	delete(t.secrets, id)
	return nil
}

// CheckPassword compares pwd against the hashed password of the row id.
func (db *DB) CheckPassword(def resource.Definition, id, pwd string) error {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	t, err := db.table(def)
	if err != nil {
		return err
	}
	hash, ok := t.secrets[id]["password"]
	if !ok {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(pwd)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for _, t := range db.tables {
		t.rows = nil
		t.secrets = make(map[string]map[string][]byte)
	}
}

func contains(v interface{}, want string) bool {
	switch v.(type) {
	case nil, map[string]interface{}, []interface{}, resource.Entity:
		return false
	}
	return strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(strings.TrimSpace(want)))
}
