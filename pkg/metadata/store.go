// ABOUTME: In-memory metadata mirror updated by change handlers
// ABOUTME: Also keeps the active global rules and cluster properties

package metadata

import (
	"sync"

	"golang.org/x/exp/slices"
)

// MetaData is the process-local copy of cluster metadata.
type MetaData struct {
	mu          sync.RWMutex
	databases   map[string]*Database
	globalRules map[string]string
	props       map[string]string
}

// NewMetaData creates an empty metadata mirror.
func NewMetaData() *MetaData {
	return &MetaData{
		databases:   make(map[string]*Database),
		globalRules: make(map[string]string),
		props:       make(map[string]string),
	}
}

// AddDatabase registers a database if absent.
func (m *MetaData) AddDatabase(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.database(name)
}

// DropDatabase removes a database with everything it contains.
func (m *MetaData) DropDatabase(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.databases, name)
}

// AddSchema registers a schema, creating its database if needed.
func (m *MetaData) AddSchema(database, schema string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schema(database, schema)
}

// DropSchema removes a schema with its tables and views.
func (m *MetaData) DropSchema(database, schema string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.databases[database]; ok {
		delete(db.Schemas, schema)
	}
}

// AlterTable creates or replaces a table of a known schema.
// It reports false and changes nothing when the schema is unknown.
func (m *MetaData) AlterTable(database, schema string, table Table) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.lookupSchema(database, schema)
	if s == nil {
		return false
	}
	s.Tables[table.Name] = table.clone()
	return true
}

// DropTable removes a table.
func (m *MetaData) DropTable(database, schema, table string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.lookupSchema(database, schema); s != nil {
		delete(s.Tables, table)
	}
}

// AlterView creates or replaces a view of a known schema.
// It reports false and changes nothing when the schema is unknown.
func (m *MetaData) AlterView(database, schema string, view View) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.lookupSchema(database, schema)
	if s == nil {
		return false
	}
	s.Views[view.Name] = view
	return true
}

// DropView removes a view.
func (m *MetaData) DropView(database, schema, view string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.lookupSchema(database, schema); s != nil {
		delete(s.Views, view)
	}
}

// Table returns a copy of a table.
func (m *MetaData) Table(database, schema, table string) (Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.lookupSchema(database, schema)
	if s == nil {
		return Table{}, false
	}
	t, ok := s.Tables[table]
	if !ok {
		return Table{}, false
	}
	return t.clone(), true
}

// View returns a view.
func (m *MetaData) View(database, schema, view string) (View, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.lookupSchema(database, schema)
	if s == nil {
		return View{}, false
	}
	v, ok := s.Views[view]
	return v, ok
}

// ContainsDatabase reports whether a database is known.
func (m *MetaData) ContainsDatabase(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.databases[name]
	return ok
}

// ContainsSchema reports whether a schema is known.
func (m *MetaData) ContainsSchema(database, schema string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookupSchema(database, schema) != nil
}

// Databases returns the sorted database names.
func (m *MetaData) Databases() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.databases)
}

// Schemas returns the sorted schema names of a database.
func (m *MetaData) Schemas(database string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	db, ok := m.databases[database]
	if !ok {
		return nil
	}
	return sortedKeys(db.Schemas)
}

// TableNames returns the sorted table names of a schema.
func (m *MetaData) TableNames(database, schema string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.lookupSchema(database, schema)
	if s == nil {
		return nil
	}
	return sortedKeys(s.Tables)
}

// ViewNames returns the sorted view names of a schema.
func (m *MetaData) ViewNames(database, schema string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.lookupSchema(database, schema)
	if s == nil {
		return nil
	}
	return sortedKeys(s.Views)
}

// AlterGlobalRule stores the active configuration of a global rule.
func (m *MetaData) AlterGlobalRule(rule, config string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globalRules[rule] = config
}

// DropGlobalRule removes a global rule.
func (m *MetaData) DropGlobalRule(rule string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.globalRules, rule)
}

// GlobalRule returns the active configuration of a global rule.
func (m *MetaData) GlobalRule(rule string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	config, ok := m.globalRules[rule]
	return config, ok
}

// ReplaceProps swaps the cluster properties.
func (m *MetaData) ReplaceProps(props map[string]string) {
	next := make(map[string]string, len(props))
	for k, v := range props {
		next[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.props = next
}

// Prop returns one cluster property.
func (m *MetaData) Prop(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.props[key]
	return v, ok
}

// database must be called with mu held for writing.
func (m *MetaData) database(name string) *Database {
	db, ok := m.databases[name]
	if !ok {
		db = newDatabase(name)
		m.databases[name] = db
	}
	return db
}

// schema must be called with mu held for writing.
func (m *MetaData) schema(database, schema string) *Schema {
	db := m.database(database)
	s, ok := db.Schemas[schema]
	if !ok {
		s = newSchema(schema)
		db.Schemas[schema] = s
	}
	return s
}

// lookupSchema must be called with mu held.
func (m *MetaData) lookupSchema(database, schema string) *Schema {
	db, ok := m.databases[database]
	if !ok {
		return nil
	}
	return db.Schemas[schema]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
