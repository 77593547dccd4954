// ABOUTME: Local metadata model mirrored from the coordination store
// ABOUTME: Databases own schemas, schemas own tables and views

package metadata

// Column describes one column of a table.
type Column struct {
	Name       string `yaml:"name"`
	DataType   string `yaml:"dataType"`
	PrimaryKey bool   `yaml:"primaryKey,omitempty"`
	Nullable   bool   `yaml:"nullable,omitempty"`
}

// Table is the metadata of a table.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns,omitempty"`
	Indexes []string `yaml:"indexes,omitempty"`
}

// View is the metadata of a view.
type View struct {
	Name       string `yaml:"name"`
	Definition string `yaml:"viewDefinition"`
}

// Schema groups tables and views.
type Schema struct {
	Name   string
	Tables map[string]Table
	Views  map[string]View
}

// Database groups schemas.
type Database struct {
	Name    string
	Schemas map[string]*Schema
}

func newSchema(name string) *Schema {
	return &Schema{Name: name, Tables: make(map[string]Table), Views: make(map[string]View)}
}

func newDatabase(name string) *Database {
	return &Database{Name: name, Schemas: make(map[string]*Schema)}
}

func (t Table) clone() Table {
	t.Columns = append([]Column(nil), t.Columns...)
	t.Indexes = append([]string(nil), t.Indexes...)
	return t
}
