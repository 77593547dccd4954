// ABOUTME: Node paths of database metadata: databases, schemas, tables, views
// ABOUTME: Includes the search criteria used by metadata change handlers

package nodepath

var (
	databaseTemplate = MustParseTemplate("/metadata/${database}")
	schemaTemplate   = MustParseTemplate("/metadata/${database}/schemas/${schema}")
	tableTemplate    = MustParseTemplate("/metadata/${database}/schemas/${schema}/tables/${table}")
	viewTemplate     = MustParseTemplate("/metadata/${database}/schemas/${schema}/views/${view}")
)

// DatabaseNodePath addresses a logical database.
type DatabaseNodePath struct {
	Database string
}

func (p DatabaseNodePath) Template() Template { return databaseTemplate }
func (p DatabaseNodePath) Values() []string   { return []string{p.Database} }

// SchemaNodePath addresses a schema of a database.
type SchemaNodePath struct {
	Database string
	Schema   string
}

func (p SchemaNodePath) Template() Template { return schemaTemplate }
func (p SchemaNodePath) Values() []string   { return []string{p.Database, p.Schema} }

// TableNodePath addresses a table of a schema.
type TableNodePath struct {
	Database string
	Schema   string
	Table    string
}

func (p TableNodePath) Template() Template { return tableTemplate }
func (p TableNodePath) Values() []string   { return []string{p.Database, p.Schema, p.Table} }

// ViewNodePath addresses a view of a schema.
type ViewNodePath struct {
	Database string
	Schema   string
	View     string
}

func (p ViewNodePath) Template() Template { return viewTemplate }
func (p ViewNodePath) Values() []string   { return []string{p.Database, p.Schema, p.View} }

// DatabaseSearchCriteria captures the database name of any metadata key.
func DatabaseSearchCriteria() SearchCriteria {
	return NewSearchCriteria(DatabaseNodePath{}, "database")
}

// SchemaSearchCriteria captures schema names. An empty database matches any database.
func SchemaSearchCriteria(database string) SearchCriteria {
	return NewSearchCriteria(SchemaNodePath{Database: database}, "schema")
}

// TableSearchCriteria captures table names. Empty arguments act as wildcards.
func TableSearchCriteria(database, schema string) SearchCriteria {
	return NewSearchCriteria(TableNodePath{Database: database, Schema: schema}, "table")
}

// ViewSearchCriteria captures view names. Empty arguments act as wildcards.
func ViewSearchCriteria(database, schema string) SearchCriteria {
	return NewSearchCriteria(ViewNodePath{Database: database, Schema: schema}, "view")
}
