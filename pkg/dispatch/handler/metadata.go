// ABOUTME: Handlers mirroring databases, schemas, tables and views into local metadata
// ABOUTME: Tables and views are reloaded whenever their active version pointer moves

package handler

import (
	"fmt"

	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/manager"
	"github.com/nainya/metacoord/pkg/metadata"
	"github.com/nainya/metacoord/pkg/nodepath"
)

var metadataRoot = nodepath.MustToPath(nodepath.DatabaseNodePath{}, false)

// DatabaseChangedHandler creates and drops databases.
type DatabaseChangedHandler struct{}

func (DatabaseChangedHandler) SubscribedKey() string { return metadataRoot }

func (DatabaseChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Deleted}
}

func (DatabaseChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	captures, ok := nodepath.DatabaseSearchCriteria().Match(ev.Key)
	if !ok || captures.Rest() != "" {
		return nil
	}
	database, _ := captures.Named("database")

	if ev.Type == event.Deleted {
		cm.MetaData.DropDatabase(database)
	} else {
		cm.MetaData.AddDatabase(database)
	}
	return nil
}

// SchemaChangedHandler creates and drops schemas.
type SchemaChangedHandler struct{}

func (SchemaChangedHandler) SubscribedKey() string { return metadataRoot }

func (SchemaChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Deleted}
}

func (SchemaChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	captures, ok := nodepath.SchemaSearchCriteria("").Match(ev.Key)
	if !ok || captures.Rest() != "" {
		return nil
	}
	database, _ := captures.Named("database")
	schema, _ := captures.Named("schema")

	if ev.Type == event.Deleted {
		cm.MetaData.DropSchema(database, schema)
	} else {
		cm.MetaData.AddSchema(database, schema)
	}
	return nil
}

// TableChangedHandler reloads tables from their active version and drops removed ones.
type TableChangedHandler struct{}

func (TableChangedHandler) SubscribedKey() string { return metadataRoot }

func (TableChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Updated, event.Deleted}
}

func (TableChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	captures, ok := nodepath.TableSearchCriteria("", "").Match(ev.Key)
	if !ok {
		return nil
	}
	database, _ := captures.Named("database")
	schema, _ := captures.Named("schema")
	name, _ := captures.Named("table")

	if ev.Type == event.Deleted {
		if captures.Rest() == "" {
			cm.MetaData.DropTable(database, schema, name)
		}
		return nil
	}

	vp, err := nodepath.NewVersionNodePath(nodepath.TableNodePath{Database: database, Schema: schema, Table: name})
	if err != nil {
		return err
	}
	if !vp.IsActiveVersionPath(ev.Key) {
		return nil
	}

	content, err := loadActiveVersion(cm, vp, ev.Value)
	if err != nil {
		return err
	}
	table, err := metadata.DecodeTable(content)
	if err != nil {
		return err
	}
	if table.Name != name {
		return fmt.Errorf("table %s stored under key of %s", table.Name, vp.Path())
	}
	// A schema dropped while the version was loading stays dropped.
	cm.MetaData.AlterTable(database, schema, table)
	return nil
}

// ViewChangedHandler reloads views from their active version and drops removed ones.
type ViewChangedHandler struct{}

func (ViewChangedHandler) SubscribedKey() string { return metadataRoot }

func (ViewChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Updated, event.Deleted}
}

func (ViewChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	captures, ok := nodepath.ViewSearchCriteria("", "").Match(ev.Key)
	if !ok {
		return nil
	}
	database, _ := captures.Named("database")
	schema, _ := captures.Named("schema")
	name, _ := captures.Named("view")

	if ev.Type == event.Deleted {
		if captures.Rest() == "" {
			cm.MetaData.DropView(database, schema, name)
		}
		return nil
	}

	vp, err := nodepath.NewVersionNodePath(nodepath.ViewNodePath{Database: database, Schema: schema, View: name})
	if err != nil {
		return err
	}
	if !vp.IsActiveVersionPath(ev.Key) {
		return nil
	}

	content, err := loadActiveVersion(cm, vp, ev.Value)
	if err != nil {
		return err
	}
	view, err := metadata.DecodeView(content)
	if err != nil {
		return err
	}
	if view.Name != name {
		return fmt.Errorf("view %s stored under key of %s", view.Name, vp.Path())
	}
	cm.MetaData.AlterView(database, schema, view)
	return nil
}
