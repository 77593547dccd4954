// ABOUTME: Writes databases, schemas, tables and views to the coordination store
// ABOUTME: Tables and views are stored as YAML versions

package persist

import (
	"context"
	"fmt"

	"github.com/nainya/metacoord/pkg/metadata"
	"github.com/nainya/metacoord/pkg/nodepath"
	"github.com/nainya/metacoord/pkg/repository"
)

// MetaDataPersistService writes database metadata.
type MetaDataPersistService struct {
	repo     repository.ClusterRepository
	versions *VersionPersistService
}

// NewMetaDataPersistService creates a service writing to repo.
func NewMetaDataPersistService(repo repository.ClusterRepository) *MetaDataPersistService {
	return &MetaDataPersistService{
		repo:     repo,
		versions: NewVersionPersistService(repo),
	}
}

// CreateDatabase registers a database. It is a no-op for an existing one.
func (s *MetaDataPersistService) CreateDatabase(ctx context.Context, database string) error {
	return s.ensure(ctx, nodepath.DatabaseNodePath{Database: database})
}

// DropDatabase removes a database with everything below it.
func (s *MetaDataPersistService) DropDatabase(ctx context.Context, database string) error {
	return s.delete(ctx, nodepath.DatabaseNodePath{Database: database})
}

// CreateSchema registers a schema and its database.
func (s *MetaDataPersistService) CreateSchema(ctx context.Context, database, schema string) error {
	if err := s.CreateDatabase(ctx, database); err != nil {
		return err
	}
	return s.ensure(ctx, nodepath.SchemaNodePath{Database: database, Schema: schema})
}

// DropSchema removes a schema with its tables and views.
func (s *MetaDataPersistService) DropSchema(ctx context.Context, database, schema string) error {
	return s.delete(ctx, nodepath.SchemaNodePath{Database: database, Schema: schema})
}

// PersistTable stores a new version of a table and returns it.
func (s *MetaDataPersistService) PersistTable(ctx context.Context, database, schema string, table metadata.Table) (int, error) {
	content, err := metadata.EncodeTable(table)
	if err != nil {
		return 0, err
	}
	return s.versions.Persist(ctx, nodepath.TableNodePath{Database: database, Schema: schema, Table: table.Name}, content)
}

// DropTable removes a table with all of its versions.
func (s *MetaDataPersistService) DropTable(ctx context.Context, database, schema, table string) error {
	return s.versions.Delete(ctx, nodepath.TableNodePath{Database: database, Schema: schema, Table: table})
}

// PersistView stores a new version of a view and returns it.
func (s *MetaDataPersistService) PersistView(ctx context.Context, database, schema string, view metadata.View) (int, error) {
	content, err := metadata.EncodeView(view)
	if err != nil {
		return 0, err
	}
	return s.versions.Persist(ctx, nodepath.ViewNodePath{Database: database, Schema: schema, View: view.Name}, content)
}

// DropView removes a view with all of its versions.
func (s *MetaDataPersistService) DropView(ctx context.Context, database, schema, view string) error {
	return s.versions.Delete(ctx, nodepath.ViewNodePath{Database: database, Schema: schema, View: view})
}

// PersistGlobalRule stores a new version of a global rule configuration.
func (s *MetaDataPersistService) PersistGlobalRule(ctx context.Context, rule, config string) (int, error) {
	return s.versions.Persist(ctx, nodepath.GlobalRuleNodePath{Rule: rule}, config)
}

// PersistProps stores a new version of the cluster properties.
func (s *MetaDataPersistService) PersistProps(ctx context.Context, props map[string]string) (int, error) {
	content, err := metadata.EncodeProps(props)
	if err != nil {
		return 0, err
	}
	return s.versions.Persist(ctx, nodepath.PropertiesNodePath{}, content)
}

func (s *MetaDataPersistService) ensure(ctx context.Context, p nodepath.NodePath) error {
	key, err := fullPath(p)
	if err != nil {
		return err
	}
	_, err = s.repo.PersistIfAbsent(ctx, key, "")
	return err
}

func (s *MetaDataPersistService) delete(ctx context.Context, p nodepath.NodePath) error {
	key, err := fullPath(p)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, key)
}

// fullPath renders p, which must name a single entity.
func fullPath(p nodepath.NodePath) (string, error) {
	for _, v := range p.Values() {
		if v == "" {
			return "", fmt.Errorf("%w: %s needs every field set", nodepath.ErrInvalidPathKind, p.Template())
		}
	}
	return nodepath.ToPath(p, false)
}
