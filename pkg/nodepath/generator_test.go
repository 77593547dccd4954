package nodepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPathView(t *testing.T) {
	cases := []struct {
		name  string
		path  ViewNodePath
		exact bool
		want  string
	}{
		{"schemas container", ViewNodePath{Database: "foo_db"}, false, "/metadata/foo_db/schemas"},
		{"database owner", ViewNodePath{Database: "foo_db"}, true, "/metadata/foo_db"},
		{"views container", ViewNodePath{Database: "foo_db", Schema: "foo_schema"}, false, "/metadata/foo_db/schemas/foo_schema/views"},
		{"schema owner", ViewNodePath{Database: "foo_db", Schema: "foo_schema"}, true, "/metadata/foo_db/schemas/foo_schema"},
		{"view", ViewNodePath{Database: "foo_db", Schema: "foo_schema", View: "foo_view"}, false, "/metadata/foo_db/schemas/foo_schema/views/foo_view"},
		{"view exact", ViewNodePath{Database: "foo_db", Schema: "foo_schema", View: "foo_view"}, true, "/metadata/foo_db/schemas/foo_schema/views/foo_view"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToPath(tc.path, tc.exact)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToPathOtherKinds(t *testing.T) {
	assert.Equal(t, "/metadata", MustToPath(DatabaseNodePath{}, false))
	assert.Equal(t, "/metadata/foo_db", MustToPath(DatabaseNodePath{Database: "foo_db"}, false))
	assert.Equal(t, "/metadata/foo_db/schemas/public/tables/t_order", MustToPath(TableNodePath{Database: "foo_db", Schema: "public", Table: "t_order"}, false))
	assert.Equal(t, "/nodes/compute/worker_id", MustToPath(ComputeNodeWorkerIDNodePath{}, false))
	assert.Equal(t, "/nodes/compute/worker_id/instance-1", MustToPath(ComputeNodeWorkerIDNodePath{InstanceID: "instance-1"}, false))
	assert.Equal(t, "/nodes/compute/online/PROXY", MustToPath(ComputeNodeOnlineNodePath{InstanceType: "PROXY"}, false))
	assert.Equal(t, "/nodes/compute/online", MustToPath(ComputeNodeOnlineNodePath{}, false))
	assert.Equal(t, "/props", MustToPath(PropertiesNodePath{}, false))
	assert.Equal(t, "/props", MustToPath(PropertiesNodePath{}, true))
	assert.Equal(t, "/rules", MustToPath(GlobalRuleNodePath{}, false))

	workerID := 7
	assert.Equal(t, "/reservation/worker_id/7", MustToPath(WorkerIDReservationNodePath{WorkerID: &workerID}, false))
	assert.Equal(t, "/reservation/worker_id", MustToPath(WorkerIDReservationNodePath{}, false))
}

func TestToPathFullySetIgnoresExact(t *testing.T) {
	paths := []NodePath{
		DatabaseNodePath{Database: "db"},
		SchemaNodePath{Database: "db", Schema: "s"},
		TableNodePath{Database: "db", Schema: "s", Table: "t"},
		ComputeNodeStateNodePath{InstanceID: "i"},
		GlobalRuleNodePath{Rule: "transaction"},
	}
	for _, p := range paths {
		assert.Equal(t, MustToPath(p, false), MustToPath(p, true), p.Template().String())
	}
}

func TestToPathInjective(t *testing.T) {
	a := MustToPath(TableNodePath{Database: "db", Schema: "s", Table: "t1"}, false)
	b := MustToPath(TableNodePath{Database: "db", Schema: "s", Table: "t2"}, false)
	c := MustToPath(TableNodePath{Database: "db", Schema: "s", Table: "t1"}, false)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.NotEqual(t, MustToPath(TableNodePath{Database: "db", Schema: "s", Table: "x"}, false),
		MustToPath(ViewNodePath{Database: "db", Schema: "s", View: "x"}, false))
}

func TestToPathInvalidKind(t *testing.T) {
	_, err := ToPath(ViewNodePath{Database: "foo_db", View: "foo_view"}, false)
	assert.ErrorIs(t, err, ErrInvalidPathKind)

	_, err = ToPath(TableNodePath{Schema: "s"}, true)
	assert.ErrorIs(t, err, ErrInvalidPathKind)

	assert.Panics(t, func() { MustToPath(SchemaNodePath{Schema: "s"}, false) })
}

func TestToPathInvalidSegment(t *testing.T) {
	_, err := ToPath(DatabaseNodePath{Database: "a/b"}, false)
	assert.ErrorIs(t, err, ErrInvalidSegment)
}

type brokenNodePath struct{}

func (brokenNodePath) Template() Template { return tableTemplate }
func (brokenNodePath) Values() []string   { return []string{"db"} }

func TestToPathArityMismatch(t *testing.T) {
	_, err := ToPath(brokenNodePath{}, false)
	assert.ErrorIs(t, err, ErrInvalidPathKind)
}

func TestParseTemplate(t *testing.T) {
	tpl, err := ParseTemplate("/metadata/${database}/schemas/${schema}")
	require.NoError(t, err)
	assert.Equal(t, []string{"database", "schema"}, tpl.Params())
	assert.Equal(t, "/metadata/${database}/schemas/${schema}", tpl.String())

	for _, raw := range []string{"", "metadata", "/metadata/", "/a//b", "/a/${}", "/a/${x}/${x}"} {
		_, err := ParseTemplate(raw)
		assert.Error(t, err, raw)
	}
	assert.Panics(t, func() { MustParseTemplate("no-slash") })
}

func TestHasPathPrefix(t *testing.T) {
	assert.True(t, HasPathPrefix("/nodes/compute/worker_id/i1", "/nodes/compute/worker_id"))
	assert.True(t, HasPathPrefix("/nodes/compute/worker_id", "/nodes/compute/worker_id"))
	assert.False(t, HasPathPrefix("/nodes/compute/worker_idx/i1", "/nodes/compute/worker_id"))
	assert.False(t, HasPathPrefix("/metadata", "/metadata/db"))
	assert.True(t, HasPathPrefix("/anything", Root))
}
