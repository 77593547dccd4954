package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/metacoord/pkg/dispatch"
	"github.com/nainya/metacoord/pkg/event"
)

func TestGlobalRuleHandler(t *testing.T) {
	cm := newContextManager(t)
	h := GlobalRuleChangedHandler{}
	assert.Equal(t, "/rules", h.SubscribedKey())

	persist(t, cm, "/rules/sql_parser/versions/0", "sqlCommentParseEnabled: true\n")
	require.NoError(t, h.Handle(cm, event.New("/rules/sql_parser/active_version", "0", event.Added)))

	config, ok := cm.MetaData.GlobalRule("sql_parser")
	require.True(t, ok)
	assert.Equal(t, "sqlCommentParseEnabled: true\n", config)

	require.NoError(t, h.Handle(cm, event.New("/rules/sql_parser", "", event.Deleted)))
	_, ok = cm.MetaData.GlobalRule("sql_parser")
	assert.False(t, ok)
}

func TestPropertiesHandler(t *testing.T) {
	cm := newContextManager(t)
	h := PropertiesChangedHandler{}

	persist(t, cm, "/props/versions/0", "sql-show: \"true\"\n")
	require.NoError(t, h.Handle(cm, event.New("/props/active_version", "0", event.Added)))

	value, ok := cm.MetaData.Prop("sql-show")
	require.True(t, ok)
	assert.Equal(t, "true", value)

	require.NoError(t, h.Handle(cm, event.New("/props/versions/0", "", event.Deleted)))
	_, ok = cm.MetaData.Prop("sql-show")
	assert.True(t, ok)

	require.NoError(t, h.Handle(cm, event.New("/props", "", event.Deleted)))
	_, ok = cm.MetaData.Prop("sql-show")
	assert.False(t, ok)
}

func TestDefaultsCoverEverySubscription(t *testing.T) {
	cm := newContextManager(t)
	d := dispatch.New(cm, dispatch.DefaultConfig(), nil, nil, Defaults()...)

	assert.Equal(t, []string{"/metadata", "/nodes/compute/labels", "/nodes/compute/online",
		"/nodes/compute/status", "/nodes/compute/worker_id", "/props", "/rules"}, d.Prefixes())
}
