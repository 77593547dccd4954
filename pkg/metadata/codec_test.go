package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCodec(t *testing.T) {
	content, err := EncodeTable(orderTable())
	require.NoError(t, err)
	assert.Contains(t, content, "name: t_order")

	table, err := DecodeTable(content)
	require.NoError(t, err)
	assert.Equal(t, orderTable(), table)

	_, err = DecodeTable("columns: []\n")
	assert.Error(t, err)
	_, err = DecodeTable("name: [")
	assert.Error(t, err)
}

func TestViewCodec(t *testing.T) {
	content, err := EncodeView(View{Name: "v", Definition: "SELECT 1"})
	require.NoError(t, err)

	view, err := DecodeView(content)
	require.NoError(t, err)
	assert.Equal(t, View{Name: "v", Definition: "SELECT 1"}, view)

	_, err = DecodeView("")
	assert.Error(t, err)
}

func TestPropsCodec(t *testing.T) {
	content, err := EncodeProps(map[string]string{"max-connections-size-per-query": "1"})
	require.NoError(t, err)

	props, err := DecodeProps(content)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"max-connections-size-per-query": "1"}, props)

	props, err = DecodeProps("")
	require.NoError(t, err)
	assert.Empty(t, props)
}
