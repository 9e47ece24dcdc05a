package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, LevelDebug, lvl)

	lvl, err = ParseLevel("CRIT")
	require.NoError(t, err)
	require.Equal(t, LevelCrit, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestModuleFiltering(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	var buf bytes.Buffer
	require.NoError(t, InitJSONLogger(&buf, "trace"))

	DisableModule(TrieMonitoring)
	Debug(TrieMonitoring, "hidden")
	require.Zero(t, buf.Len())

	EnableModules(" trie_mod ,")
	defer DisableModule(TrieMonitoring)
	Debug(TrieMonitoring, "shown", "leaves", 3)
	require.NotZero(t, buf.Len())

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, TrieMonitoring, rec["module"])
	require.EqualValues(t, 3, rec["leaves"])
}

func TestInfoIgnoresModuleFilter(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	var buf bytes.Buffer
	require.NoError(t, InitJSONLogger(&buf, "info"))
	DisableModule(BlockBuilding)
	Info(BlockBuilding, "built")
	require.Contains(t, buf.String(), "built")

	buf.Reset()
	Debug(BlockBuilding, "below level")
	require.Zero(t, buf.Len())
}
