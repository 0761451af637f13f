package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborwallet/harbor/internal/store"
)

func TestMintsEmptyDatabase(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "mints")
	require.NoError(t, err)
	assert.Contains(t, out, "No mints joined")
}

func TestMintsListsMembership(t *testing.T) {
	configPath, dataDir := writeTestConfig(t)
	seedStore(t, dataDir, func(db *store.DB) {
		require.NoError(t, db.InsertNewFederation("fed1", "invite1"))
		require.NoError(t, db.UpsertFederationMetadata(store.MintMetadata{ID: "fed1", Name: "Test Federation"}))
		require.NoError(t, db.InsertCashuMint("https://mint.example.com"))
	})

	out, err := execute(t, "--config", configPath, "mints")
	require.NoError(t, err)
	assert.Contains(t, out, "fedimint")
	assert.Contains(t, out, "Test Federation")
	assert.Contains(t, out, "cashu")
	assert.Contains(t, out, "https://mint.example.com")
}

func TestMintsSkipsArchived(t *testing.T) {
	configPath, dataDir := writeTestConfig(t)
	seedStore(t, dataDir, func(db *store.DB) {
		require.NoError(t, db.InsertNewFederation("fed1", "invite1"))
		require.NoError(t, db.InsertNewFederation("fed2", "invite2"))
		require.NoError(t, db.ArchiveFederation("fed2"))
	})

	out, err := execute(t, "--config", configPath, "--format", "json", "mints")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []mintEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "fed1", resp.Data[0].ID)
}
