package strata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
offline: false
ai:
  embedding_host: http://models.internal:8000
  completion_host: http://models.internal:8000
  embedding_model: text-embedding-3-small
  completion_model: gpt-4o-mini
  token: sk-test
graph:
  uri: neo4j://graph.internal:7687
  username: neo4j
  password: secret
vector:
  path: /var/lib/strata/vectors
  threshold: 0.25
fanout_width: 4
layers:
  - name: session
    description: recent conversation context
    priority: 1
    enabled: true
  - name: knowledge
    priority: 2
    namespace: kb
    enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "neo4j://graph.internal:7687", cfg.Graph.URI)
	assert.Equal(t, float32(0.25), cfg.Vector.Threshold)
	assert.Equal(t, 4, cfg.FanoutWidth)

	require.Len(t, cfg.Layers, 2)
	assert.Equal(t, "session", cfg.Layers[0].Name)
	assert.Equal(t, "kb", cfg.Layers[1].Namespace)

	// AI hosts pick up the /v1 suffix during validation.
	assert.Equal(t, "http://models.internal:8000/v1", cfg.AI.EmbeddingHost)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsNoLayers(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "offline: true\nlayers: []\n"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "layers: [unclosed"))
	assert.Error(t, err)
}

func TestValidateOfflineSkipsAICheck(t *testing.T) {
	cfg := &Config{
		Offline: true,
		Layers:  DefaultConfig().Layers,
	}
	assert.NoError(t, cfg.Validate())
}
