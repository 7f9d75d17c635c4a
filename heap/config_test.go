package heap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendManaged, cfg.Backend)
	assert.Equal(t, uint64(DefaultMaxHeapBytes), cfg.MaxHeapBytes)
	assert.Equal(t, uint32(DefaultChunkSizeBytes), cfg.ChunkSizeBytes)
	assert.Equal(t, cfg.MaxHeapBytes, cfg.RegionBytes)
	assert.Equal(t, uint32(8), cfg.Alignment)
	assert.Equal(t, cfg.MaxHeapBytes/4, cfg.GCTriggerBytes)
	assert.Equal(t, DefaultMarkBudgetWords, cfg.MarkBudgetWords)
	assert.Equal(t, DefaultSweepBudgetObjects, cfg.SweepBudgetObjects)
	assert.Equal(t, OOMAbort, cfg.OOMPolicy)
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown backend", Config{Backend: Backend(9)}},
		{"address space overflow", Config{MaxHeapBytes: 1 << 32}},
		{"alignment", Config{Alignment: 16}},
		{"chunk larger than heap", Config{MaxHeapBytes: 4096, ChunkSizeBytes: 8192}},
		{"region larger than heap", Config{MaxHeapBytes: 4096, RegionBytes: 8192}},
		{"oom policy", Config{OOMPolicy: OOMPolicy(7)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_SmallHeapClampsChunk(t *testing.T) {
	cfg := Config{Backend: BackendArena, MaxHeapBytes: 64 * 1024}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(64*1024), cfg.ChunkSizeBytes)
}

func TestParseBackend(t *testing.T) {
	for _, name := range []string{"managed", "Bump", " arena "} {
		_, err := ParseBackend(name)
		require.NoError(t, err, name)
	}
	_, err := ParseBackend("boehm")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: arena
max_heap_bytes: 1048576
chunk_size_bytes: 65536
alignment: 4
oom_policy: "null"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendArena, cfg.Backend)
	assert.Equal(t, uint64(1<<20), cfg.MaxHeapBytes)
	assert.Equal(t, uint32(65536), cfg.ChunkSizeBytes)
	assert.Equal(t, uint32(4), cfg.Alignment)
	assert.Equal(t, OOMReturnNull, cfg.OOMPolicy)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: arena\n"), 0o600))

	t.Setenv(EnvBackend, "bump")
	t.Setenv(EnvMaxHeap, "2097152")
	t.Setenv(EnvIncremental, "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBump, cfg.Backend)
	assert.Equal(t, uint64(2<<20), cfg.MaxHeapBytes)
	assert.True(t, cfg.Incremental)
}

func TestLoadConfig_BadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: boehm\n"), 0o600))

	_, err := LoadConfig(path)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	cfg := Config{Backend: BackendBump, MaxHeapBytes: 8192}
	require.NoError(t, cfg.Validate())

	out, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "backend: bump")
	assert.Contains(t, string(out), "oom_policy: abort")
}
