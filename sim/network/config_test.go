package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tandemYAML = `
queues:
  - name: a
    discipline: fcfs
  - name: b
    discipline: fcfs
    servers: 2
  - name: solo
    discipline: is
composites:
  - name: line
    type: tandem
    queues: [a, b]
`

func TestLoadConfig_ValidYAML(t *testing.T) {
	// GIVEN a network file with a tandem over two queues
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tandemYAML), 0o644))

	// WHEN it is loaded and validated
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	// THEN members are hidden from the top level
	require.Len(t, cfg.Queues, 3)
	assert.Equal(t, 2, cfg.Queues[1].Servers)
	assert.Equal(t, []string{"solo", "line"}, cfg.TopLevel())
}

func TestLoadConfig_NonexistentFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseConfig_UnknownField_Rejected(t *testing.T) {
	_, err := ParseConfig([]byte("queues:\n  - name: a\n    dicipline: fcfs\n"))
	assert.Error(t, err)
}

func TestConfig_Validate_Errors(t *testing.T) {
	q := func(name string) QueueConfig { return QueueConfig{Name: name, Discipline: "fcfs"} }
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no queues", Config{}},
		{"unnamed queue", Config{Queues: []QueueConfig{{Discipline: "fcfs"}}}},
		{"duplicate", Config{Queues: []QueueConfig{q("a"), q("a")}}},
		{"bad discipline", Config{Queues: []QueueConfig{{Name: "a", Discipline: "wfq"}}}},
		{"negative servers", Config{Queues: []QueueConfig{{Name: "a", Servers: -1}}}},
		{"bad type", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{{Name: "c", Type: "mesh", Queues: []string{"a"}}}}},
		{"forward reference", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{{Name: "c", Type: TypeTandem, Queues: []string{"d"}}}}},
		{"shared member", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{
			{Name: "c", Type: TypeTandem, Queues: []string{"a"}},
			{Name: "d", Type: TypeTandem, Queues: []string{"a"}},
		}}},
		{"encapsulator arity", Config{Queues: []QueueConfig{q("a"), q("b")}, Composites: []CompositeConfig{{Name: "c", Type: TypeEncapsulator, Queues: []string{"a", "b"}}}}},
		{"compressed arity", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{{Name: "c", Type: TypeCompressedTandem, Queues: []string{"a"}}}}},
		{"feedback visits", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{{Name: "c", Type: TypeFeedback, Queues: []string{"a"}}}}},
		{"jackson initial", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{{Name: "c", Type: TypeJackson, Queues: []string{"a"}}}}},
		{"jackson missing routing", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{
			{Name: "c", Type: TypeJackson, Queues: []string{"a"}, Initial: []float64{1}},
		}}},
		{"jackson routing above one", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{
			{Name: "c", Type: TypeJackson, Queues: []string{"a"}, Initial: []float64{1}, Routing: [][]float64{{1.5}}},
		}}},
		{"jackson initial sum above one", Config{Queues: []QueueConfig{q("a"), q("b")}, Composites: []CompositeConfig{
			{Name: "c", Type: TypeJackson, Queues: []string{"a", "b"}, Initial: []float64{0.7, 0.7}, Routing: [][]float64{{0, 0}, {0, 0}}},
		}}},
		{"empty composite", Config{Queues: []QueueConfig{q("a")}, Composites: []CompositeConfig{{Name: "c", Type: TypeTandem}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestConfig_Validate_NestedComposites(t *testing.T) {
	// GIVEN an encapsulator around a tandem
	cfg := Config{
		Queues: []QueueConfig{{Name: "a"}, {Name: "b"}},
		Composites: []CompositeConfig{
			{Name: "line", Type: TypeTandem, Queues: []string{"a", "b"}},
			{Name: "wrap", Type: TypeEncapsulator, Queues: []string{"line"}},
		},
	}

	// THEN it validates and only the outermost is top-level
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"wrap"}, cfg.TopLevel())
}

func TestParseConfig_NormalizesNames(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
queues:
  - name: w
    discipline: FCFS
  - name: s
    discipline: fcfs_b
composites:
  - name: ct
    type: CompressedTandem
    queues: [w, s]
`))
	require.NoError(t, err)

	assert.Equal(t, "fcfs", cfg.Queues[0].Discipline)
	assert.Equal(t, "fcfs-b", cfg.Queues[1].Discipline)
	assert.Equal(t, TypeCompressedTandem, cfg.Composites[0].Type)
	assert.NoError(t, cfg.Validate())
}
