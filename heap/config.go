package heap

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/vmheap/internal/format"
)

// Backend selects the allocation strategy.
type Backend uint8

const (
	// BackendManaged is the tracing mark/sweep collector.
	BackendManaged Backend = iota
	// BackendBump is a single-region bump allocator without reclamation.
	BackendBump
	// BackendArena is a chunked bump allocator without reclamation.
	BackendArena
)

var backendNames = map[Backend]string{
	BackendManaged: "managed",
	BackendBump:    "bump",
	BackendArena:   "arena",
}

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Backend(%d)", uint8(b))
}

// ParseBackend maps a backend name ("managed", "bump", "arena") to a Backend.
func ParseBackend(s string) (Backend, error) {
	for b, name := range backendNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, s)
}

func (b Backend) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// OOMPolicy decides what the host ABI does when an allocation cannot be satisfied.
type OOMPolicy uint8

const (
	// OOMAbort logs and panics with *FatalError.
	OOMAbort OOMPolicy = iota
	// OOMReturnNull returns the null address to the VM.
	OOMReturnNull
)

func (p OOMPolicy) String() string {
	if p == OOMReturnNull {
		return "null"
	}
	return "abort"
}

func (p OOMPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *OOMPolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "abort", "":
		*p = OOMAbort
	case "null":
		*p = OOMReturnNull
	default:
		return fmt.Errorf("%w: unknown oom policy %q", ErrInvalidConfig, text)
	}
	return nil
}

// Defaults applied by Validate to zero-valued fields.
const (
	DefaultMaxHeapBytes       = 64 << 20
	DefaultChunkSizeBytes     = 1 << 20
	DefaultAlignment          = 8
	DefaultMarkBudgetWords    = 4096
	DefaultSweepBudgetObjects = 256
)

// Config fixes the active backend and its bounds. It is established once at
// startup and must not be mutated after Validate.
type Config struct {
	Backend Backend `yaml:"backend"`

	// MaxHeapBytes bounds the address space handed to backends.
	MaxHeapBytes uint64 `yaml:"max_heap_bytes"`

	// ChunkSizeBytes is the default Arena chunk size.
	ChunkSizeBytes uint32 `yaml:"chunk_size_bytes"`

	// RegionBytes is the Bump region size. Defaults to MaxHeapBytes.
	RegionBytes uint64 `yaml:"region_bytes"`

	// Alignment is the Bump/Arena allocation boundary (4 or 8).
	Alignment uint32 `yaml:"alignment"`

	// Incremental makes allocation-triggered collections run in bounded
	// increments instead of full stop-the-world cycles.
	Incremental bool `yaml:"incremental"`

	// GCTriggerBytes is how many bytes may be allocated between managed
	// collections. Defaults to MaxHeapBytes/4.
	GCTriggerBytes uint64 `yaml:"gc_trigger_bytes"`

	// MarkBudgetWords bounds the words scanned by one collection increment.
	MarkBudgetWords int `yaml:"mark_budget_words"`

	// SweepBudgetObjects bounds the objects swept by one collection increment.
	SweepBudgetObjects int `yaml:"sweep_budget_objects"`

	OOMPolicy OOMPolicy `yaml:"oom_policy"`
}

// DefaultConfig returns a validated Managed configuration.
func DefaultConfig() Config {
	cfg := Config{}
	_ = cfg.Validate()
	return cfg
}

// Validate applies defaults to zero-valued fields and checks the bounds.
func (c *Config) Validate() error {
	if _, ok := backendNames[c.Backend]; !ok {
		return fmt.Errorf("%w: unknown backend %d", ErrInvalidConfig, c.Backend)
	}

	if c.MaxHeapBytes == 0 {
		c.MaxHeapBytes = DefaultMaxHeapBytes
	}
	if c.MaxHeapBytes > format.MaxAddressSpace-format.ReservedLowBytes {
		return fmt.Errorf("%w: max heap %d exceeds the 32-bit address space", ErrInvalidConfig, c.MaxHeapBytes)
	}

	if c.Alignment == 0 {
		c.Alignment = DefaultAlignment
	}
	if c.Alignment != 4 && c.Alignment != 8 {
		return fmt.Errorf("%w: alignment must be 4 or 8, got %d", ErrInvalidConfig, c.Alignment)
	}

	if c.ChunkSizeBytes == 0 {
		c.ChunkSizeBytes = uint32(min(uint64(DefaultChunkSizeBytes), c.MaxHeapBytes))
	}
	if uint64(c.ChunkSizeBytes) > c.MaxHeapBytes {
		return fmt.Errorf("%w: chunk size %d exceeds max heap %d", ErrInvalidConfig, c.ChunkSizeBytes, c.MaxHeapBytes)
	}

	if c.RegionBytes == 0 {
		c.RegionBytes = c.MaxHeapBytes
	}
	if c.RegionBytes > c.MaxHeapBytes {
		return fmt.Errorf("%w: region %d exceeds max heap %d", ErrInvalidConfig, c.RegionBytes, c.MaxHeapBytes)
	}

	if c.GCTriggerBytes == 0 {
		c.GCTriggerBytes = max(c.MaxHeapBytes/4, format.Granule)
	}
	if c.MarkBudgetWords <= 0 {
		c.MarkBudgetWords = DefaultMarkBudgetWords
	}
	if c.SweepBudgetObjects <= 0 {
		c.SweepBudgetObjects = DefaultSweepBudgetObjects
	}
	if c.OOMPolicy > OOMReturnNull {
		return fmt.Errorf("%w: unknown oom policy %d", ErrInvalidConfig, c.OOMPolicy)
	}
	return nil
}

// LoadConfig reads a YAML config file, applies environment overrides and validates it.
//
//	backend: arena
//	max_heap_bytes: 16777216
//	chunk_size_bytes: 65536
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("heap: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Environment variables read by ApplyEnv.
const (
	EnvBackend     = "VMHEAP_BACKEND"
	EnvMaxHeap     = "VMHEAP_MAX_HEAP"
	EnvChunkSize   = "VMHEAP_CHUNK_SIZE"
	EnvIncremental = "VMHEAP_INCREMENTAL"
)

// ApplyEnv overrides fields of cfg from VMHEAP_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvBackend); ok {
		b, err := ParseBackend(v)
		if err != nil {
			return err
		}
		cfg.Backend = b
	}
	if v, ok := os.LookupEnv(EnvMaxHeap); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvMaxHeap, err)
		}
		cfg.MaxHeapBytes = n
	}
	if v, ok := os.LookupEnv(EnvChunkSize); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvChunkSize, err)
		}
		cfg.ChunkSizeBytes = uint32(n)
	}
	if v, ok := os.LookupEnv(EnvIncremental); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvIncremental, err)
		}
		cfg.Incremental = b
	}
	return nil
}
