package vmheap

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joshuapare/vmheap/heap"
	"github.com/joshuapare/vmheap/heap/alloc"
	"github.com/joshuapare/vmheap/heap/gc"
	"github.com/joshuapare/vmheap/internal/logger"
)

// ErrAlreadyInitialized is returned by a second call to Startup.
var ErrAlreadyInitialized = errors.New("vmheap: already initialized")

// Context is an initialized heap: configuration, address space and backend.
type Context struct {
	cfg     heap.Config
	mem     *heap.Memory
	backend alloc.Backend

	// collector is the backend when it is the managed one, nil otherwise.
	collector *gc.Collector

	log        *slog.Logger
	onFinalize func(heap.Address)
}

type options struct {
	log        *slog.Logger
	onFinalize func(heap.Address)
	gcOpts     []gc.Option
}

// Option configures a Context.
type Option func(*options)

// WithFinalizeHook sets the function told about every object finalized
// through RegisterFinalizer, so the host can drop its own bookkeeping.
func WithFinalizeHook(fn func(addr heap.Address)) Option {
	return func(o *options) { o.onFinalize = fn }
}

// WithLogger replaces the package logger for this context and its backend.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithCollectorOptions passes options through to the managed backend.
func WithCollectorOptions(opts ...gc.Option) Option {
	return func(o *options) { o.gcOpts = append(o.gcOpts, opts...) }
}

// New validates cfg, reserves the address space and builds the configured backend.
func New(cfg heap.Config, opts ...Option) (*Context, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.L
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mem, err := heap.NewMemory(cfg.MaxHeapBytes)
	if err != nil {
		return nil, fmt.Errorf("vmheap: reserve %d bytes: %w", cfg.MaxHeapBytes, err)
	}

	c := &Context{
		cfg:        cfg,
		mem:        mem,
		log:        o.log,
		onFinalize: o.onFinalize,
	}

	switch cfg.Backend {
	case heap.BackendBump:
		var b *alloc.BumpAllocator
		if b, err = alloc.NewBump(mem, cfg); err == nil {
			b.SetLogger(o.log)
			c.backend = b
		}
	case heap.BackendArena:
		var a *alloc.ArenaAllocator
		if a, err = alloc.NewArena(mem, cfg); err == nil {
			a.SetLogger(o.log)
			c.backend = a
		}
	default:
		gcOpts := append([]gc.Option{gc.WithLogger(o.log)}, o.gcOpts...)
		c.collector, err = gc.New(mem, cfg, gcOpts...)
		c.backend = c.collector
	}
	if err != nil {
		return nil, err
	}

	c.log.Info("heap started",
		"backend", cfg.Backend,
		"max_heap", cfg.MaxHeapBytes,
		"incremental", cfg.Incremental,
		"oom_policy", cfg.OOMPolicy)
	return c, nil
}

// Config returns the validated configuration.
func (c *Context) Config() heap.Config { return c.cfg }

// Memory returns the address space.
func (c *Context) Memory() *heap.Memory { return c.mem }

// Backend returns the active backend.
func (c *Context) Backend() alloc.Backend { return c.backend }

// Collector returns the managed backend, or nil for Bump and Arena.
func (c *Context) Collector() *gc.Collector { return c.collector }

var (
	defaultMu  sync.Mutex
	defaultCtx *Context
)

// Startup creates the process-wide context. It may succeed only once; the
// context lives until the process exits.
func Startup(cfg heap.Config, opts ...Option) (*Context, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultCtx != nil {
		return nil, ErrAlreadyInitialized
	}
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	defaultCtx = c
	return c, nil
}

// Default returns the context created by Startup, or nil before Startup.
func Default() *Context {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultCtx
}
