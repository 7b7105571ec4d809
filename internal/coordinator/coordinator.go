// Package coordinator owns the lifecycle of one gateway connection: setup
// with guaranteed teardown, periodic catalog refresh with atomic snapshot
// swaps, bounded-backoff recovery, serialized reconnection and allow-list
// enforcement. It is the only layer the host framework talks to; every
// transport failure is reclassified here before crossing that boundary.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/mcpgate/mcpgate/internal/schema"
	"github.com/mcpgate/mcpgate/internal/telemetry"
	"github.com/mcpgate/mcpgate/internal/transport"
)

const defaultRefreshTimeout = 30 * time.Second

// State is the coordinator lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateReady
	StateDegraded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Transport is the wire client driven by the coordinator.
// *transport.Client satisfies it; tests substitute fakes.
type Transport interface {
	Connect(ctx context.Context) error
	Connected() bool
	ListTools(ctx context.Context) ([]schema.ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	Disconnect(ctx context.Context) error
}

// Config holds coordinator policy.
type Config struct {
	// AllowedTools restricts which discovered tools are published and
	// callable. Empty means all tools are allowed.
	AllowedTools []string

	// Schedule drives periodic catalog refresh. Nil defaults to every five
	// minutes.
	Schedule cron.Schedule

	// RefreshTimeout bounds a single catalog refresh attempt.
	RefreshTimeout time.Duration

	// BackoffInitial and BackoffCeiling bound the retry delay after failed
	// refresh or reconnect attempts.
	BackoffInitial time.Duration
	BackoffCeiling time.Duration
}

// snapshot is one immutable, already-filtered catalog generation. Readers
// always see either the previous or the next complete snapshot.
type snapshot struct {
	tools     []schema.ToolDescriptor
	byName    map[string]schema.ToolDescriptor
	fetchedAt time.Time
}

// Coordinator manages one gateway connection and its published tool catalog.
// Create one per gateway; there is no shared global state.
type Coordinator struct {
	id      string
	tr      Transport
	cfg     Config
	metrics *telemetry.Metrics
	allowed map[string]struct{} // nil = allow all

	state      atomic.Int32
	catalog    atomic.Pointer[snapshot]
	refreshing atomic.Bool
	reconnect  singleflight.Group
	retry      *backoff

	mu     sync.Mutex // guards Setup/Close transitions
	closed bool
}

// Option configures optional coordinator collaborators.
type Option func(*Coordinator)

// WithMetrics attaches telemetry counters to the coordinator.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// New returns an idle coordinator for the given transport.
func New(tr Transport, cfg Config, opts ...Option) *Coordinator {
	if cfg.Schedule == nil {
		cfg.Schedule, _ = cron.ParseStandard("@every 5m")
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	c := &Coordinator{
		id:    uuid.NewString(),
		tr:    tr,
		cfg:   cfg,
		retry: newBackoff(cfg.BackoffInitial, cfg.BackoffCeiling),
	}
	if len(cfg.AllowedTools) > 0 {
		c.allowed = make(map[string]struct{}, len(cfg.AllowedTools))
		for _, name := range cfg.AllowedTools {
			c.allowed[name] = struct{}{}
		}
	}
	c.state.Store(int32(StateIdle))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the coordinator instance id.
func (c *Coordinator) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

func (c *Coordinator) setState(s State) {
	c.state.Store(int32(s))
	c.metrics.SetConnectionState(int(s))
}

// Setup connects the transport and performs the initial catalog fetch.
// If the fetch fails the just-opened session is torn down before the error
// surfaces; no half-open session outlives a failed Setup.
func (c *Coordinator) Setup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.setState(StateConnecting)
	if err := c.tr.Connect(ctx); err != nil {
		c.setState(StateIdle)
		return fmt.Errorf("connect gateway: %w", err)
	}

	if err := c.fetchCatalog(ctx); err != nil {
		if derr := c.tr.Disconnect(ctx); derr != nil {
			slog.Warn("coordinator: teardown after failed setup", "coordinator", c.id, "err", derr)
		}
		c.setState(StateIdle)
		return fmt.Errorf("initial catalog fetch: %w", err)
	}

	c.setState(StateReady)
	slog.Info("coordinator: gateway ready", "coordinator", c.id, "tools", len(c.Tools()))
	return nil
}

// Run refreshes the catalog on the configured schedule until ctx is
// cancelled. While Degraded the next attempt is scheduled by bounded
// exponential backoff instead of the regular schedule.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		var delay time.Duration
		if c.State() == StateDegraded {
			delay = c.retry.Next()
		} else {
			now := time.Now()
			delay = c.cfg.Schedule.Next(now).Sub(now)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if c.State() == StateClosed {
			return nil
		}
		if err := c.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("coordinator: catalog refresh failed", "coordinator", c.id, "err", err)
		}
	}
}

// Refresh performs one catalog refresh attempt. At most one attempt runs at
// a time; overlapping calls return immediately. On failure the previous
// catalog is retained and the coordinator turns Degraded.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if c.State() == StateClosed {
		return ErrClosed
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		return nil
	}
	defer c.refreshing.Store(false)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RefreshTimeout)
	defer cancel()

	if err := c.ensureConnected(ctx); err != nil {
		c.degrade(err)
		return err
	}
	if err := c.fetchCatalog(ctx); err != nil {
		c.degrade(err)
		// A dead session must be replaced wholesale on the next attempt.
		if errors.Is(err, transport.ErrConnection) || errors.Is(err, transport.ErrNotConnected) {
			_ = c.tr.Disconnect(ctx)
		}
		return err
	}

	c.retry.Reset()
	c.setState(StateReady)
	return nil
}

// fetchCatalog lists tools, applies the allow-list and atomically swaps the
// published snapshot.
func (c *Coordinator) fetchCatalog(ctx context.Context) error {
	tools, err := c.tr.ListTools(ctx)
	if err != nil {
		c.metrics.RecordRefresh(false, 0)
		return err
	}

	filtered := make([]schema.ToolDescriptor, 0, len(tools))
	byName := make(map[string]schema.ToolDescriptor, len(tools))
	for _, t := range tools {
		if c.allowed != nil {
			if _, ok := c.allowed[t.Name]; !ok {
				continue
			}
		}
		filtered = append(filtered, t)
		byName[t.Name] = t
	}

	c.catalog.Store(&snapshot{tools: filtered, byName: byName, fetchedAt: time.Now()})
	c.metrics.RecordRefresh(true, len(filtered))
	slog.Debug("coordinator: catalog refreshed", "coordinator", c.id, "discovered", len(tools), "published", len(filtered))
	return nil
}

func (c *Coordinator) degrade(err error) {
	if c.State() == StateClosed {
		return
	}
	c.setState(StateDegraded)
	slog.Warn("coordinator: degraded, previous catalog retained", "coordinator", c.id, "err", err)
}

// Tools returns the current published catalog. The slice is an immutable
// snapshot; callers must not modify it.
func (c *Coordinator) Tools() []schema.ToolDescriptor {
	snap := c.catalog.Load()
	if snap == nil {
		return nil
	}
	return snap.tools
}

// CatalogFetchedAt returns when the published catalog was last refreshed.
func (c *Coordinator) CatalogFetchedAt() time.Time {
	snap := c.catalog.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.fetchedAt
}

// CallTool invokes a published tool. Unknown or disallowed names fail fast
// with ToolNotFoundError and no network traffic; transport failures are
// reclassified into CallError kinds.
func (c *Coordinator) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.State() == StateClosed {
		return "", ErrClosed
	}
	snap := c.catalog.Load()
	if snap == nil {
		return "", &ToolNotFoundError{Name: name}
	}
	if _, ok := snap.byName[name]; !ok {
		return "", &ToolNotFoundError{Name: name}
	}

	if err := c.ensureConnected(ctx); err != nil {
		return "", classify(name, err)
	}

	start := time.Now()
	out, err := c.tr.CallTool(ctx, name, args)
	if err != nil {
		cerr := classify(name, err)
		c.metrics.ObserveCall(name, cerr.Kind.String(), time.Since(start))
		return "", cerr
	}
	c.metrics.ObserveCall(name, "ok", time.Since(start))
	return out, nil
}

// ensureConnected reconnects the transport if needed. Concurrent callers are
// satisfied by one in-flight attempt; independent attempts never race.
func (c *Coordinator) ensureConnected(ctx context.Context) error {
	if c.tr.Connected() {
		return nil
	}
	_, err, _ := c.reconnect.Do("reconnect", func() (any, error) {
		if c.tr.Connected() {
			return nil, nil
		}
		if c.State() == StateClosed {
			return nil, ErrClosed
		}
		c.setState(StateConnecting)
		if err := c.tr.Connect(ctx); err != nil {
			c.degrade(err)
			return nil, err
		}
		c.setState(StateReady)
		slog.Info("coordinator: reconnected", "coordinator", c.id)
		return nil, nil
	})
	return err
}

// Close terminates the session and makes the coordinator unusable.
// Idempotent.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.setState(StateClosed)
	return c.tr.Disconnect(ctx)
}
