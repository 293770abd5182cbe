package workspace

import (
	"strings"
	"sync"
	"time"

	"marketdesk/internal/infrastructure/marketapi"

	"github.com/rs/zerolog/log"
)

// Options configures a Registry.
type Options struct {
	NewClient func() *marketapi.Client
	Debounce  time.Duration
	IdleTTL   time.Duration
	Now       func() time.Time
}

// Registry maps console session ids to workspaces.
type Registry struct {
	opts Options

	mu    sync.Mutex
	items map[string]*Workspace

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewRegistry(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewClient == nil {
		opts.NewClient = func() *marketapi.Client { return marketapi.New("", 10*time.Second, 0) }
	}
	return &Registry{opts: opts, items: map[string]*Workspace{}, stop: make(chan struct{})}
}

// Get returns the session's workspace, creating it if needed. created is true
// for a new workspace, which the caller may restore from persisted state.
func (r *Registry) Get(sid string) (ws *Workspace, created bool) {
	now := r.opts.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.items[sid]; ok {
		ws.touch(now)
		return ws, false
	}
	sid = strings.Clone(sid)
	ws = newWorkspace(sid, r.opts.NewClient(), r.opts.Debounce, now)
	r.items[sid] = ws
	return ws, true
}

// Lookup returns an existing workspace without creating one.
func (r *Registry) Lookup(sid string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[sid]
	return ws, ok
}

// Rename moves a workspace to a new session id (session fixation on login).
func (r *Registry) Rename(oldID, newID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[oldID]
	if !ok {
		return
	}
	delete(r.items, oldID)
	newID = strings.Clone(newID)
	ws.ID = newID
	r.items[newID] = ws
}

// Drop closes and forgets a workspace (logout).
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	ws, ok := r.items[sid]
	delete(r.items, sid)
	r.mu.Unlock()
	if ok {
		ws.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep closes workspaces idle longer than the TTL and returns how many it evicted.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.Now().Add(-r.opts.IdleTTL)
	var idle []*Workspace
	r.mu.Lock()
	for id, ws := range r.items {
		if ws.idleSince().Before(cutoff) {
			idle = append(idle, ws)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()
	for _, ws := range idle {
		ws.Close()
	}
	if len(idle) > 0 {
		log.Info().Int("evicted", len(idle)).Msg("workspace: evicted idle sessions")
	}
	return len(idle)
}

// StartJanitor sweeps every interval until Close.
func (r *Registry) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Close stops the janitor and closes every workspace.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	r.mu.Lock()
	items := r.items
	r.items = map[string]*Workspace{}
	r.mu.Unlock()
	for _, ws := range items {
		ws.Close()
	}
}
