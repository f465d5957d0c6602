package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"phimtoc/models"
)

// State is the playback lifecycle for one open detail view. Transitions are
// explicit; illegal combinations like playing-while-unplayable cannot be
// represented.
type State string

const (
	StateIdle         State = "idle"
	StateSourceChosen State = "source_chosen"
	StateAttaching    State = "attaching"
	StatePlaying      State = "playing"
	StateFailed       State = "failed"

	// StateUnplayable is the terminal state for a source-less episode. It is
	// an expected data condition, not a failure.
	StateUnplayable State = "unplayable"
)

// DefaultEmbedTimeout bounds how long an embed iframe may sit unconfirmed
// before the attempt is declared failed.
const DefaultEmbedTimeout = 8 * time.Second

var (
	// ErrNoAlternateSource means a switch was requested but the current
	// episode has no other source kind to switch to.
	ErrNoAlternateSource = errors.New("no alternate source available")

	// ErrNoServers means the detail carries no servers at all.
	ErrNoServers = errors.New("detail has no servers")
)

// Options tunes a Resolver. Zero values select defaults.
type Options struct {
	// Loaders builds a fresh manifest loader per HLS attach attempt.
	Loaders LoaderFactory

	// NativeHLS skips manifest loading and assigns the URL directly,
	// mirroring platforms with built-in HLS support.
	NativeHLS bool

	// EmbedTimeout overrides DefaultEmbedTimeout.
	EmbedTimeout time.Duration
}

// Snapshot is the externally visible resolver state.
type Snapshot struct {
	State       State                      `json:"state"`
	Kind        SourceKind                 `json:"kind"`
	Selection   models.PlaybackSelection   `json:"selection"`
	SourceURL   string                     `json:"sourceUrl,omitempty"`
	Levels      []Level                    `json:"levels,omitempty"`
	ExternalURL string                     `json:"externalUrl,omitempty"`
	Alternates  []models.PlaybackSelection `json:"alternates,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// Resolver walks one detail view through source selection, attach, playback
// and failure recovery. All methods are safe for concurrent use.
type Resolver struct {
	detail       models.CatalogDetail
	loaders      LoaderFactory
	nativeHLS    bool
	embedTimeout time.Duration

	mu        sync.Mutex
	state     State
	kind      SourceKind
	selection models.PlaybackSelection
	sourceURL string
	loader    ManifestLoader
	levels    []Level
	watchdog  *time.Timer
	// epoch invalidates in-flight loads and pending watchdogs after any
	// teardown; results carrying a stale epoch are discarded on arrival.
	epoch          uint64
	degraded       bool
	embedConfirmed bool
	lastErr        error
}

// NewResolver builds a resolver for one detail view, starting at Idle.
func NewResolver(detail models.CatalogDetail, opts Options) *Resolver {
	if opts.Loaders == nil {
		opts.Loaders = NewHTTPLoaderFactory(nil)
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = DefaultEmbedTimeout
	}
	return &Resolver{
		detail:       detail,
		loaders:      opts.Loaders,
		nativeHLS:    opts.NativeHLS,
		embedTimeout: opts.EmbedTimeout,
		state:        StateIdle,
		kind:         SourceNone,
		selection:    models.PlaybackSelection{CurrentLevel: -1},
	}
}

// Select picks a (server, episode) pair and classifies its source. Any active
// loader is torn down first. Out-of-range indexes fall back to (0, 0). A
// source-less episode lands in StateUnplayable without ever attaching.
func (r *Resolver) Select(serverIndex, episodeIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.detail.Servers) == 0 {
		r.teardownLocked()
		r.state = StateUnplayable
		r.kind = SourceNone
		return ErrNoServers
	}

	if serverIndex < 0 || serverIndex >= len(r.detail.Servers) {
		serverIndex = 0
	}
	if episodeIndex < 0 || episodeIndex >= len(r.detail.Servers[serverIndex].Episodes) {
		episodeIndex = 0
	}
	if len(r.detail.Servers[serverIndex].Episodes) == 0 {
		r.teardownLocked()
		r.state = StateUnplayable
		r.kind = SourceNone
		r.selection = models.PlaybackSelection{ServerIndex: serverIndex, CurrentLevel: -1}
		return nil
	}

	r.teardownLocked()
	r.selection = models.PlaybackSelection{
		ServerIndex:  serverIndex,
		EpisodeIndex: episodeIndex,
		CurrentLevel: -1,
	}
	r.degraded = false
	r.embedConfirmed = false
	r.lastErr = nil

	ep := r.detail.Servers[serverIndex].Episodes[episodeIndex]
	r.kind, r.sourceURL = classifyEpisode(ep)
	if r.kind == SourceNone {
		r.state = StateUnplayable
		return nil
	}
	r.state = StateSourceChosen
	return nil
}

// classifyEpisode prefers HLS over embed. An hlsUrl that does not actually
// name a manifest (wrong suffix) is treated as absent.
func classifyEpisode(ep models.Episode) (SourceKind, string) {
	if hls := NormalizeSourceURL(ep.HLSURL); hls != "" && IsHLSURL(hls) {
		return SourceHLS, hls
	}
	if embed := CanonicalEmbedURL(ep.EmbedURL); embed != "" {
		return SourceEmbed, embed
	}
	return SourceNone, ""
}

// Start attaches the chosen source. HLS without native support fetches and
// parses the manifest synchronously (callers run this off the render path);
// native HLS and embeds transition to Playing optimistically, with embeds
// guarded by the load watchdog.
func (r *Resolver) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateSourceChosen {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("cannot start playback from state %q", state)
	}

	switch r.kind {
	case SourceEmbed:
		r.state = StatePlaying
		r.armWatchdogLocked()
		r.mu.Unlock()
		return nil

	case SourceHLS:
		if r.nativeHLS {
			r.state = StatePlaying
			r.mu.Unlock()
			return nil
		}
		r.state = StateAttaching
		epoch := r.epoch
		url := r.sourceURL
		r.mu.Unlock()
		return r.attach(ctx, epoch, url)
	}

	r.mu.Unlock()
	return fmt.Errorf("cannot start playback for source kind %q", r.kind)
}

// attach loads the manifest outside the lock so Close or a switch can
// invalidate the attempt mid-flight. A failed load gets one retry at
// automatic quality before the attempt is declared failed.
func (r *Resolver) attach(ctx context.Context, epoch uint64, manifestURL string) error {
	loader := r.loaders()
	levels, err := loader.Load(ctx, manifestURL)

	r.mu.Lock()
	if epoch != r.epoch {
		r.mu.Unlock()
		loader.Destroy()
		return nil
	}

	if err != nil {
		loader.Destroy()
		if !r.degraded {
			r.degraded = true
			r.selection.CurrentLevel = -1
			r.mu.Unlock()
			log.Printf("[playback] manifest load failed, retrying at automatic quality: %v", err)
			return r.attach(ctx, epoch, manifestURL)
		}
		r.state = StateFailed
		r.lastErr = err
		r.mu.Unlock()
		log.Printf("[playback] manifest load failed after retry: %v", err)
		return err
	}

	r.loader = loader
	r.levels = levels
	if !r.degraded && len(levels) > 0 {
		// Catalog browsing defaults to best quality; stepping down under
		// bandwidth pressure is the player's job.
		r.selection.CurrentLevel = levels[len(levels)-1].Index
		loader.SetLevel(r.selection.CurrentLevel)
	}
	r.state = StatePlaying
	r.mu.Unlock()
	return nil
}

// SetLevel applies an explicit quality selection while playing. -1 selects
// automatic. Out-of-range indexes are ignored.
func (r *Resolver) SetLevel(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePlaying || r.kind != SourceHLS {
		return
	}
	if index != -1 && (index < 0 || index >= len(r.levels)) {
		return
	}
	r.selection.CurrentLevel = index
	if r.loader != nil {
		r.loader.SetLevel(index)
	}
}

// OnFatalError handles a fatal player error during HLS playback. The first
// one degrades to automatic quality and keeps playing; a second gives up.
func (r *Resolver) OnFatalError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePlaying || r.kind != SourceHLS {
		return
	}
	if !r.degraded {
		r.degraded = true
		r.selection.CurrentLevel = -1
		if r.loader != nil {
			r.loader.SetLevel(-1)
		}
		log.Printf("[playback] fatal player error, degrading to automatic quality: %v", err)
		return
	}
	r.state = StateFailed
	r.lastErr = err
}

// EmbedLoaded confirms the embed iframe rendered, disarming the watchdog.
func (r *Resolver) EmbedLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kind != SourceEmbed || r.state != StatePlaying {
		return
	}
	r.embedConfirmed = true
	r.stopWatchdogLocked()
}

// EmbedFailed reports an immediate iframe load error.
func (r *Resolver) EmbedFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kind != SourceEmbed || r.state != StatePlaying {
		return
	}
	r.stopWatchdogLocked()
	r.state = StateFailed
	r.lastErr = errors.New("embed failed to load")
}

// SwitchKind flips the current episode between its embed and HLS sources,
// tearing down the active attempt. The same URL is never auto-retried; the
// switch lands back in StateSourceChosen for an explicit new Start.
func (r *Resolver) SwitchKind() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.currentEpisodeLocked()
	if !ok {
		return ErrNoAlternateSource
	}

	var nextKind SourceKind
	var nextURL string
	switch r.kind {
	case SourceEmbed:
		if hls := NormalizeSourceURL(ep.HLSURL); hls != "" && IsHLSURL(hls) {
			nextKind, nextURL = SourceHLS, hls
		}
	case SourceHLS:
		if embed := CanonicalEmbedURL(ep.EmbedURL); embed != "" {
			nextKind, nextURL = SourceEmbed, embed
		}
	}
	if nextKind == "" {
		return ErrNoAlternateSource
	}

	r.teardownLocked()
	r.kind = nextKind
	r.sourceURL = nextURL
	r.selection.CurrentLevel = -1
	r.degraded = false
	r.embedConfirmed = false
	r.lastErr = nil
	r.state = StateSourceChosen
	return nil
}

// Retry re-arms the current pair after a failure for a fresh Start.
func (r *Resolver) Retry() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateFailed {
		return fmt.Errorf("cannot retry from state %q", r.state)
	}
	r.teardownLocked()
	r.degraded = false
	r.embedConfirmed = false
	r.lastErr = nil
	r.selection.CurrentLevel = -1
	r.state = StateSourceChosen
	return nil
}

// Alternatives lists the other playable (server, episode) pairs the user can
// switch to, in server order.
func (r *Resolver) Alternatives() []models.PlaybackSelection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alternativesLocked()
}

func (r *Resolver) alternativesLocked() []models.PlaybackSelection {
	var out []models.PlaybackSelection
	for si, srv := range r.detail.Servers {
		for ei, ep := range srv.Episodes {
			if si == r.selection.ServerIndex && ei == r.selection.EpisodeIndex {
				continue
			}
			if ep.Playable() {
				out = append(out, models.PlaybackSelection{ServerIndex: si, EpisodeIndex: ei, CurrentLevel: -1})
			}
		}
	}
	return out
}

// ExternalURL is the open-in-new-tab escape hatch: the non-embedded form of
// the current source, so a failure never strands the user.
func (r *Resolver) ExternalURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.externalURLLocked()
}

func (r *Resolver) externalURLLocked() string {
	switch r.kind {
	case SourceEmbed:
		return DirectURL(r.sourceURL)
	case SourceHLS:
		return r.sourceURL
	}
	return ""
}

// Snapshot returns the externally visible state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		State:     r.state,
		Kind:      r.kind,
		Selection: r.selection,
		SourceURL: r.sourceURL,
		Levels:    append([]Level(nil), r.levels...),
	}
	if r.state == StateFailed || r.state == StateUnplayable {
		snap.ExternalURL = r.externalURLLocked()
		snap.Alternates = r.alternativesLocked()
	}
	if r.lastErr != nil {
		snap.Error = r.lastErr.Error()
	}
	return snap
}

// State returns the current lifecycle state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close tears the resolver down. In-flight loads and pending watchdogs are
// invalidated and discarded on arrival.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
	r.state = StateIdle
	r.kind = SourceNone
	r.sourceURL = ""
}

// teardownLocked destroys the active loader and disarms the watchdog. The
// epoch bump orphans anything still in flight.
func (r *Resolver) teardownLocked() {
	r.epoch++
	r.stopWatchdogLocked()
	if r.loader != nil {
		r.loader.Destroy()
		r.loader = nil
	}
	r.levels = nil
}

func (r *Resolver) armWatchdogLocked() {
	epoch := r.epoch
	r.watchdog = time.AfterFunc(r.embedTimeout, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if epoch != r.epoch || r.state != StatePlaying || r.kind != SourceEmbed || r.embedConfirmed {
			return
		}
		r.state = StateFailed
		r.lastErr = fmt.Errorf("embed did not load within %s", r.embedTimeout)
		log.Printf("[playback] embed watchdog fired after %s", r.embedTimeout)
	})
}

func (r *Resolver) stopWatchdogLocked() {
	if r.watchdog != nil {
		r.watchdog.Stop()
		r.watchdog = nil
	}
}

func (r *Resolver) currentEpisodeLocked() (models.Episode, bool) {
	si, ei := r.selection.ServerIndex, r.selection.EpisodeIndex
	if si < 0 || si >= len(r.detail.Servers) {
		return models.Episode{}, false
	}
	srv := r.detail.Servers[si]
	if ei < 0 || ei >= len(srv.Episodes) {
		return models.Episode{}, false
	}
	return srv.Episodes[ei], true
}
