// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/audspace/graph"
	"github.com/ik5/audspace/utils"
)

// preloadLimit bounds concurrent fetches during Preload.
const preloadLimit = 4

// Manager owns the device graph and every sound registered on it:
//
//	sources -> environment input -> [environment] -> master -> destination
//
// All methods are safe for concurrent use.
type Manager struct {
	mtx sync.RWMutex

	cfg    Config
	logger *slog.Logger
	ctx    graph.Context
	cache  *BufferCache

	master   graph.GainNode
	envInput graph.GainNode
	env      *Environment
	envCfg   EnvironmentConfig

	masterVolume float64
	listenerPos  Vec3
	listenerFwd  Vec3
	listenerUp   Vec3

	sounds   map[string]*Source
	ambients map[string]*AmbientSource
	pools    map[string]*SoundPool
	disposed bool
}

// NewManager builds the device context and the master bus. The context starts
// suspended on most devices; call Resume from a user gesture.
func NewManager(cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	ctx, err := cfg.NewContext()
	if err != nil {
		return nil, fmt.Errorf("creating audio context: %w", err)
	}

	m := &Manager{
		cfg:          cfg,
		logger:       cfg.Logger,
		ctx:          ctx,
		cache:        cfg.Cache,
		master:       ctx.CreateGain(),
		envInput:     ctx.CreateGain(),
		envCfg:       EnvironmentPreset(EnvironmentNone),
		masterVolume: 1,
		listenerFwd:  Vec3{Z: -1},
		listenerUp:   Vec3{Y: 1},
		sounds:       make(map[string]*Source),
		ambients:     make(map[string]*AmbientSource),
		pools:        make(map[string]*SoundPool),
	}
	m.master.Connect(ctx.Destination())
	m.envInput.Connect(m.master)

	m.logger.Debug("audio manager created",
		"sample_rate", ctx.SampleRate(),
		"state", ctx.State().String(),
		"routing", cfg.Routing.String(),
	)

	return m, nil
}

// Context returns the device graph.
func (m *Manager) Context() graph.Context { return m.ctx }

// Cache returns the decoded buffer cache.
func (m *Manager) Cache() *BufferCache { return m.cache }

// Resume starts the device. It does nothing when already running.
func (m *Manager) Resume(ctx context.Context) error {
	if err := m.alive(); err != nil {
		return err
	}
	if m.ctx.State() == graph.Running {
		return nil
	}
	if err := m.ctx.Resume(ctx); err != nil {
		return fmt.Errorf("resuming audio context: %w", err)
	}
	return nil
}

func (m *Manager) Suspend(ctx context.Context) error {
	if err := m.alive(); err != nil {
		return err
	}
	if m.ctx.State() == graph.Suspended {
		return nil
	}
	if err := m.ctx.Suspend(ctx); err != nil {
		return fmt.Errorf("suspending audio context: %w", err)
	}
	return nil
}

func (m *Manager) alive() error {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	if m.disposed {
		return ErrDisposed
	}
	return nil
}

// SetMasterVolume sets the master gain, clamped to [0, 1]. NaN mutes.
func (m *Manager) SetMasterVolume(v float64) {
	if math.IsNaN(v) {
		v = 0
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.disposed {
		return
	}
	m.masterVolume = utils.Clamp(v, 0, 1)
	m.master.Gain().SetValue(m.masterVolume)
}

func (m *Manager) MasterVolume() float64 {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return m.masterVolume
}

// SetListenerPosition moves the listener. It is meant to be called every
// frame and does not allocate.
func (m *Manager) SetListenerPosition(x, y, z float64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.disposed {
		return
	}
	m.listenerPos = Vec3{X: x, Y: y, Z: z}
	graph.SetPosition(m.ctx.Listener(), x, y, z)
}

// SetListenerOrientation sets the listener forward and up vectors.
func (m *Manager) SetListenerOrientation(fx, fy, fz, ux, uy, uz float64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.disposed {
		return
	}
	m.listenerFwd = Vec3{X: fx, Y: fy, Z: fz}
	m.listenerUp = Vec3{X: ux, Y: uy, Z: uz}
	graph.SetListenerOrientation(m.ctx.Listener(), fx, fy, fz, ux, uy, uz)
}

func (m *Manager) ListenerPosition() Vec3 {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return m.listenerPos
}

func (m *Manager) ListenerOrientation() (forward, up Vec3) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return m.listenerFwd, m.listenerUp
}

// SyncListener copies the pose of p onto the listener.
func (m *Manager) SyncListener(p PoseSource) {
	pos, fwd, up := p.ListenerPose()
	m.SetListenerPosition(pos.X, pos.Y, pos.Z)
	m.SetListenerOrientation(fwd.X, fwd.Y, fwd.Z, up.X, up.Y, up.Z)
}

// LoadBuffer fetches and decodes url once; later and concurrent calls share
// the cached buffer. Failures are returned as *LoadError.
func (m *Manager) LoadBuffer(ctx context.Context, url string) (graph.Buffer, error) {
	if url == "" {
		return nil, &LoadError{URL: url, Err: ErrEmptyURL}
	}
	if err := m.alive(); err != nil {
		return nil, err
	}

	buf, err := m.cache.Load(ctx, url, func(ctx context.Context) (graph.Buffer, error) {
		data, err := m.cfg.Fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		b, err := m.ctx.DecodeAudioData(ctx, data)
		if err != nil {
			return nil, err
		}

		m.logger.Debug("buffer loaded", "url", url, "duration", b.Duration(), "channels", b.NumberOfChannels())
		return b, nil
	})
	if err != nil {
		m.logger.Warn("loading buffer failed", "url", url, "err", err)
		return nil, &LoadError{URL: url, Err: err}
	}

	return buf, nil
}

// Preload loads every url concurrently and returns the first failure.
func (m *Manager) Preload(ctx context.Context, urls ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadLimit)

	for _, url := range urls {
		g.Go(func() error {
			_, err := m.LoadBuffer(gctx, url)
			return err
		})
	}

	return g.Wait()
}

// sourceInput is the node new sources feed. Called with mtx held.
func (m *Manager) sourceInput() graph.Node {
	if m.cfg.Routing == RoutingDirect && m.env != nil {
		return m.env.Input()
	}
	return m.envInput
}

// CreatePositionalSound loads cfg.URL and registers a positional sound under
// id, replacing and disposing any sound already registered there.
func (m *Manager) CreatePositionalSound(ctx context.Context, id string, cfg SourceConfig) (*Source, error) {
	buf, err := m.LoadBuffer(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.disposed {
		return nil, ErrDisposed
	}

	old, exists := m.sounds[id]
	if !exists && m.cfg.MaxSounds > 0 && len(m.sounds) >= m.cfg.MaxSounds {
		m.logger.Warn("positional sound rejected", "id", id, "max_sounds", m.cfg.MaxSounds)
		return nil, fmt.Errorf("%w: %d", ErrMaxSounds, m.cfg.MaxSounds)
	}
	if exists {
		old.Dispose()
	}

	s := newSource(m.ctx, buf, m.cfg.resolve(cfg), m.sourceInput(), m.cfg.EnableHRTF)
	m.sounds[id] = s
	m.logger.Debug("positional sound created", "id", id, "url", cfg.URL)

	return s, nil
}

// CreateAmbientSound loads cfg.URL and registers an ambient sound under id,
// replacing and disposing any ambient sound already registered there.
func (m *Manager) CreateAmbientSound(ctx context.Context, id string, cfg AmbientConfig) (*AmbientSource, error) {
	buf, err := m.LoadBuffer(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.disposed {
		return nil, ErrDisposed
	}
	if old, ok := m.ambients[id]; ok {
		old.Dispose()
	}
	cfg.Volume = resolveVolume(cfg.Volume)

	a := newAmbientSource(m.ctx, buf, cfg, m.sourceInput(), m.cfg.Clock)
	m.ambients[id] = a
	m.logger.Debug("ambient sound created", "id", id, "url", cfg.URL)

	return a, nil
}

// CreateSoundPool loads cfg.URL and registers a pool of cfg.PoolSize voices
// under id, replacing and disposing any pool already registered there.
func (m *Manager) CreateSoundPool(ctx context.Context, id string, cfg PoolConfig) (*SoundPool, error) {
	if cfg.PoolSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPoolSize, cfg.PoolSize)
	}

	buf, err := m.LoadBuffer(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.disposed {
		return nil, ErrDisposed
	}
	if old, ok := m.pools[id]; ok {
		old.Dispose()
	}

	cfg.SourceConfig = m.cfg.resolve(cfg.SourceConfig)
	p, err := newSoundPool(m.ctx, buf, cfg, m.sourceInput(), m.cfg.EnableHRTF)
	if err != nil {
		return nil, err
	}
	m.pools[id] = p
	m.logger.Debug("sound pool created", "id", id, "url", cfg.URL, "size", cfg.PoolSize)

	return p, nil
}

func (m *Manager) Sound(id string) (*Source, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	s, ok := m.sounds[id]
	return s, ok
}

func (m *Manager) Ambient(id string) (*AmbientSource, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	a, ok := m.ambients[id]
	return a, ok
}

func (m *Manager) Pool(id string) (*SoundPool, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	p, ok := m.pools[id]
	return p, ok
}

// PlaySound plays the positional sound id from the start. Unknown ids are
// ignored.
func (m *Manager) PlaySound(id string) {
	if s, ok := m.Sound(id); ok {
		s.Play(0)
		return
	}
	m.logger.Debug("play of unknown sound", "id", id)
}

func (m *Manager) StopSound(id string) {
	if s, ok := m.Sound(id); ok {
		s.Stop()
	}
}

func (m *Manager) PlayAmbient(id string) {
	if a, ok := m.Ambient(id); ok {
		a.Play()
		return
	}
	m.logger.Debug("play of unknown ambient sound", "id", id)
}

func (m *Manager) StopAmbient(id string) {
	if a, ok := m.Ambient(id); ok {
		a.Stop()
	}
}

func (m *Manager) FadeInAmbient(id string, d time.Duration) {
	if a, ok := m.Ambient(id); ok {
		a.FadeIn(d)
	}
}

func (m *Manager) FadeOutAmbient(id string, d time.Duration) {
	if a, ok := m.Ambient(id); ok {
		a.FadeOut(d)
	}
}

// PlaySoundFromPool plays the next voice of pool id, at pos when pos is not nil.
// It returns nil for an unknown pool.
func (m *Manager) PlaySoundFromPool(id string, pos *Vec3) *Source {
	p, ok := m.Pool(id)
	if !ok {
		m.logger.Debug("play of unknown sound pool", "id", id)
		return nil
	}
	return p.Play(pos)
}

func (m *Manager) RemoveSound(id string) {
	m.mtx.Lock()
	s, ok := m.sounds[id]
	delete(m.sounds, id)
	m.mtx.Unlock()

	if ok {
		s.Dispose()
	}
}

func (m *Manager) RemoveAmbient(id string) {
	m.mtx.Lock()
	a, ok := m.ambients[id]
	delete(m.ambients, id)
	m.mtx.Unlock()

	if ok {
		a.Dispose()
	}
}

func (m *Manager) RemovePool(id string) {
	m.mtx.Lock()
	p, ok := m.pools[id]
	delete(m.pools, id)
	m.mtx.Unlock()

	if ok {
		p.Dispose()
	}
}

// StopAll stops every sound, ambient sound and pool voice.
func (m *Manager) StopAll() {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	for _, s := range m.sounds {
		s.Stop()
	}
	for _, a := range m.ambients {
		a.Stop()
	}
	for _, p := range m.pools {
		p.StopAll()
	}
}

// Environment returns the active environment configuration.
func (m *Manager) Environment() EnvironmentConfig {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return m.envCfg.clone()
}

// SetEnvironment replaces the environment chain. The previous chain is
// released first; if the new one cannot be built, sources play dry through
// the master bus and the error is returned.
func (m *Manager) SetEnvironment(cfg EnvironmentConfig) error {
	cfg = cfg.clone()

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.disposed {
		return ErrDisposed
	}

	m.envInput.Disconnect()
	if m.env != nil {
		m.env.Dispose()
		m.env = nil
	}

	var envErr error
	if cfg.Type != EnvironmentNone || cfg.Reverb != nil || cfg.LowpassFrequency > 0 || cfg.HighpassFrequency > 0 {
		env, err := NewEnvironment(m.ctx, cfg, m.cfg.Rand)
		if err != nil {
			envErr = fmt.Errorf("building %s environment: %w", cfg.Type, err)
		} else {
			m.env = env
		}
	}

	if m.env != nil {
		m.env.Output().Connect(m.master)
		if m.cfg.Routing == RoutingBus {
			m.envInput.Connect(m.env.Input())
		} else {
			m.envInput.Connect(m.master)
		}
		m.envCfg = cfg
	} else {
		m.envInput.Connect(m.master)
		m.envCfg = EnvironmentPreset(EnvironmentNone)
	}

	if m.cfg.Routing == RoutingDirect {
		in := m.sourceInput()
		for _, s := range m.sounds {
			s.route(in)
		}
		for _, a := range m.ambients {
			a.route(in)
		}
		for _, p := range m.pools {
			p.route(in)
		}
	}

	if envErr != nil {
		m.logger.Warn("environment failed, playing dry", "environment", cfg.Type, "err", envErr)
		return envErr
	}
	m.logger.Debug("environment set", "environment", cfg.Type)

	return nil
}

// SetEnvironmentType switches to the preset for t.
func (m *Manager) SetEnvironmentType(t EnvironmentType) error {
	return m.SetEnvironment(EnvironmentPreset(t))
}

// Dispose stops and releases every sound, clears the buffer cache and closes
// the device. A second call returns ErrDisposed.
func (m *Manager) Dispose(ctx context.Context) error {
	m.mtx.Lock()
	if m.disposed {
		m.mtx.Unlock()
		return ErrDisposed
	}
	m.disposed = true

	sounds, ambients, pools := m.sounds, m.ambients, m.pools
	m.sounds = make(map[string]*Source)
	m.ambients = make(map[string]*AmbientSource)
	m.pools = make(map[string]*SoundPool)
	env := m.env
	m.env = nil
	m.mtx.Unlock()

	for _, s := range sounds {
		s.Dispose()
	}
	for _, a := range ambients {
		a.Dispose()
	}
	for _, p := range pools {
		p.Dispose()
	}
	if env != nil {
		env.Dispose()
	}
	m.envInput.Disconnect()
	m.master.Disconnect()
	m.cache.Clear()

	m.logger.Debug("audio manager disposed", "sounds", len(sounds), "ambients", len(ambients), "pools", len(pools))

	if err := m.ctx.Close(ctx); err != nil {
		return fmt.Errorf("closing audio context: %w", err)
	}
	return nil
}
