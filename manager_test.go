// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/ik5/audspace/attenuation"
	"github.com/ik5/audspace/fetch"
	"github.com/ik5/audspace/graph"
	"github.com/ik5/audspace/graph/soft"
	"github.com/ik5/audspace/internal/audiotest"
)

const testRate = 8000

type harness struct {
	m       *Manager
	sc      *soft.Context
	fetcher *audiotest.Fetcher
	clock   *audiotest.Clock
}

// newHarness builds a running manager on an 8 kHz soft context. tone.wav
// lasts 0.5 s and long.wav 2 s.
func newHarness(t testing.TB, mutate ...func(*Config)) *harness {
	t.Helper()

	h := &harness{
		fetcher: audiotest.NewFetcher(map[string][]byte{
			"tone.wav": audiotest.ToneWAV(t, testRate, 0.5),
			"long.wav": audiotest.ToneWAV(t, testRate, 2),
			"junk.bin": []byte("definitely not audio"),
		}),
		clock: audiotest.NewClock(),
	}

	cfg := DefaultConfig()
	cfg.Fetcher = h.fetcher
	cfg.Clock = h.clock
	cfg.Rand = rand.New(rand.NewPCG(1, 2))
	cfg.NewContext = func() (graph.Context, error) {
		c, err := soft.New(soft.WithSampleRate(testRate))
		h.sc = c
		return c, err
	}
	for _, f := range mutate {
		f(&cfg)
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if err := m.Resume(context.Background()); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Dispose(context.Background()) })

	h.m = m
	return h
}

// render pulls frames stereo frames and returns the energy of each channel.
func (h *harness) render(t testing.TB, frames int) (left, right float64) {
	t.Helper()

	buf := make([]float32, frames*2)
	if _, err := h.sc.Render(buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for i := range frames {
		left += float64(buf[i*2]) * float64(buf[i*2])
		right += float64(buf[i*2+1]) * float64(buf[i*2+1])
	}
	return left, right
}

func (h *harness) sound(t testing.TB, id string, cfg SourceConfig) *Source {
	t.Helper()

	s, err := h.m.CreatePositionalSound(context.Background(), id, cfg)
	if err != nil {
		t.Fatalf("CreatePositionalSound(%q) error = %v", id, err)
	}
	return s
}

func TestNewManager_ContextError(t *testing.T) {
	t.Parallel()

	boom := errors.New("no device")
	_, err := NewManager(Config{NewContext: func() (graph.Context, error) { return nil, boom }})
	if !errors.Is(err, boom) {
		t.Fatalf("NewManager() error = %v, want %v", err, boom)
	}
}

func TestManager_ResumeSuspend(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	if err := h.m.Resume(ctx); err != nil {
		t.Fatalf("second Resume() error = %v", err)
	}
	if err := h.m.Suspend(ctx); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if err := h.m.Suspend(ctx); err != nil {
		t.Fatalf("second Suspend() error = %v", err)
	}
	if got := h.sc.State(); got != graph.Suspended {
		t.Errorf("State() = %v, want suspended", got)
	}
}

func TestManager_SetMasterVolume(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{1.7, 1},
		{math.Inf(1), 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		h.m.SetMasterVolume(tt.in)
		if got := h.m.MasterVolume(); got != tt.want {
			t.Errorf("SetMasterVolume(%v): MasterVolume() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestManager_MasterVolumeSilences(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cfg := NewSourceConfig("long.wav")
	cfg.Loop = true
	h.sound(t, "s", cfg).Play(0)

	if l, r := h.render(t, 512); l+r == 0 {
		t.Fatal("no output at full master volume")
	}

	h.m.SetMasterVolume(0)
	if l, r := h.render(t, 512); l+r != 0 {
		t.Errorf("energy at master volume 0 = %v, want 0", l+r)
	}

	h.m.SetMasterVolume(1)
	h.m.SetMasterVolume(math.NaN())
	if l, r := h.render(t, 512); l+r != 0 {
		t.Errorf("energy at master volume NaN = %v, want 0", l+r)
	}
}

func TestManager_Listener(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	if fwd, up := h.m.ListenerOrientation(); fwd != (Vec3{Z: -1}) || up != (Vec3{Y: 1}) {
		t.Errorf("default orientation = %v %v", fwd, up)
	}

	h.m.SyncListener(pose{pos: Vec3{X: 1, Y: 2, Z: 3}, fwd: Vec3{X: 1}, up: Vec3{Y: 1}})

	if got := h.m.ListenerPosition(); got != (Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("ListenerPosition() = %v", got)
	}
	pos, fwd, up := h.sc.Listener().(*soft.Listener).Pose()
	if pos != (Vec3{X: 1, Y: 2, Z: 3}) || fwd != (Vec3{X: 1}) || up != (Vec3{Y: 1}) {
		t.Errorf("device listener pose = %v %v %v", pos, fwd, up)
	}
}

func TestManager_ListenerDoesNotAllocate(t *testing.T) {
	h := newHarness(t)

	allocs := testing.AllocsPerRun(100, func() {
		h.m.SetListenerPosition(1, 2, 3)
		h.m.SetListenerOrientation(0, 0, -1, 0, 1, 0)
		h.m.SetMasterVolume(0.5)
	})
	if allocs != 0 {
		t.Errorf("per-frame updates allocate %v times", allocs)
	}
}

type pose struct{ pos, fwd, up Vec3 }

func (p pose) ListenerPose() (Vec3, Vec3, Vec3) { return p.pos, p.fwd, p.up }

func TestManager_LoadBuffer(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	b, err := h.m.LoadBuffer(ctx, "tone.wav")
	if err != nil {
		t.Fatalf("LoadBuffer() error = %v", err)
	}
	if got, want := b.Length(), testRate/2; got != want {
		t.Errorf("Length() = %d, want %d", got, want)
	}

	again, err := h.m.LoadBuffer(ctx, "tone.wav")
	if err != nil {
		t.Fatalf("second LoadBuffer() error = %v", err)
	}
	if again != b {
		t.Error("second LoadBuffer() returned a different buffer")
	}
	if got := h.fetcher.Calls("tone.wav"); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestManager_LoadBufferErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	tests := []struct {
		name string
		url  string
		want error
	}{
		{name: "empty", url: "", want: ErrEmptyURL},
		{name: "missing", url: "nope.wav", want: fetch.ErrNotFound},
		{name: "undecodable", url: "junk.bin", want: soft.ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.m.LoadBuffer(context.Background(), tt.url)
			if !errors.Is(err, tt.want) {
				t.Fatalf("LoadBuffer(%q) error = %v, want %v", tt.url, err, tt.want)
			}

			var le *LoadError
			if !errors.As(err, &le) || le.URL != tt.url {
				t.Errorf("LoadBuffer(%q) error = %#v, want *LoadError for the url", tt.url, err)
			}
		})
	}

	if _, err := h.m.LoadBuffer(context.Background(), "nope.wav"); err == nil {
		t.Error("failed load was cached")
	}
	if got := h.fetcher.Calls("nope.wav"); got != 2 {
		t.Errorf("fetches of a failing url = %d, want 2", got)
	}
}

func TestManager_LoadBufferConcurrent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	gate := make(chan struct{})
	h.fetcher.Gate = gate

	const callers = 8
	var (
		wg   sync.WaitGroup
		mtx  sync.Mutex
		seen = make(map[graph.Buffer]int)
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			b, err := h.m.LoadBuffer(context.Background(), "long.wav")
			if err != nil {
				t.Errorf("LoadBuffer() error = %v", err)
				return
			}
			mtx.Lock()
			seen[b]++
			mtx.Unlock()
		}()
	}
	close(gate)
	wg.Wait()

	if got := h.fetcher.Calls("long.wav"); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
	if len(seen) != 1 {
		t.Errorf("callers saw %d distinct buffers, want 1", len(seen))
	}
}

func TestManager_LoadBufferCanceledCaller(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	gate := make(chan struct{})
	h.fetcher.Gate = gate

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := h.m.LoadBuffer(ctx, "tone.wav")
		errc <- err
	}()
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled LoadBuffer() error = %v, want context.Canceled", err)
	}

	close(gate)
	if _, err := h.m.LoadBuffer(context.Background(), "tone.wav"); err != nil {
		t.Fatalf("LoadBuffer() after a canceled caller error = %v", err)
	}
}

func TestManager_LoadBufferRetriesAbandonedFetch(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fetcher.SetGate(make(chan struct{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.m.LoadBuffer(ctx, "tone.wav"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("stuck LoadBuffer() error = %v, want context.DeadlineExceeded", err)
	}

	h.fetcher.SetGate(nil)
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.m.LoadBuffer(ctx, "tone.wav"); err != nil {
		t.Fatalf("LoadBuffer() after an abandoned fetch error = %v", err)
	}
	if got := h.fetcher.Calls("tone.wav"); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestManager_Preload(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	if err := h.m.Preload(context.Background(), "tone.wav", "long.wav"); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if got := h.m.Cache().Len(); got != 2 {
		t.Errorf("cached buffers = %d, want 2", got)
	}

	err := h.m.Preload(context.Background(), "tone.wav", "nope.wav")
	var le *LoadError
	if !errors.As(err, &le) || le.URL != "nope.wav" {
		t.Errorf("Preload() error = %v, want *LoadError for nope.wav", err)
	}
}

func TestManager_MaxSounds(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(c *Config) { c.MaxSounds = 2 })
	cfg := NewSourceConfig("tone.wav")

	first := h.sound(t, "a", cfg)
	h.sound(t, "b", cfg)

	if _, err := h.m.CreatePositionalSound(context.Background(), "c", cfg); !errors.Is(err, ErrMaxSounds) {
		t.Fatalf("third sound error = %v, want ErrMaxSounds", err)
	}

	// Reusing an id replaces the old sound and does not count against the cap.
	first.Play(0)
	replaced := h.sound(t, "a", cfg)
	if replaced == first {
		t.Fatal("reused id returned the old source")
	}
	if first.IsPlaying() {
		t.Error("replaced source still playing")
	}
	first.Play(0)
	if first.IsPlaying() {
		t.Error("disposed source started playing")
	}
	if got, _ := h.m.Sound("a"); got != replaced {
		t.Error("registry does not hold the replacement")
	}

	h.m.RemoveSound("b")
	if _, err := h.m.CreatePositionalSound(context.Background(), "c", cfg); err != nil {
		t.Fatalf("sound after removal error = %v", err)
	}
}

func TestManager_PositionalScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	cfg := NewSourceConfig("long.wav")
	cfg.Loop = true
	s := h.sound(t, "engine", cfg)
	s.SetPosition(10, 0, 0)
	h.m.PlaySound("engine")

	if !s.IsPlaying() {
		t.Fatal("sound not playing after PlaySound")
	}

	left, right := h.render(t, 1024)
	if right <= 0 || left > right*1e-6 {
		t.Errorf("source to the right: left energy %v, right energy %v", left, right)
	}

	// Moving closer raises the level: inverse law, 1/(1+9) at 10 m.
	s.SetPosition(1, 0, 0)
	h.render(t, 128)
	_, near := h.render(t, 1024)
	if near < 50*right {
		t.Errorf("energy at 1 m = %v, at 10 m = %v, want about 100x", near, right)
	}

	// Turning the listener around swaps the ears.
	h.m.SetListenerOrientation(0, 0, 1, 0, 1, 0)
	h.render(t, 128)
	left, right = h.render(t, 1024)
	if left <= right {
		t.Errorf("after turning: left energy %v, right energy %v", left, right)
	}

	h.m.StopSound("engine")
	if s.IsPlaying() {
		t.Error("sound playing after StopSound")
	}
}

func TestManager_UnknownIDs(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	h.m.PlaySound("nope")
	h.m.StopSound("nope")
	h.m.PlayAmbient("nope")
	h.m.FadeOutAmbient("nope", 0)
	h.m.RemovePool("nope")
	if v := h.m.PlaySoundFromPool("nope", nil); v != nil {
		t.Errorf("PlaySoundFromPool(unknown) = %v, want nil", v)
	}
}

func TestManager_StopAll(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	s := h.sound(t, "s", NewSourceConfig("long.wav"))
	a, err := h.m.CreateAmbientSound(ctx, "wind", NewAmbientConfig("long.wav"))
	if err != nil {
		t.Fatalf("CreateAmbientSound() error = %v", err)
	}
	p, err := h.m.CreateSoundPool(ctx, "steps", NewPoolConfig("tone.wav", 2))
	if err != nil {
		t.Fatalf("CreateSoundPool() error = %v", err)
	}

	s.Play(0)
	a.Play()
	p.Play(nil)
	h.render(t, 128)
	if got := h.sc.Stats().ActiveSources; got != 3 {
		t.Fatalf("active sources = %d, want 3", got)
	}

	h.m.StopAll()
	if s.IsPlaying() || a.IsPlaying() || p.Voice(0).IsPlaying() {
		t.Error("something still playing after StopAll")
	}
	if got := h.sc.Stats().ActiveSources; got != 0 {
		t.Errorf("active sources = %d, want 0", got)
	}
}

func TestManager_Dispose(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	s := h.sound(t, "s", NewSourceConfig("tone.wav"))
	s.Play(0)
	if err := h.m.SetEnvironmentType(EnvironmentIndoor); err != nil {
		t.Fatalf("SetEnvironmentType() error = %v", err)
	}

	if err := h.m.Dispose(ctx); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if err := h.m.Dispose(ctx); !errors.Is(err, ErrDisposed) {
		t.Errorf("second Dispose() error = %v, want ErrDisposed", err)
	}

	if s.IsPlaying() {
		t.Error("source playing after Dispose")
	}
	if got := h.m.Cache().Len(); got != 0 {
		t.Errorf("cached buffers after Dispose = %d", got)
	}
	if got := h.sc.State(); got != graph.Closed {
		t.Errorf("context state = %v, want closed", got)
	}
	if _, ok := h.m.Sound("s"); ok {
		t.Error("registry still holds sound after Dispose")
	}

	checks := map[string]error{}
	_, checks["CreatePositionalSound"] = h.m.CreatePositionalSound(ctx, "x", NewSourceConfig("tone.wav"))
	_, checks["LoadBuffer"] = h.m.LoadBuffer(ctx, "tone.wav")
	checks["SetEnvironment"] = h.m.SetEnvironmentType(EnvironmentCave)
	checks["Resume"] = h.m.Resume(ctx)
	for name, err := range checks {
		if !errors.Is(err, ErrDisposed) {
			t.Errorf("%s after Dispose error = %v, want ErrDisposed", name, err)
		}
	}
}

func TestLoadError(t *testing.T) {
	t.Parallel()

	err := error(&LoadError{URL: "a.wav", Err: fetch.ErrNotFound})
	if got, want := err.Error(), `loading "a.wav": asset not found`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, fetch.ErrNotFound) {
		t.Error("LoadError does not unwrap")
	}
}

func TestManager_ToneLevel(t *testing.T) {
	t.Parallel()

	// A 0.5 amplitude tone through a unity chain at 1 m keeps its RMS.
	h := newHarness(t)
	cfg := NewSourceConfig("long.wav")
	s := h.sound(t, "s", cfg)
	s.SetPosition(0, 0, -1)
	s.Play(0)

	left, right := h.render(t, 4096)
	rms := math.Sqrt((left + right) / (2 * 4096))
	// Equal-power centre is cos(pi/4) per ear.
	want := 0.5 / math.Sqrt2 * math.Sqrt2 / 2
	if math.Abs(rms-want) > 0.02 {
		t.Errorf("rms = %v, want about %v", rms, want)
	}
}

func TestManager_PlayStopScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cfg := NewSourceConfig("tone.wav")
	cfg.DistanceModel = attenuation.Inverse
	cfg.RefDistance = 1
	cfg.MaxDistance = 50
	cfg.RolloffFactor = 1

	s := h.sound(t, "s1", cfg)
	s.Play(0)
	if !s.IsPlaying() {
		t.Fatal("IsPlaying() = false after Play")
	}
	s.Stop()
	if s.IsPlaying() {
		t.Fatal("IsPlaying() = true after Stop")
	}

	// Stopping again, and after the buffer ran out, is a no-op.
	s.Stop()
	s.Play(0)
	h.render(t, 4096+128)
	s.Stop()
	if got := s.State(); got != Stopped {
		t.Errorf("State() = %v, want stopped", got)
	}
}
