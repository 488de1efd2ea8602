// Package audio plays the looping background soundtrack.
//
// The player is constructed once by the composition root and handed to
// whatever needs to start or stop music. It shares nothing with game state.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// ErrTrackNotFound is returned by Start when the soundtrack asset is missing.
var ErrTrackNotFound = errors.New("audio track not found")

var errEndedEarly = errors.New("playback ended immediately")

// Runner plays the file at path once at the given volume (0.0 to 1.0),
// blocking until playback ends or ctx is cancelled.
type Runner interface {
	Play(ctx context.Context, path string, volume float64) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, path string, volume float64) error

// Play calls f.
func (f RunnerFunc) Play(ctx context.Context, path string, volume float64) error {
	return f(ctx, path, volume)
}

// Config describes the soundtrack and how failed playback is retried.
type Config struct {
	AssetDir   string   // Directory holding bundled media
	Track      string   // Asset name without extension (e.g., "QueryCombatLoop")
	Extensions []string // Tried in order; "" means the bare name
	Volume     float64  // 0.0 to 1.0

	MinRunTime      time.Duration // A clean run shorter than this counts as a failure
	MaxAttempts     uint          // Consecutive failed runs before music is disabled
	InitialInterval time.Duration // First retry wait
	MaxInterval     time.Duration // Cap on retry wait
}

// DefaultConfig returns the soundtrack settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		AssetDir:        "assets",
		Track:           "QueryCombatLoop",
		Extensions:      []string{".mp3", ""},
		Volume:          0.5,
		MinRunTime:      time.Second,
		MaxAttempts:     5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Player loops a soundtrack in the background until stopped.
type Player struct {
	cfg    Config
	runner Runner
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPlayer creates a stopped player.
func NewPlayer(cfg Config, runner Runner, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		cfg:    cfg,
		runner: runner,
		logger: logger.With(zap.String("component", "audio")),
	}
}

// Locate returns the path of the soundtrack, trying each configured
// extension in order.
func (p *Player) Locate() (string, error) {
	exts := p.cfg.Extensions
	if len(exts) == 0 {
		exts = []string{""}
	}
	for _, ext := range exts {
		path := filepath.Join(p.cfg.AssetDir, p.cfg.Track+ext)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrTrackNotFound, p.cfg.Track, p.cfg.AssetDir)
}

// Start locates the soundtrack and begins looping it. Calling Start while
// music is playing does nothing. A missing track returns ErrTrackNotFound;
// callers are expected to log it and carry on without music.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		select {
		case <-p.done:
			// The previous loop gave up; start over.
			p.cancel()
		default:
			return nil
		}
	}

	path, err := p.Locate()
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(loopCtx, path, p.done)

	p.logger.Info("music started", zap.String("path", path), zap.Float64("volume", p.cfg.Volume))
	return nil
}

// Stop ends playback and waits for the loop to exit. It is safe to call
// when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("music stopped")
}

// Playing reports whether the loop is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// loop replays the track forever. Failed runs are retried with exponential
// backoff; after MaxAttempts consecutive failures the music is given up on.
func (p *Player) loop(ctx context.Context, path string, done chan struct{}) {
	defer close(done)

	bo := backoff.NewExponentialBackOff()
	if p.cfg.InitialInterval > 0 {
		bo.InitialInterval = p.cfg.InitialInterval
	}
	if p.cfg.MaxInterval > 0 {
		bo.MaxInterval = p.cfg.MaxInterval
	}
	attempts := p.cfg.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	for ctx.Err() == nil {
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			started := time.Now()
			err := p.runner.Play(ctx, path, p.cfg.Volume)
			if err == nil && time.Since(started) < p.cfg.MinRunTime {
				err = errEndedEarly
			}
			return struct{}{}, err
		},
			backoff.WithBackOff(bo),
			backoff.WithMaxTries(attempts),
			backoff.WithMaxElapsedTime(0),
			backoff.WithNotify(func(err error, wait time.Duration) {
				p.logger.Warn("music playback failed, retrying",
					zap.Error(err), zap.Duration("wait", wait))
			}),
		)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.logger.Error("music disabled after repeated failures",
				zap.String("path", path), zap.Uint("attempts", attempts), zap.Error(err))
			return
		}
	}
}
