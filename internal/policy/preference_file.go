package policy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PreferenceFile holds accessibility preferences read from a KEY=VALUE file
// and reloads them whenever the file changes. Recognized keys:
//
//	REDUCE_MOTION=true|false
//	LOW_POWER=true|false
type PreferenceFile struct {
	path   string
	logger *zap.Logger

	reduce   atomic.Bool
	lowPower atomic.Bool

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	once    sync.Once
}

// Preferences is the parsed content of a preference file.
type Preferences struct {
	ReduceMotion bool
	LowPower     bool
}

// OpenPreferenceFile loads path and starts watching it. A file that does not
// exist yet reads as all preferences off and is picked up once created.
func OpenPreferenceFile(path string, logger *zap.Logger) (*PreferenceFile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &PreferenceFile{path: filepath.Clean(path), logger: logger}
	if err := p.reload(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("preferences: create watcher: %w", err)
	}
	// Watch the directory: editors commonly replace the file via rename.
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("preferences: watch %s: %w", filepath.Dir(p.path), err)
	}
	p.watcher = w
	p.wg.Add(1)
	go p.watch()
	return p, nil
}

func (p *PreferenceFile) ReduceMotion() bool    { return p.reduce.Load() }
func (p *PreferenceFile) LowPowerEnabled() bool { return p.lowPower.Load() }

// Close stops watching the file.
func (p *PreferenceFile) Close() error {
	var err error
	p.once.Do(func() {
		if p.watcher != nil {
			err = p.watcher.Close()
		}
		p.wg.Wait()
	})
	return err
}

func (p *PreferenceFile) watch() {
	defer p.wg.Done()
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != p.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := p.reload(); err != nil {
				p.logger.Warn("preferences: reload failed", zap.String("path", p.path), zap.Error(err))
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("preferences: watcher error", zap.Error(err))
		}
	}
}

func (p *PreferenceFile) reload() error {
	f, err := os.Open(p.path)
	if errors.Is(err, os.ErrNotExist) {
		p.store(Preferences{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("preferences: open %s: %w", p.path, err)
	}
	defer f.Close()

	prefs, err := ParsePreferences(f)
	if err != nil {
		return fmt.Errorf("preferences: %s: %w", p.path, err)
	}
	p.store(prefs)
	p.logger.Info("preferences loaded",
		zap.Bool("reduce_motion", prefs.ReduceMotion),
		zap.Bool("low_power", prefs.LowPower))
	return nil
}

func (p *PreferenceFile) store(prefs Preferences) {
	p.reduce.Store(prefs.ReduceMotion)
	p.lowPower.Store(prefs.LowPower)
}

// ParsePreferences reads KEY=VALUE lines. Blank lines and # comments are
// skipped; unknown keys are ignored so the file can be shared.
func ParsePreferences(r io.Reader) (Preferences, error) {
	var prefs Preferences
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Preferences{}, fmt.Errorf("invalid line %d: %q", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "REDUCE_MOTION", "LOW_POWER":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return Preferences{}, fmt.Errorf("line %d: invalid %s %q: %w", lineNum, key, value, err)
			}
			if key == "REDUCE_MOTION" {
				prefs.ReduceMotion = b
			} else {
				prefs.LowPower = b
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}
