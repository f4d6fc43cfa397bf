package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a pipeline document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json" // JSON with comments and trailing commas (JWCC)
)

// FormatFor picks a format from a file extension. Anything that is not
// .json/.jsonc is treated as YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Parse decodes a pipeline document and applies defaults.
func Parse(data []byte, format Format) (*PipelineConfig, error) {
	var cfg PipelineConfig
	switch format {
	case FormatJSON:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("standardize json: %w", err)
		}
		if err := json.Unmarshal(std, &cfg); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFile reads and parses a single pipeline file without watching it.
func LoadFile(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *PipelineConfig) {
	if cfg.Engine.TriggerWorkers == 0 {
		cfg.Engine.TriggerWorkers = 8
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = 1000
	}
	if cfg.Engine.TriggerTimeoutMs == 0 {
		cfg.Engine.TriggerTimeoutMs = 2000
	}
}

// Loader reads a pipeline config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *PipelineConfig
	onChange []func(*PipelineConfig) error
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the watched file path.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *PipelineConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
// A callback returning an error rejects the new config.
func (l *Loader) OnChange(fn func(*PipelineConfig) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					// Keep the old config when the new file does not parse or is rejected.
					_, _ = l.Reload()
				}
			case <-w.Errors:
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the config file. The new config
// becomes current only when every OnChange callback accepts it; callbacks
// run in registration order and stop at the first error.
func (l *Loader) Reload() (*PipelineConfig, error) {
	cfg, err := LoadFile(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	callbacks := make([]func(*PipelineConfig) error, len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.RUnlock()
	for _, fn := range callbacks {
		if err := fn(cfg); err != nil {
			return nil, err
		}
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}
