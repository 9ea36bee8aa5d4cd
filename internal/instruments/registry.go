package instruments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sorul/tradingbot/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Instrument 描述一个可交易品种的报价粒度。
type Instrument struct {
	Symbol string  `yaml:"-"`
	Pip    float64 `yaml:"pip"`
	Digits int     `yaml:"digits"`
	// BarTimeframes lists the bar subscriptions this symbol wants on
	// top of tick data, e.g. ["M5", "H1"].
	BarTimeframes []string `yaml:"bar_timeframes"`
}

type fileConfig struct {
	Instruments map[string]Instrument `yaml:"instruments"`
}

// Snapshot 是某一时刻的完整品种表。
type Snapshot struct {
	Version     int64
	LoadedAt    time.Time
	Instruments map[string]Instrument
}

// ChangeListener 在品种表热更新后触发。
type ChangeListener func(Snapshot)

// Registry serves the symbol universe and per-symbol pip sizes, hot
// reloading the yaml file underneath a running bot. The backfill
// tracker recomputes its remaining set on every call, so a universe
// change mid-run is safe.
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// New reads the instruments file at path and starts watching it.
func New(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("instruments registry requires path")
	}
	r := &Registry{path: path}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read instruments file failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("品种表热更新失败: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	r.v = v
	return r, nil
}

// OnChange registers a listener for hot reloads.
func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Snapshot returns a copy of the current table.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Symbols returns the configured universe, sorted.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.snapshot.Instruments))
	for sym := range r.snapshot.Instruments {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Instrument looks up one symbol.
func (r *Registry) Instrument(symbol string) (Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ins, ok := r.snapshot.Instruments[normalizeSymbol(symbol)]
	return ins, ok
}

// Pip returns the pip size for symbol. Symbols missing from the table
// fall back to the usual FX heuristic so a live order is never blocked
// on a stale file.
func (r *Registry) Pip(symbol string) float64 {
	if ins, ok := r.Instrument(symbol); ok && ins.Pip > 0 {
		return ins.Pip
	}
	logger.Warnf("品种 %s 不在品种表中，按报价习惯推断 pip", symbol)
	if strings.Contains(normalizeSymbol(symbol), "JPY") {
		return 0.01
	}
	return 0.0001
}

// Digits returns the quote digit count, falling back from the pip size.
func (r *Registry) Digits(symbol string) int {
	if ins, ok := r.Instrument(symbol); ok && ins.Digits > 0 {
		return ins.Digits
	}
	if r.Pip(symbol) >= 0.01 {
		return 3
	}
	return 5
}

// BarSubscriptions flattens every configured symbol/timeframe pair for
// the bar data subscription command.
func (r *Registry) BarSubscriptions() [][2]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out [][2]string
	for _, sym := range sortedKeys(r.snapshot.Instruments) {
		for _, tf := range r.snapshot.Instruments[sym].BarTimeframes {
			out = append(out, [2]string{sym, strings.ToUpper(strings.TrimSpace(tf))})
		}
	}
	return out
}

func (r *Registry) reload() error {
	cfg, err := readInstrumentsFile(r.path)
	if err != nil {
		return err
	}
	table := make(map[string]Instrument, len(cfg.Instruments))
	for name, ins := range cfg.Instruments {
		sym := normalizeSymbol(name)
		if sym == "" {
			continue
		}
		ins.Symbol = sym
		table[sym] = ins
	}
	if len(table) == 0 {
		return fmt.Errorf("instruments file %s defines no symbols", r.path)
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:     r.snapshot.Version + 1,
		LoadedAt:    time.Now(),
		Instruments: table,
	}
	r.mu.Unlock()
	logger.Infof("品种表已加载 %d 个品种 (%s)", len(table), filepath.Base(r.path))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorf("instruments listener panic: %v", rec)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func readInstrumentsFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read instruments file failed: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return fileConfig{}, fmt.Errorf("instruments file %s invalid: %w", path, err)
	}
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse instruments file failed: %w", err)
	}
	return cfg, nil
}

// validateDocument runs the yaml document through the json schema.
// The yaml tree is round-tripped through encoding/json first so the
// validator sees json-typed values.
func validateDocument(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	jsonRaw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var jsonDoc any
	if err := json.Unmarshal(jsonRaw, &jsonDoc); err != nil {
		return err
	}
	return documentSchema().Validate(jsonDoc)
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:     src.Version,
		LoadedAt:    src.LoadedAt,
		Instruments: make(map[string]Instrument, len(src.Instruments)),
	}
	for sym, ins := range src.Instruments {
		dst.Instruments[sym] = ins
	}
	return dst
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func sortedKeys(m map[string]Instrument) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
