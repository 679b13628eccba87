// Package logging provides categorized structured logging for autopkg-wrapper.
// Every category is a named child of one process-wide zap logger built by Setup.
// Until Setup is called all helpers are silent no-ops, which keeps library
// packages quiet in tests.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config resolution
	CategoryRecipes   Category = "recipes"   // Recipe list parsing
	CategoryOrdering  Category = "ordering"  // Processing order and batching
	CategoryScheduler Category = "scheduler" // Batch execution and post-processing
	CategoryAutopkg   Category = "autopkg"   // autopkg subprocess calls
	CategoryTactile   Category = "tactile"   // Raw command execution
	CategoryGit       Category = "git"       // Trust branch plumbing
	CategoryNotify    Category = "notify"    // Slack / GitHub side effects
	CategoryReports   Category = "reports"   // Report discovery, parsing, rendering
	CategoryJamf      Category = "jamf"      // Inventory lookups
)

// Options controls how Setup builds the root logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Debug  bool   // forces debug level
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Setup builds the root logger and installs it for every category.
// It returns the root logger so callers can Sync it on exit.
func Setup(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(opts.Format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level, opts.Debug))

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	Use(l)
	Get(CategoryBoot).Debugw("debug logging is now enabled")
	return l, nil
}

// Use installs an already-built logger, e.g. an observer core in tests.
func Use(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	root = l
	loggers = make(map[Category]*zap.SugaredLogger)
}

// Root returns the current process logger.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category)).Sugar()
	loggers[category] = l
	return l
}

func parseLevel(level string, debug bool) zapcore.Level {
	if debug {
		return zapcore.DebugLevel
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// =============================================================================
// CATEGORY HELPERS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Infof(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debugf(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Errorf(format, args...) }

func Recipes(format string, args ...interface{})      { Get(CategoryRecipes).Infof(format, args...) }
func RecipesDebug(format string, args ...interface{}) { Get(CategoryRecipes).Debugf(format, args...) }
func RecipesError(format string, args ...interface{}) { Get(CategoryRecipes).Errorf(format, args...) }

func Ordering(format string, args ...interface{})      { Get(CategoryOrdering).Infof(format, args...) }
func OrderingDebug(format string, args ...interface{}) { Get(CategoryOrdering).Debugf(format, args...) }

func Scheduler(format string, args ...interface{})      { Get(CategoryScheduler).Infof(format, args...) }
func SchedulerDebug(format string, args ...interface{}) { Get(CategoryScheduler).Debugf(format, args...) }
func SchedulerWarn(format string, args ...interface{})  { Get(CategoryScheduler).Warnf(format, args...) }
func SchedulerError(format string, args ...interface{}) { Get(CategoryScheduler).Errorf(format, args...) }

func Autopkg(format string, args ...interface{})      { Get(CategoryAutopkg).Infof(format, args...) }
func AutopkgDebug(format string, args ...interface{}) { Get(CategoryAutopkg).Debugf(format, args...) }
func AutopkgWarn(format string, args ...interface{})  { Get(CategoryAutopkg).Warnf(format, args...) }
func AutopkgError(format string, args ...interface{}) { Get(CategoryAutopkg).Errorf(format, args...) }

func Tactile(format string, args ...interface{})      { Get(CategoryTactile).Infof(format, args...) }
func TactileDebug(format string, args ...interface{}) { Get(CategoryTactile).Debugf(format, args...) }
func TactileWarn(format string, args ...interface{})  { Get(CategoryTactile).Warnf(format, args...) }

func Git(format string, args ...interface{})      { Get(CategoryGit).Infof(format, args...) }
func GitDebug(format string, args ...interface{}) { Get(CategoryGit).Debugf(format, args...) }
func GitError(format string, args ...interface{}) { Get(CategoryGit).Errorf(format, args...) }

func Notify(format string, args ...interface{})      { Get(CategoryNotify).Infof(format, args...) }
func NotifyDebug(format string, args ...interface{}) { Get(CategoryNotify).Debugf(format, args...) }
func NotifyError(format string, args ...interface{}) { Get(CategoryNotify).Errorf(format, args...) }

func Reports(format string, args ...interface{})      { Get(CategoryReports).Infof(format, args...) }
func ReportsDebug(format string, args ...interface{}) { Get(CategoryReports).Debugf(format, args...) }
func ReportsWarn(format string, args ...interface{})  { Get(CategoryReports).Warnf(format, args...) }

func Jamf(format string, args ...interface{})      { Get(CategoryJamf).Infof(format, args...) }
func JamfDebug(format string, args ...interface{}) { Get(CategoryJamf).Debugf(format, args...) }
func JamfWarn(format string, args ...interface{})  { Get(CategoryJamf).Warnf(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debugw(t.op+" completed", "elapsed", elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Infow(t.op+" completed", "elapsed", elapsed)
	return elapsed
}
