package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/planner"
)

// Logger records the logged messages; it never reports anywhere.
type Logger struct {
	t  testing.TB
	mu sync.Mutex

	Messages []string
	done     bool // the test is over: background goroutines still logging are only recorded
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	l := &Logger{t: t}
	t.Cleanup(func() {
		l.mu.Lock()
		l.done = true
		l.mu.Unlock()
	})
	return l
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, level+": "+msg)
	if !l.done {
		l.t.Log(level+": "+msg, fmt.Sprint(args...))
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("FATAL: %s %v", msg, args) }

// Count returns how many messages were logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.Messages {
		if len(m) > len(level) && m[:len(level)] == level {
			n++
		}
	}
	return n
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate)
	planner.InitValidators(validate)
	return validate
}

// NewPlannerService wires a planner service on repo (nil for no remote) and cache.
func NewPlannerService(t testing.TB, repo planner.Repository, cache planner.Cache, metrics ...planner.Metrics) *planner.Service {
	deps := planner.Deps{
		Repo:     repo,
		Cache:    cache,
		Logger:   NewLogger(t),
		Validate: NewValidator(),
	}
	if len(metrics) > 0 {
		deps.Metrics = metrics[0]
	}
	return planner.NewService(deps)
}
