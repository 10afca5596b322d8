// Package scripting runs user-supplied JavaScript betting strategies in a
// sandboxed goja runtime.
package scripting

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/pkillboredom/MA210-Roulette/internal/logger"
)

// ErrTimeout is returned when a script call exceeds its time budget.
var ErrTimeout = errors.New("scripting: script timed out")

// LogEntry is one line a script passed to log().
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM is a goja runtime stripped of I/O and code loading, exposing log()
// and stop() to the script.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex
	log     *zap.Logger

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int

	stopRequested bool

	initTimeout time.Duration
	callTimeout time.Duration
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// blockedGlobals are removed from every runtime.
var blockedGlobals = []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"}

// NewVM returns a VM with the strategy globals and table constants set.
func NewVM(log *zap.Logger) *VM {
	vm := &VM{
		runtime:     goja.New(),
		log:         logger.OrNop(log),
		maxLogs:     500,
		initTimeout: scriptInitTimeout,
		callTimeout: scriptCallTimeout,
	}
	vm.injectGlobalFunctions()
	injectConstants(vm.runtime)
	return vm
}

// injectGlobalFunctions registers log, console.log and stop, and removes
// the globals a strategy has no business touching.
func (vm *VM) injectGlobalFunctions() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		var b strings.Builder
		for i, arg := range call.Arguments {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(arg.String())
		}
		msg := b.String()

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
		vm.logsMu.Unlock()

		vm.log.Debug("script log", zap.String("message", msg))
		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// stop() ends the run after the current round
	vm.runtime.Set("stop", func(call goja.FunctionCall) goja.Value {
		vm.stopRequested = true
		return goja.Undefined()
	})

	for _, name := range blockedGlobals {
		vm.runtime.Set(name, goja.Undefined())
	}
}

// Execute runs the script source once so it can define pick().
func (vm *VM) Execute(source string) error {
	return vm.runWithTimeout(vm.initTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if _, err := vm.runtime.RunString(source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

// HasFunc reports whether the script defined a global function name.
func (vm *VM) HasFunc(name string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	fn := vm.runtime.Get(name)
	if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
		return false
	}
	_, ok := goja.AssertFunction(fn)
	return ok
}

// Call invokes the global function name with no arguments.
func (vm *VM) Call(name string) (goja.Value, error) {
	var out goja.Value
	err := vm.runWithTimeout(vm.callTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		callable, ok := goja.AssertFunction(vm.runtime.Get(name))
		if !ok {
			return fmt.Errorf("%s() function is not defined", name)
		}
		result, err := callable(goja.Undefined())
		if err != nil {
			return fmt.Errorf("%s() error: %w", name, err)
		}
		out = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetGlobals pushes values into the JS runtime.
func (vm *VM) SetGlobals(values map[string]any) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for k, v := range values {
		vm.runtime.Set(k, v)
	}
}

// StopRequested returns true if stop() was called from the script.
func (vm *VM) StopRequested() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stopRequested
}

// Logs returns a copy of the current log buffer.
func (vm *VM) Logs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// The interrupt lands at goja's next instruction check. Clearing it
		// before fn has returned would let the script run on.
		vm.runtime.Interrupt("script execution timeout")
		<-done
		vm.runtime.ClearInterrupt()
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
