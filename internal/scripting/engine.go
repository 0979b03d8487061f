package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/vanguard/agent/internal/plan"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// Engine wraps a single gopher-lua VM holding the scripted planners.
// Matches run on their own goroutines, so every VM access holds mu.
type Engine struct {
	mu    sync.Mutex
	vm    *lua.LState
	plans map[string]*lua.LFunction
	log   *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory yields an engine with no planners.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, plans: make(map[string]*lua.LFunction), log: log}
	vm.SetGlobal("register_plan", vm.NewFunction(e.luaRegisterPlan))

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load plan scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		e.mu.Lock()
		err := e.vm.DoFile(path)
		e.mu.Unlock()
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua in the engine's VM.
func (e *Engine) DoString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.DoString(src)
}

// register_plan(name, fn)
func (e *Engine) luaRegisterPlan(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	if _, dup := e.plans[name]; dup {
		L.RaiseError("plan %q already registered", name)
		return 0
	}
	e.plans[name] = fn
	e.log.Debug("lua plan registered", zap.String("plan", name))
	return 0
}

// Planners returns an adapter per registered plan, ordered by name.
func (e *Engine) Planners() []plan.Planner {
	e.mu.Lock()
	names := make([]string, 0, len(e.plans))
	for name := range e.plans {
		names = append(names, name)
	}
	e.mu.Unlock()
	sort.Strings(names)

	out := make([]plan.Planner, 0, len(names))
	for _, name := range names {
		out = append(out, &scriptPlanner{engine: e, name: name})
	}
	return out
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

// --- Lua helpers ---

// lNum reads a numeric field from a Lua table.
func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

func lBool(b bool) lua.LValue {
	if b {
		return lua.LTrue
	}
	return lua.LFalse
}
