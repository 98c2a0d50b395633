package strategy

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry maps strategy names to constructors. Selection order: a runtime
// override, then the requested name, then the configured default. Unknown
// names fall back to the default strategy rather than failing the run.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]func() Strategy
	defaultName  string
	override     string
	log          *zap.Logger
}

// NewRegistry builds a registry with the three built-in strategies
// registered. blockMinutes seeds the TimeBlock default chunk size.
func NewRegistry(defaultName string, blockMinutes int, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		constructors: make(map[string]func() Strategy),
		defaultName:  strings.ToLower(defaultName),
		log:          log,
	}
	r.Register(NameSimpleGreedy, func() Strategy { return NewSimpleGreedy() })
	r.Register(NamePriorityBased, func() Strategy { return NewPriorityBased() })
	r.Register(NameTimeBlock, func() Strategy { return NewTimeBlock(blockMinutes) })
	if _, ok := r.constructors[r.defaultName]; !ok {
		r.defaultName = NameSimpleGreedy
	}
	return r
}

// Register adds or replaces a strategy constructor.
func (r *Registry) Register(name string, fn func() Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[strings.ToLower(name)] = fn
}

// SetOverride forces every subsequent Get to use the named strategy.
// An empty name clears the override.
func (r *Registry) SetOverride(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = strings.ToLower(name)
}

// Get returns a fresh strategy instance for the request.
func (r *Registry) Get(requested string) Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := r.override
	if name == "" {
		name = strings.ToLower(requested)
	}
	fn, ok := r.constructors[name]
	if !ok {
		name = r.defaultName
		fn = r.constructors[name]
	}
	st := fn()
	r.log.Info("planner_strategy_selected",
		zap.String("strategy", st.Name()),
		zap.Bool("override", r.override != ""),
	)
	return st
}

// Available lists the registered strategy names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
