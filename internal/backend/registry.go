package backend

// Note: EvaluatorFactory is not mockable with mockgen because Register()
// uses the unexported coreEvaluator type. Use DefaultFactory or manual mocks
// instead.

import (
	"fmt"
	"sort"
	"sync"
)

// EvaluatorFactory is an interface for creating Evaluator instances.
// It allows for flexible backend instantiation and registration, enabling
// dependency injection and easier testing.
type EvaluatorFactory interface {
	// Create creates a new Evaluator instance by name.
	// Returns an error if the backend type is not registered.
	Create(name string) (Evaluator, error)

	// Get returns an existing Evaluator instance by name.
	// Returns an error if the backend type is not registered.
	Get(name string) (Evaluator, error)

	// List returns a sorted list of registered backend names.
	List() []string

	// Register adds a new backend type to the factory.
	Register(name string, creator func() coreEvaluator) error

	// GetAll returns a map of all registered evaluators.
	GetAll() map[string]Evaluator
}

// DefaultFactory is the default implementation of EvaluatorFactory.
// It maintains a thread-safe registry of backend creators and caches
// Evaluator instances for reuse.
type DefaultFactory struct {
	mu         sync.RWMutex
	creators   map[string]func() coreEvaluator
	evaluators map[string]Evaluator
}

// NewDefaultFactory creates a new DefaultFactory with the standard
// evaluation backends pre-registered.
//
// Pre-registered backends:
//   - "bigfloat": in-process math/big escape-time kernel.
//
// The "process" backend is registered by the application once the worker
// command is known, and "gmp" joins the global factory when the binary is
// built with the gmp tag.
//
// Returns:
//   - *DefaultFactory: A new factory with default backends registered.
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators:   make(map[string]func() coreEvaluator),
		evaluators: make(map[string]Evaluator),
	}

	// Register the default backends
	_ = f.Register(NameBigFloat, func() coreEvaluator { return &BigFloatEngine{} })

	return f
}

// Register adds a new backend type to the factory.
// The creator function is called lazily when the backend is first requested.
// If a backend with the same name already exists, it will be replaced.
//
// Parameters:
//   - name: The unique identifier for the backend type.
//   - creator: A function that creates a new coreEvaluator instance.
func (f *DefaultFactory) Register(name string, creator func() coreEvaluator) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[name] = creator
	// Clear cached evaluator if it exists, so it will be recreated with the new creator
	delete(f.evaluators, name)
	return nil
}

// Create creates a new Evaluator instance by name.
// Unlike Get(), this always creates a fresh instance without caching. The
// worker pool uses this so every worker goroutine owns its own instance.
//
// Parameters:
//   - name: The name of the backend type to create.
//
// Returns:
//   - Evaluator: A new Evaluator instance.
//   - error: An error if the backend type is not registered.
func (f *DefaultFactory) Create(name string) (Evaluator, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
	return NewEvaluator(creator()), nil
}

// Get returns an Evaluator instance by name.
// Instances are cached and reused for subsequent calls with the same name.
// This is the preferred method for single-consumer use cases; pools that
// need per-worker instances use Create().
//
// Parameters:
//   - name: The name of the backend to retrieve.
//
// Returns:
//   - Evaluator: The Evaluator instance.
//   - error: An error if the backend type is not registered.
func (f *DefaultFactory) Get(name string) (Evaluator, error) {
	// Check cache first with read lock
	f.mu.RLock()
	if ev, exists := f.evaluators[name]; exists {
		f.mu.RUnlock()
		return ev, nil
	}
	f.mu.RUnlock()

	// Create new evaluator with write lock
	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if ev, exists := f.evaluators[name]; exists {
		return ev, nil
	}

	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s", name)
	}

	ev := NewEvaluator(creator())
	f.evaluators[name] = ev
	return ev, nil
}

// List returns a sorted list of all registered backend names.
// The list is sorted alphabetically for consistent ordering.
//
// Returns:
//   - []string: A sorted slice of backend names.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns a map of all registered evaluators.
// This method lazily initializes all evaluators that haven't been created
// yet.
//
// Returns:
//   - map[string]Evaluator: A map of backend names to Evaluator instances.
func (f *DefaultFactory) GetAll() map[string]Evaluator {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Ensure all evaluators are initialized
	for name, creator := range f.creators {
		if _, exists := f.evaluators[name]; !exists {
			f.evaluators[name] = NewEvaluator(creator())
		}
	}

	// Return a copy to prevent external modifications
	result := make(map[string]Evaluator, len(f.evaluators))
	for name, ev := range f.evaluators {
		result[name] = ev
	}
	return result
}

// MustGet is like Get but panics if the backend is not found.
// This is useful in initialization code where missing backends should be
// considered a programming error.
//
// Parameters:
//   - name: The name of the backend to retrieve.
//
// Returns:
//   - Evaluator: The Evaluator instance.
//
// Panics:
//   - If the backend type is not registered.
func (f *DefaultFactory) MustGet(name string) Evaluator {
	ev, err := f.Get(name)
	if err != nil {
		panic(fmt.Sprintf("backend: required evaluator not found: %s", name))
	}
	return ev
}

// Has checks if a backend with the given name is registered.
//
// Parameters:
//   - name: The name of the backend to check.
//
// Returns:
//   - bool: true if the backend is registered, false otherwise.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.creators[name]
	return exists
}

// globalFactory is the default global factory instance.
var globalFactory = NewDefaultFactory()

// GlobalFactory returns the global factory instance.
// This is a convenience for applications that don't need multiple factory
// instances.
//
// Returns:
//   - *DefaultFactory: The global factory instance.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}

// RegisterEvaluator registers a backend in the global factory.
// This is a convenience function for adding custom backends, and the hook
// the application uses to bind the "process" backend to the configured
// worker command.
//
// Parameters:
//   - name: The unique identifier for the backend type.
//   - creator: A function that creates a new coreEvaluator instance.
func RegisterEvaluator(name string, creator func() coreEvaluator) error {
	return globalFactory.Register(name, creator)
}
