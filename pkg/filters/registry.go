package filters

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/subfilter/pkg/pipeline"
)

// Registry maps step names to shareable step instances so that feature
// configuration can refer to steps by name.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]pipeline.Step
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]pipeline.Step)}
}

// Register adds a step under its own name. Registering a second step with
// the same name is a configuration error.
func (r *Registry) Register(s pipeline.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.steps[name]; exists {
		return &pipeline.ConfigurationError{Reason: fmt.Sprintf("step %q is already registered", name)}
	}

	r.steps[name] = s

	return nil
}

// Lookup returns the step registered under name.
func (r *Registry) Lookup(name string) (pipeline.Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.steps[name]

	return s, ok
}

// MustLookup is Lookup for names that are known to be registered.
func (r *Registry) MustLookup(name string) pipeline.Step {
	s, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("filters: step %q is not registered", name))
	}

	return s
}

// Names returns the registered step names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Builtin returns one instance of every step this package provides.
func Builtin() []pipeline.Step {
	return []pipeline.Step{
		PlaceHoldXliffTags{},
		EntitiesDecode{},
		HtmlToPh{},
		SprintfToPh{},
		TwigToPh{},
		LtGtEncode{},
		LtGtDoubleEncode{},
		EncodeToRawXML{},
		HtmlToEntities{},
		PlaceHoldCtrlCharsForView{},
		CtrlCharsPlaceHoldToAscii{},
		RestoreXliffTagsContent{},
		RestoreXliffTagsForView{},
		RestorePlaceHoldersToXLIFFLtGt{},
		RestoreEquivTextPhToXliffOriginal{},
		SubFilteredPhToHtml{},
	}
}

// DefaultRegistry returns a registry holding every built-in step.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range Builtin() {
		// Built-in names are unique.
		_ = r.Register(s)
	}

	return r
}
