package resizer

import (
	"fmt"
	"sort"
)

// Collection maps resize mode names to factories. It is read only once built.
type Collection struct {
	factories map[string]Factory
}

// NewCollection registers none, exact and inbox followed by extra.
// Registering a name twice is an error.
func NewCollection(extra ...Factory) (*Collection, error) {
	c := &Collection{factories: make(map[string]Factory, 3+len(extra))}
	base := []Factory{NoneFactory{}, ExactFactory{}, InboxFactory{}}
	for _, f := range append(base, extra...) {
		name := f.Name()
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidFactory)
		}
		if _, ok := c.factories[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateResizeMode, name)
		}
		c.factories[name] = f
	}
	return c, nil
}

// MustCollection is NewCollection for statically known factories.
func MustCollection(extra ...Factory) *Collection {
	c, err := NewCollection(extra...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Collection) Lookup(name string) (Factory, bool) {
	f, ok := c.factories[name]
	return f, ok
}

func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
