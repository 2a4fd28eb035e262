package mssqlconv

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kent-id/mssqlconv/types"
)

// ErrUnsupportedKey is returned when a converter key is neither a SQL type code nor a descriptor.
var ErrUnsupportedKey = errors.New("unsupported converter key")

// ConverterFunc post-processes a raw column value before it is converted to the host type.
// value is never nil; SQL NULL skips the converter.
type ConverterFunc func(value interface{}) (interface{}, error)

// OutputConverters holds per SQL type output converters, typically one table per connection.
// Keys may be given as types.SQLType, any Go integer or a TypeDescriptor; all three
// address the same entry.
type OutputConverters struct {
	mu         sync.RWMutex
	converters map[types.SQLType]ConverterFunc
}

// NewOutputConverters creates an empty converter table.
func NewOutputConverters() *OutputConverters {
	return &OutputConverters{
		converters: make(map[types.SQLType]ConverterFunc),
	}
}

// Add registers fn for key, replacing any previous converter.
func (c *OutputConverters) Add(key interface{}, fn ConverterFunc) error {
	code, ok := CodeOf(key)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
	if fn == nil {
		return fmt.Errorf("converter for %s is nil", code.Name())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.converters[code] = fn
	return nil
}

// Remove unregisters the converter for key. Unknown keys are ignored.
func (c *OutputConverters) Remove(key interface{}) {
	code, ok := CodeOf(key)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.converters, code)
}

// Get returns the converter registered for key.
func (c *OutputConverters) Get(key interface{}) (ConverterFunc, bool) {
	if c == nil {
		return nil, false
	}
	code, ok := CodeOf(key)
	if !ok {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.converters[code]
	return fn, ok
}

// Clear removes all converters.
func (c *OutputConverters) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converters = make(map[types.SQLType]ConverterFunc)
}
