package sensor

import (
	"fmt"
	"sync"
)

// InputSource reads the current level of each monitored input line.
// true is the electrically high (idle) level; false means the line is
// pulled low by a tripped sensor.
type InputSource interface {
	Read() ([]bool, error)
}

// OutputPin drives the siren output. Implementations must tolerate
// being set to the same level repeatedly.
type OutputPin interface {
	Set(on bool) error
}

// MemoryInputs is an in-process InputSource. Lines start high (idle).
type MemoryInputs struct {
	mu     sync.Mutex
	levels []bool
}

// NewMemoryInputs returns an input bank of n lines, all idle.
func NewMemoryInputs(n int) *MemoryInputs {
	levels := make([]bool, n)
	for i := range levels {
		levels[i] = true
	}
	return &MemoryInputs{levels: levels}
}

// Read returns a copy of the current line levels.
func (m *MemoryInputs) Read() ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.levels))
	copy(out, m.levels)
	return out, nil
}

// SetLevel sets the level of a single line.
func (m *MemoryInputs) SetLevel(line int, high bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line < 0 || line >= len(m.levels) {
		return fmt.Errorf("input line %d out of range [0,%d)", line, len(m.levels))
	}
	m.levels[line] = high
	return nil
}

// MemoryPin is an in-process OutputPin that records its level.
type MemoryPin struct {
	mu   sync.Mutex
	on   bool
	sets int
}

// NewMemoryPin returns a pin in the off state.
func NewMemoryPin() *MemoryPin {
	return &MemoryPin{}
}

// Set drives the pin.
func (p *MemoryPin) Set(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = on
	p.sets++
	return nil
}

// On reports the current pin level.
func (p *MemoryPin) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// Sets returns how many times the pin has been driven.
func (p *MemoryPin) Sets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sets
}
