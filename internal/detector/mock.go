package detector

import (
	"context"
	"sync"
)

// MockController is a test implementation of the Controller interface.
// It records every action and returns a configurable error.
type MockController struct {
	mu      sync.Mutex
	actions []Action
	err     error
}

// NewMockController creates a new MockController instance.
func NewMockController() *MockController {
	return &MockController{}
}

// SetError sets the error that will be returned by Notify.
func (m *MockController) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Notify records the action and returns the configured error.
func (m *MockController) Notify(ctx context.Context, action Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
	return m.err
}

// Actions returns the recorded actions in call order.
func (m *MockController) Actions() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Action, len(m.actions))
	copy(out, m.actions)
	return out
}
