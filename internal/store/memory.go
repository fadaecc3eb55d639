package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store used to test
// orchestration logic without a running database.
type MemoryStore struct {
	mu      sync.Mutex
	runs    []Run
	scripts []ExecutedScript
	saveErr error
	execErr error
}

// ExecutedScript captures one ETL script handed to ExecSQL.
type ExecutedScript struct {
	Name   string
	Script string
}

// NewMemory instantiates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// WithSaveError configures SaveRun to fail with the provided error.
func (m *MemoryStore) WithSaveError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
	return m
}

// WithExecError configures ExecSQL to fail with the provided error.
func (m *MemoryStore) WithExecError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execErr = err
	return m
}

func (m *MemoryStore) SaveRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *MemoryStore) ExecSQL(_ context.Context, name, script string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.execErr != nil {
		return m.execErr
	}
	m.scripts = append(m.scripts, ExecutedScript{Name: name, Script: script})
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// SavedRuns returns a snapshot of persisted runs.
func (m *MemoryStore) SavedRuns() []Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Run(nil), m.runs...)
}

// ExecutedScripts returns a snapshot of ETL scripts run so far.
func (m *MemoryStore) ExecutedScripts() []ExecutedScript {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedScript(nil), m.scripts...)
}
