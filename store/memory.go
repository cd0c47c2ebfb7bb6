// Package store provides asset-store backends that serve context-scoped
// overrides.
//
// The resolver owns the specificity walk; a store backend only answers
// exact queries. Memory is the reference implementation and the standard
// test double for database-backed stores.
package store

import (
	"context"
	"sync"

	"github.com/mieweb/a3t"
)

// Override is one stored override row. Empty dimension fields mean the row
// applies only to queries where that dimension is likewise absent.
type Override struct {
	Workspace string
	Language  string
	System    string
	Key       string
	Value     string
}

// Memory is an in-memory asset-store backend.
// It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	rows []Override
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Add inserts or replaces an override. Rows are identified by their
// (workspace, language, system, key) projection.
func (m *Memory) Add(row Override) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.rows {
		if existing.Workspace == row.Workspace &&
			existing.Language == row.Language &&
			existing.System == row.System &&
			existing.Key == row.Key {
			m.rows[i] = row
			return
		}
	}
	m.rows = append(m.rows, row)
}

// Remove deletes the override matching the given projection, if present.
func (m *Memory) Remove(row Override) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.rows {
		if existing.Workspace == row.Workspace &&
			existing.Language == row.Language &&
			existing.System == row.System &&
			existing.Key == row.Key {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return
		}
	}
}

// FindOverride implements the asset-store contract: it answers the query
// exactly, matching every dimension including absent ones.
func (m *Memory) FindOverride(_ context.Context, query a3t.Query) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.rows {
		if row.Workspace == query.Workspace &&
			row.Language == query.Language &&
			row.System == query.System &&
			row.Key == query.Key {
			return row.Value, true, nil
		}
	}
	return "", false, nil
}
