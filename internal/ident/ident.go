// Package ident hands out per-table integer identifiers.
//
// Identifiers are monotonic and never reused: the counter is persisted before
// the identifier is returned, so a crash after allocation burns the identifier
// instead of reissuing it. The read-then-write is not atomic across processes;
// only one writer may use a database at a time.
package ident

import (
	"fmt"
	"log/slog"

	"github.com/maruel/pcrm/internal/config"
	crmerrors "github.com/maruel/pcrm/internal/errors"
)

// Allocator returns the next unique identifier for a table.
type Allocator interface {
	NextID(table string) (int, error)
}

// CounterFile is an Allocator backed by the next_ids section of the settings file.
type CounterFile struct {
	Path string
}

// NextID reads the counter for table, persists counter+1 and returns the
// pre-increment value. A table without a counter starts at config.FirstID.
func (c *CounterFile) NextID(table string) (int, error) {
	cfg, err := config.ReadFile(c.Path)
	if err != nil {
		return 0, err
	}
	id, ok := cfg.NextIDs[table]
	if !ok {
		id = config.FirstID
	}
	if id < config.FirstID {
		return 0, crmerrors.FileError(fmt.Sprintf("corrupt counter for %s: %d", table, id), nil)
	}
	cfg.NextIDs[table] = id + 1
	if err := cfg.Save(c.Path); err != nil {
		return 0, err
	}
	slog.Debug("allocated id", "table", table, "id", id)
	return id, nil
}

// Peek returns the identifier the next NextID call would return, without
// consuming it.
func (c *CounterFile) Peek(table string) (int, error) {
	cfg, err := config.ReadFile(c.Path)
	if err != nil {
		return 0, err
	}
	if id, ok := cfg.NextIDs[table]; ok {
		return id, nil
	}
	return config.FirstID, nil
}
