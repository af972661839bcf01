package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Manager orchestrates a migration run: scan the directory, compare with
// the applied set, verify integrity and apply what is pending.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	dir      string
	logger   *slog.Logger
}

// NewManager wires a Manager for the given database and directory. A nil
// logger falls back to slog.Default().
func NewManager(db *sql.DB, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		scanner:  NewScanner(),
		executor: NewExecutor(db),
		dir:      dir,
		logger:   logger,
	}
}

// Run applies every pending migration in version order. It fails without
// touching the schema when the directory and the applied set disagree:
// version gaps, applied versions without files, or files whose checksum
// changed since they were applied.
func (m *Manager) Run(ctx context.Context) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "database schema up to date",
			"current_version", status.Current,
			"applied", len(status.Applied))
		return nil
	}

	m.logger.InfoContext(ctx, "applying pending migrations",
		"current_version", status.Current,
		"pending", len(status.Pending))

	for _, pending := range status.Pending {
		started := time.Now()
		if err := m.executor.Apply(ctx, pending); err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				"version", pending.Version,
				"path", pending.Path,
				"error", err)
			return err
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", pending.Version,
			"description", pending.Description,
			"duration", time.Since(started))
	}

	return nil
}

// Status reports the applied and pending migrations after verifying the
// integrity of both sets.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.EnsureVersionTable(ctx); err != nil {
		return nil, err
	}

	available, err := m.scanner.Scan(m.dir)
	if err != nil {
		return nil, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return nil, err
	}

	if err := verify(available, applied); err != nil {
		return nil, err
	}

	appliedSet := make(map[string]struct{}, len(applied))
	for _, a := range applied {
		appliedSet[a.Version] = struct{}{}
	}
	var pending []Migration
	for _, candidate := range available {
		if _, ok := appliedSet[candidate.Version]; !ok {
			pending = append(pending, candidate)
		}
	}

	current := ""
	if len(applied) > 0 {
		current = applied[len(applied)-1].Version
	}
	return &Status{Current: current, Applied: applied, Pending: pending}, nil
}

// verify cross-checks the files on disk against the applied set.
func verify(available []Migration, applied []Applied) error {
	if len(available) > 0 {
		onDisk := make(map[int]struct{}, len(available))
		for _, m := range available {
			onDisk[versionNumber(m.Version)] = struct{}{}
		}
		low := versionNumber(available[0].Version)
		high := versionNumber(available[len(available)-1].Version)
		for v := low; v <= high; v++ {
			if _, ok := onDisk[v]; !ok {
				return fmt.Errorf("%w: missing version %03d", ErrSequenceGap, v)
			}
		}
	}

	byVersion := make(map[string]Migration, len(available))
	for _, m := range available {
		byVersion[m.Version] = m
	}
	for _, a := range applied {
		file, ok := byVersion[a.Version]
		if !ok {
			return fmt.Errorf("%w: version %s", ErrUnknownApplied, a.Version)
		}
		if a.Checksum != "" && a.Checksum != file.Checksum {
			return fmt.Errorf("%w: version %s changed after it was applied", ErrChecksumMismatch, a.Version)
		}
	}
	return nil
}
