package service

import (
	"context"

	"github.com/lone-outpost-oss/multimoon/internal/backup"
	"github.com/lone-outpost-oss/multimoon/internal/config"
)

// CoreService manages backups of the core library.
type CoreService struct {
	manager *backup.Manager
	libDir  string
}

// NewCoreService builds the service for opts.Config.
func NewCoreService(opts Options) *CoreService {
	cfg := opts.Config
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}

	return &CoreService{
		manager: backup.NewManager(backup.Options{
			LibDir:     cfg.LibDir(),
			BackupsDir: cfg.BackupsDir(),
			Clock:      clock,
			Logger:     config.LoggerOrNoop(opts.Logger),
			Verbose:    cfg.Verbose,
		}),
		libDir: cfg.LibDir(),
	}
}

// LibDir returns the library directory backups are taken from.
func (s *CoreService) LibDir() string { return s.libDir }

// List returns the backups, oldest first.
func (s *CoreService) List(ctx context.Context) ([]backup.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.manager.List()
}

// Backup archives the core library under name, or under the current time
// when name is empty.
func (s *CoreService) Backup(ctx context.Context, name string) (backup.Entry, error) {
	if err := ctx.Err(); err != nil {
		return backup.Entry{}, err
	}
	return s.manager.Backup(name)
}

// Restore unpacks the named backup over the core library.
func (s *CoreService) Restore(ctx context.Context, name string) (backup.Entry, error) {
	if err := ctx.Err(); err != nil {
		return backup.Entry{}, err
	}
	return s.manager.Restore(name)
}
