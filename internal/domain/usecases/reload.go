package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/ragroute/internal/domain/ports"
	"github.com/0xcro3dile/ragroute/internal/domain/routing"
)

// RulesLoader reads and compiles a rules file.
type RulesLoader func(path string) (*routing.Rules, error)

// RulesReloader swaps the router's rules whenever the rules file changes.
type RulesReloader struct {
	router  *routing.Router
	watcher ports.FileWatcher
	load    RulesLoader
	logger  *zap.Logger
}

// NewRulesReloader creates a RulesReloader with injected dependencies.
func NewRulesReloader(router *routing.Router, watcher ports.FileWatcher, load RulesLoader, logger *zap.Logger) *RulesReloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesReloader{router: router, watcher: watcher, load: load, logger: logger}
}

// Run blocks until ctx is done or the watcher closes its channel.
func (r *RulesReloader) Run(ctx context.Context, path string) error {
	events, err := r.watcher.Watch(ctx, path)
	if err != nil {
		return fmt.Errorf("watching rules file: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Operation == ports.FileDeleted {
				r.logger.Warn("rules file removed, keeping current rules", zap.String("path", ev.Path))
				continue
			}
			r.Reload(path)
		}
	}
}

// Reload loads the file and publishes it. An invalid file leaves the
// current rules in place.
func (r *RulesReloader) Reload(path string) bool {
	rules, err := r.load(path)
	if err != nil {
		r.logger.Error("reloading rules failed, keeping current rules",
			zap.String("path", path),
			zap.Error(err),
		)
		return false
	}

	prev := r.router.Swap(rules)
	r.logger.Info("routing rules reloaded",
		zap.String("path", path),
		zap.Int("previous_version", prev.Version()),
		zap.Int("version", rules.Version()),
	)
	return true
}
