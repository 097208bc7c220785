package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/ragroute/internal/adapters/filewatcher"
	"github.com/0xcro3dile/ragroute/internal/config"
	"github.com/0xcro3dile/ragroute/internal/domain/routing"
	"github.com/0xcro3dile/ragroute/internal/domain/usecases"
	transport "github.com/0xcro3dile/ragroute/internal/infrastructure/http"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestration HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// classifyCmd prints the routing decision for a query
var classifyCmd = &cobra.Command{
	Use:   "classify [query]",
	Short: "Score a query and print the selected model",
	Long: `Runs the classifier and model selector against the configured rules
and prints the decision as JSON. No external service is contacted.

Example:
  ragroute classify "Compare the two pricing plans and explain why one is better"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

var provisionTimeout time.Duration

// provisionCmd creates a vector collection if it is missing
var provisionCmd = &cobra.Command{
	Use:   "provision [collection]",
	Short: "Create a vector collection and its payload indexes if missing",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvision,
}

func init() {
	provisionCmd.Flags().DurationVar(&provisionTimeout, "timeout", time.Minute, "Provisioning timeout")
	provisionCmd.Flags().Bool("tenant", false, "Treat the argument as a tenant ID and derive the collection name")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := transport.NewServer(a.orchestrate, a.generate, a.provision, transport.Options{
		Addr:          cfg.Server.Addr,
		ReadTimeout:   cfg.GetReadTimeout(),
		WriteTimeout:  cfg.GetWriteTimeout(),
		RateLimit:     cfg.Server.RateLimit,
		RateBurst:     cfg.Server.RateBurst,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	}, logger)

	var reloader *usecases.RulesReloader
	if cfg.Routing.Watch && cfg.Routing.RulesFile != "" {
		watcher, err := filewatcher.NewFSNotifyWatcher(filewatcher.DefaultDebounce, logger)
		if err != nil {
			return fmt.Errorf("creating rules watcher: %w", err)
		}
		defer watcher.Stop()
		reloader = usecases.NewRulesReloader(a.router, watcher, config.LoadRules, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	if reloader != nil {
		g.Go(func() error { return reloader.Run(gctx, cfg.Routing.RulesFile) })
		logger.Info("watching routing rules", zap.String("path", cfg.Routing.RulesFile))
	}

	err = g.Wait()
	logger.Info("ragroute stopped")
	return err
}

func runClassify(cmd *cobra.Command, args []string) error {
	rules, err := config.LoadRules(cfg.Routing.RulesFile)
	if err != nil {
		return err
	}

	d := routing.NewRouter(rules).Route(strings.Join(args, " "))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"selectedModel":        d.Model.ID,
		"modelSelectionReason": d.Reason,
		"modelCapabilities":    d.Model,
		"queryScores":          d.Scores,
		"rulesVersion":         d.RulesVersion,
	})
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer cancel()

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	if byTenant, _ := cmd.Flags().GetBool("tenant"); byTenant {
		name = usecases.CollectionName(name)
	}

	created, err := a.provision.EnsureCollection(ctx, name)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created collection %s\n", name)
	} else {
		fmt.Printf("collection %s already exists\n", name)
	}
	return nil
}
