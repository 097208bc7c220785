package main

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0xcro3dile/ragroute/internal/adapters/decisionlog"
	"github.com/0xcro3dile/ragroute/internal/adapters/llm"
	"github.com/0xcro3dile/ragroute/internal/adapters/persona"
	"github.com/0xcro3dile/ragroute/internal/adapters/tenantconfig"
	"github.com/0xcro3dile/ragroute/internal/adapters/vectordb"
	"github.com/0xcro3dile/ragroute/internal/config"
	"github.com/0xcro3dile/ragroute/internal/domain/ports"
	"github.com/0xcro3dile/ragroute/internal/domain/prompt"
	"github.com/0xcro3dile/ragroute/internal/domain/routing"
	"github.com/0xcro3dile/ragroute/internal/domain/usecases"
)

// app holds the wired use cases and the resources to release on exit.
type app struct {
	router      *routing.Router
	orchestrate *usecases.OrchestrateUseCase
	generate    *usecases.GenerateUseCase
	provision   *usecases.ProvisionUseCase

	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp wires adapters into use cases according to cfg.
func buildApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	rules, err := config.LoadRules(cfg.Routing.RulesFile)
	if err != nil {
		return nil, err
	}
	a.router = routing.NewRouter(rules)

	configs, err := a.tenantConfigSource(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	decisions, err := a.decisionLog(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []usecases.OrchestrateOption{
		usecases.WithLookupTimeout(cfg.GetLookupTimeout()),
		usecases.WithLogger(logger),
	}
	if r := personaResolver(cfg); r != nil {
		opts = append(opts, usecases.WithPersonaResolver(r))
	}
	if decisions != nil {
		opts = append(opts, usecases.WithDecisionLog(decisions))
	}

	a.orchestrate = usecases.NewOrchestrateUseCase(
		configs,
		a.router,
		prompt.NewReranker(cfg.Context.TopK, cfg.Context.CharBudget),
		opts...,
	)

	ollama := llm.NewOllamaLLMAdapter(cfg.LLM.BaseURL, cfg.LLM.DefaultModel, cfg.GetLLMTimeout())
	a.generate = usecases.NewGenerateUseCase(a.orchestrate, ollama)

	provisioner, err := a.collectionProvisioner(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.provision = usecases.NewProvisionUseCase(
		provisioner,
		cfg.VectorStore.VectorSize,
		cfg.VectorStore.Distance,
		cfg.VectorStore.Indexes,
		logger,
	)

	return a, nil
}

func (a *app) tenantConfigSource(cfg *config.Config, logger *zap.Logger) (ports.TenantConfigSource, error) {
	var source ports.TenantConfigSource
	switch cfg.TenantCfg.Source {
	case "supabase":
		s, err := tenantconfig.NewSupabaseSource(tenantconfig.SupabaseConfig{
			URL:    cfg.Supabase.URL,
			APIKey: cfg.Supabase.APIKey,
			Table:  cfg.Supabase.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("supabase tenant source: %w", err)
		}
		source = s
	default:
		source = tenantconfig.NewHTTPSource(cfg.TenantCfg.BaseURL, cfg.GetLookupTimeout())
	}

	if !cfg.TenantCfg.Cache.Enabled {
		return source, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)
	return tenantconfig.NewRedisCache(source, client, cfg.GetCacheTTL(), logger), nil
}

func personaResolver(cfg *config.Config) ports.PersonaResolver {
	if !cfg.Persona.Enabled {
		return nil
	}

	var primary ports.PersonaResolver = persona.NewHTTPResolver(cfg.TenantCfg.BaseURL, cfg.GetLookupTimeout())
	if len(cfg.Persona.Static) == 0 {
		return primary
	}

	users := make(map[string]persona.Identity, len(cfg.Persona.Static))
	for email, u := range cfg.Persona.Static {
		users[email] = persona.Identity{TenantID: u.TenantID, PersonaID: u.PersonaID}
	}
	return persona.NewFallback(primary, persona.NewStaticResolver(users))
}

func (a *app) decisionLog(cfg *config.Config) (ports.DecisionLog, error) {
	switch cfg.DecisionLog.Driver {
	case "memory":
		return decisionlog.NewMemoryLog(cfg.DecisionLog.Capacity), nil
	case "sqlite":
		l, err := decisionlog.NewSQLiteLog(cfg.DecisionLog.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, l.Close)
		return l, nil
	default:
		return nil, nil
	}
}

func (a *app) collectionProvisioner(cfg *config.Config) (ports.CollectionProvisioner, error) {
	if cfg.VectorStore.Transport == "grpc" {
		p, err := vectordb.NewQdrantProvisioner(cfg.VectorStore.GRPCURL, cfg.VectorStore.APIKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		return p, nil
	}
	return vectordb.NewHTTPProvisioner(cfg.VectorStore.URL, cfg.VectorStore.APIKey, cfg.GetVectorStoreTimeout()), nil
}
