// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces,
// never on concrete adapters.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
	"github.com/0xcro3dile/ragroute/internal/domain/ports"
	"github.com/0xcro3dile/ragroute/internal/domain/prompt"
	"github.com/0xcro3dile/ragroute/internal/domain/routing"
)

// DefaultLookupTimeout bounds tenant config and persona lookups.
const DefaultLookupTimeout = 2 * time.Second

// OrchestrateUseCase builds the prompt and picks the model for one request.
type OrchestrateUseCase struct {
	configs       ports.TenantConfigSource
	personas      ports.PersonaResolver
	decisions     ports.DecisionLog
	router        *routing.Router
	reranker      *prompt.Reranker
	assembler     *prompt.Assembler
	lookupTimeout time.Duration
	logger        *zap.Logger
}

// OrchestrateOption configures an OrchestrateUseCase.
type OrchestrateOption func(*OrchestrateUseCase)

// WithPersonaResolver enables email-based tenant/persona resolution.
func WithPersonaResolver(r ports.PersonaResolver) OrchestrateOption {
	return func(uc *OrchestrateUseCase) { uc.personas = r }
}

// WithDecisionLog records every routing decision.
func WithDecisionLog(l ports.DecisionLog) OrchestrateOption {
	return func(uc *OrchestrateUseCase) { uc.decisions = l }
}

// WithLookupTimeout overrides DefaultLookupTimeout.
func WithLookupTimeout(d time.Duration) OrchestrateOption {
	return func(uc *OrchestrateUseCase) {
		if d > 0 {
			uc.lookupTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) OrchestrateOption {
	return func(uc *OrchestrateUseCase) {
		if l != nil {
			uc.logger = l
		}
	}
}

// NewOrchestrateUseCase creates an OrchestrateUseCase with injected dependencies.
// A nil configs source always falls back to the default prompt.
func NewOrchestrateUseCase(
	configs ports.TenantConfigSource,
	router *routing.Router,
	reranker *prompt.Reranker,
	opts ...OrchestrateOption,
) *OrchestrateUseCase {
	if router == nil {
		router = routing.NewRouter(nil)
	}
	if reranker == nil {
		reranker = prompt.NewReranker(0, 0)
	}
	uc := &OrchestrateUseCase{
		configs:       configs,
		router:        router,
		reranker:      reranker,
		assembler:     prompt.NewAssembler(),
		lookupTimeout: DefaultLookupTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Orchestrate assembles the prompt and, independently, routes the query.
// Only a malformed request or a cancelled context produce an error; every
// other abnormal input degrades to a fallback output.
func (uc *OrchestrateUseCase) Orchestrate(ctx context.Context, req *entities.OrchestrationRequest) (*entities.OrchestrationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID, personaID := uc.resolveIdentity(ctx, req)
	q := entities.NewQuery(*req.Query, tenantID, personaID)

	var (
		lookup   entities.TenantConfigResult
		docs     []string
		decision routing.Decision
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lookup = uc.lookupTenantConfig(gctx, q.TenantID)
		return nil
	})
	g.Go(func() error {
		docs = uc.reranker.Rerank(req.Documents())
		decision = uc.router.Route(q.Text)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("orchestrating request: %w", err)
	}

	assembled := uc.assembler.Assemble(q.Text, q.TenantID, q.PersonaID, lookup, docs)

	uc.logger.Debug("request orchestrated",
		zap.String("tenant_id", q.TenantID),
		zap.String("persona_id", q.PersonaID),
		zap.Bool("used_external_config", assembled.UsedExternalConfig),
		zap.Int("context_count", assembled.ContextCount),
		zap.String("model", decision.Model.ID),
		zap.String("reason", decision.Reason),
		zap.Int("rules_version", decision.RulesVersion),
	)

	uc.recordDecision(ctx, decision, assembled)

	return &entities.OrchestrationResult{
		Prompt:               assembled.Text,
		HasContext:           assembled.HasContext,
		ContextCount:         assembled.ContextCount,
		TenantID:             assembled.TenantID,
		PersonaID:            assembled.PersonaID,
		UsedExternalConfig:   assembled.UsedExternalConfig,
		SelectedModel:        decision.Model.ID,
		ModelSelectionReason: decision.Reason,
		ModelCapabilities:    decision.Model,
		QueryScores:          decision.Scores,
	}, nil
}

// recordDecision appends to the decision log. Failures are logged only.
func (uc *OrchestrateUseCase) recordDecision(ctx context.Context, d routing.Decision, p entities.AssembledPrompt) {
	if uc.decisions == nil {
		return
	}

	id := RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}

	err := uc.decisions.Record(ctx, entities.DecisionRecord{
		ID:                 id,
		At:                 time.Now().UTC(),
		TenantID:           p.TenantID,
		PersonaID:          p.PersonaID,
		Model:              d.Model.ID,
		Reason:             d.Reason,
		Scores:             d.Scores,
		RulesVersion:       d.RulesVersion,
		UsedExternalConfig: p.UsedExternalConfig,
		ContextCount:       p.ContextCount,
	})
	if err != nil {
		uc.logger.Warn("recording decision failed", zap.String("request_id", id), zap.Error(err))
	}
}

// RecentDecisions returns the latest logged decisions, newest first.
func (uc *OrchestrateUseCase) RecentDecisions(ctx context.Context, limit int) ([]entities.DecisionRecord, error) {
	if uc.decisions == nil {
		return nil, ErrDecisionLogDisabled
	}
	return uc.decisions.Recent(ctx, limit)
}

// Route exposes the routing decision alone.
func (uc *OrchestrateUseCase) Route(query string) routing.Decision {
	return uc.router.Route(query)
}

// lookupTenantConfig fetches the tenant config under the lookup timeout.
// Every failure becomes a ConfigFailed result.
func (uc *OrchestrateUseCase) lookupTenantConfig(ctx context.Context, tenantID string) entities.TenantConfigResult {
	if uc.configs == nil {
		return entities.ConfigFailed("no tenant config source configured")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.lookupTimeout)
	defer cancel()

	cfg, err := uc.configs.FetchTenantConfig(ctx, tenantID)
	if err == nil && cfg == nil {
		err = entities.ErrTenantConfigNotFound
	}
	if err != nil {
		uc.logger.Warn("tenant config lookup failed, using default prompt",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return entities.ConfigFailed(err.Error())
	}

	return entities.ConfigResolved(*cfg)
}

// resolveIdentity fills tenant and persona from the user's email when the
// request names no tenant. Lookup failures keep the defaults.
func (uc *OrchestrateUseCase) resolveIdentity(ctx context.Context, req *entities.OrchestrationRequest) (string, string) {
	tenantID, personaID := req.TenantID, req.PersonaID
	if tenantID != "" || req.UserEmail == "" || uc.personas == nil {
		return tenantID, personaID
	}

	ctx, cancel := context.WithTimeout(ctx, uc.lookupTimeout)
	defer cancel()

	t, p, found, err := uc.personas.ResolvePersona(ctx, req.UserEmail)
	if err != nil {
		uc.logger.Warn("persona lookup failed, using defaults", zap.Error(err))
		return tenantID, personaID
	}
	if !found {
		return tenantID, personaID
	}
	if personaID == "" {
		personaID = p
	}
	return t, personaID
}
