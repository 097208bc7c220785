package usecases

import (
	"context"
	"fmt"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
	"github.com/0xcro3dile/ragroute/internal/domain/ports"
)

// GenerateUseCase orchestrates a request and runs it on the selected model.
type GenerateUseCase struct {
	orchestrator *OrchestrateUseCase
	llm          ports.LLMService
}

// NewGenerateUseCase creates a GenerateUseCase with injected dependencies.
func NewGenerateUseCase(orchestrator *OrchestrateUseCase, llm ports.LLMService) *GenerateUseCase {
	return &GenerateUseCase{orchestrator: orchestrator, llm: llm}
}

// Generate returns the orchestration result with the model's answer.
func (uc *GenerateUseCase) Generate(ctx context.Context, req *entities.OrchestrationRequest) (*entities.GenerationResult, error) {
	res, err := uc.orchestrator.Orchestrate(ctx, req)
	if err != nil {
		return nil, err
	}

	answer, err := uc.llm.Generate(ctx, res.SelectedModel, res.Prompt)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	return &entities.GenerationResult{OrchestrationResult: *res, Answer: answer}, nil
}

// GenerateStream returns the orchestration result and a token stream.
func (uc *GenerateUseCase) GenerateStream(ctx context.Context, req *entities.OrchestrationRequest) (*entities.OrchestrationResult, <-chan entities.StreamToken, error) {
	res, err := uc.orchestrator.Orchestrate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := uc.llm.GenerateStream(ctx, res.SelectedModel, res.Prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("starting stream: %w", err)
	}

	return res, tokens, nil
}
