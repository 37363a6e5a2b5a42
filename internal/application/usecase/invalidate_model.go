package usecase

import (
	"context"
	"log/slog"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
)

// InvalidateModel is the use case for dropping cached classifiers so that
// the next request reloads them from their source.
type InvalidateModel struct {
	provider        port.ClassifierProvider
	logger          *slog.Logger
	defaultModelRef string
}

// NewInvalidateModel creates a new InvalidateModel use case.
func NewInvalidateModel(provider port.ClassifierProvider, defaultModelRef string, logger *slog.Logger) *InvalidateModel {
	return &InvalidateModel{provider: provider, defaultModelRef: defaultModelRef, logger: logger}
}

// Execute drops one reference (the default when none is named) or all of them.
func (uc *InvalidateModel) Execute(ctx context.Context, req dto.InvalidateModelRequest) dto.InvalidateModelResponse {
	if req.All {
		n := uc.provider.InvalidateAll()
		uc.logger.InfoContext(ctx, "model cache cleared", slog.Int("invalidated", n))
		return dto.InvalidateModelResponse{Invalidated: n}
	}

	ref := uc.defaultModelRef
	if req.ModelRef != "" {
		// Scoring caches request refs in normalized form.
		if normalized, violations := model.NormalizeRequestRef(req.ModelRef); len(violations) == 0 {
			ref = normalized
		} else {
			ref = req.ModelRef
		}
	}

	n := 0
	if uc.provider.Invalidate(ref) {
		n = 1
	}
	uc.logger.InfoContext(ctx, "model invalidated", slog.String("model", ref), slog.Int("invalidated", n))
	return dto.InvalidateModelResponse{Invalidated: n}
}
