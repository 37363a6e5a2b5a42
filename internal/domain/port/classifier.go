package port

import (
	"context"

	"github.com/bibhealth/strokerisk/internal/domain/model"
)

// Classifier is a loaded binary classifier exposing probability estimation.
type Classifier interface {
	// Name identifies the model, for logs and responses.
	Name() string

	// Schema is the input layout the classifier was trained on.
	Schema() model.FeatureSchema

	// PredictProba returns [P(class=0), P(class=1)] for a single row.
	PredictProba(ctx context.Context, row model.Row) ([]float64, error)
}

// ClassifierProvider resolves a model reference to a loaded classifier.
// Implementations load each reference at most once until it is invalidated.
type ClassifierProvider interface {
	// Get returns the classifier for ref, loading it on first use. Load
	// failures are reported as *model.ModelLoadError.
	Get(ctx context.Context, ref string) (Classifier, error)

	// Invalidate drops ref so that the next Get reloads it. It reports
	// whether ref was loaded.
	Invalidate(ref string) bool

	// InvalidateAll drops every loaded reference and returns how many there were.
	InvalidateAll() int
}
