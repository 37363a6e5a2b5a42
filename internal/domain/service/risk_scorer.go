package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
)

// ErrInvalidPrediction is returned when a classifier answers with something
// other than a two-class probability vector.
var ErrInvalidPrediction = errors.New("classifier returned an invalid probability vector")

// probabilitySumTolerance bounds |p0 + p1 - 1|.
const probabilitySumTolerance = 1e-6

// RiskScorer is a domain service that turns one feature record into a
// probability, a confidence and a band. It holds no state.
type RiskScorer struct{}

// NewRiskScorer creates a new RiskScorer instance.
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// Score encodes record with the classifier's schema, runs the classifier on
// the single row and returns P(class=1). Encoding failures are returned as
// *model.InputMismatchError before the classifier is invoked.
func (s *RiskScorer) Score(ctx context.Context, record model.FeatureRecord, clf port.Classifier) (valueobject.Probability, error) {
	row, err := clf.Schema().Encode(record)
	if err != nil {
		return valueobject.Probability{}, err
	}

	probs, err := clf.PredictProba(ctx, row)
	if err != nil {
		return valueobject.Probability{}, fmt.Errorf("classifier %s: %w", clf.Name(), err)
	}

	if len(probs) != 2 {
		return valueobject.Probability{}, fmt.Errorf("%w: expected 2 classes, got %d", ErrInvalidPrediction, len(probs))
	}
	if _, err := valueobject.NewProbability(probs[0]); err != nil {
		return valueobject.Probability{}, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}
	p, err := valueobject.NewProbability(probs[1])
	if err != nil {
		return valueobject.Probability{}, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}
	if math.Abs(probs[0]+probs[1]-1) > probabilitySumTolerance {
		return valueobject.Probability{}, fmt.Errorf("%w: probabilities sum to %v", ErrInvalidPrediction, probs[0]+probs[1])
	}

	return p, nil
}

// Confidence returns max(p, 1-p).
func (s *RiskScorer) Confidence(p valueobject.Probability) float64 {
	return p.Confidence()
}

// Band maps p onto the policy's bands.
func (s *RiskScorer) Band(p valueobject.Probability, policy valueobject.BandPolicy) valueobject.RiskBand {
	return policy.Band(p)
}

// Assess combines Score and Band.
func (s *RiskScorer) Assess(
	ctx context.Context,
	record model.FeatureRecord,
	clf port.Classifier,
	policy valueobject.BandPolicy,
) (model.ScoreResult, error) {
	p, err := s.Score(ctx, record, clf)
	if err != nil {
		return model.ScoreResult{}, err
	}
	return model.ScoreResult{
		Probability: p,
		Band:        s.Band(p, policy),
	}, nil
}
