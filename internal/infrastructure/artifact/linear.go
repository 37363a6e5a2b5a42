package artifact

import (
	"context"
	"fmt"
	"math"

	"github.com/bibhealth/strokerisk/internal/domain/model"
)

type linearTerm struct {
	categories map[string]float64
	name       string
	kind       model.ColumnKind
	weight     float64
	mean       float64
	scale      float64
}

// LinearClassifier scores a row with a linear decision function passed
// through the logistic function. A two-class linear discriminant and a
// logistic regression both reduce to this form.
type LinearClassifier struct {
	schema    model.FeatureSchema
	name      string
	kind      string
	terms     []linearTerm
	intercept float64
}

// NewLinearClassifier builds a classifier from a linear_discriminant or
// logistic_regression document.
func NewLinearClassifier(doc *Document) (*LinearClassifier, error) {
	schema, err := doc.FeatureSchema()
	if err != nil {
		return nil, err
	}

	terms := make([]linearTerm, 0, len(doc.Schema))
	for _, c := range doc.Schema {
		t := linearTerm{
			name:       c.Name,
			kind:       model.ColumnKind(c.Kind),
			weight:     c.Weight,
			scale:      1,
			categories: c.Categories,
		}
		if c.Mean != nil {
			t.mean = *c.Mean
		}
		if c.Scale != nil {
			t.scale = *c.Scale
		}
		terms = append(terms, t)
	}

	return &LinearClassifier{
		name:      doc.Name,
		kind:      doc.Kind,
		schema:    schema,
		terms:     terms,
		intercept: doc.Intercept,
	}, nil
}

func (c *LinearClassifier) Name() string                { return c.name }
func (c *LinearClassifier) Kind() string                { return c.kind }
func (c *LinearClassifier) Schema() model.FeatureSchema { return c.schema }

// PredictProba returns [1-p, p] with p = logistic(decision(row)).
func (c *LinearClassifier) PredictProba(_ context.Context, row model.Row) ([]float64, error) {
	z, err := c.decision(row)
	if err != nil {
		return nil, err
	}
	p := logistic(z)
	return []float64{1 - p, p}, nil
}

func (c *LinearClassifier) decision(row model.Row) (float64, error) {
	z := c.intercept
	for _, t := range c.terms {
		v, ok := row[t.name]
		if !ok {
			return 0, fmt.Errorf("row has no value for column %q", t.name)
		}

		switch t.kind {
		case model.ColumnCategorical:
			s, ok := v.(string)
			if !ok {
				return 0, fmt.Errorf("column %q: expected string, got %T", t.name, v)
			}
			w, ok := t.categories[s]
			if !ok {
				return 0, fmt.Errorf("column %q: unknown category %q", t.name, s)
			}
			z += w
		default:
			x, err := toFloat(v)
			if err != nil {
				return 0, fmt.Errorf("column %q: %w", t.name, err)
			}
			z += t.weight * (x - t.mean) / t.scale
		}
	}
	return z, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func logistic(z float64) float64 {
	// Split by sign so exp never overflows.
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
