// Package artifact loads classifier artifacts, validates them and keeps the
// loaded classifiers in a cache keyed by reference.
package artifact

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/bibhealth/strokerisk/internal/domain/model"
)

// Classifier kinds understood by Build.
const (
	KindLinearDiscriminant = "linear_discriminant"
	KindLogisticRegression = "logistic_regression"
	KindRemote             = "remote"
)

// FormatVersion is the only document version this package reads.
const FormatVersion = 1

const (
	schemaURL            = "schema://strokerisk/artifact.schema.json"
	defaultRemoteTimeout = 2 * time.Second
)

//go:embed artifact.schema.json
var documentSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Document is the on-disk form of a classifier artifact.
type Document struct {
	Kind          string           `json:"kind"`
	Name          string           `json:"name"`
	Endpoint      string           `json:"endpoint,omitempty"`
	Timeout       string           `json:"timeout,omitempty"`
	Schema        []ColumnDocument `json:"schema,omitempty"`
	Intercept     float64          `json:"intercept"`
	FormatVersion int              `json:"format_version"`
}

// ColumnDocument is one input column with its coefficients.
type ColumnDocument struct {
	Mean       *float64           `json:"mean,omitempty"`
	Scale      *float64           `json:"scale,omitempty"`
	Categories map[string]float64 `json:"categories,omitempty"`
	Name       string             `json:"name"`
	Kind       string             `json:"kind"`
	Encoding   string             `json:"encoding,omitempty"`
	Weight     float64            `json:"weight"`
}

// ParseDocument validates raw against the artifact JSON Schema and decodes it.
func ParseDocument(raw []byte) (*Document, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := documentValidator()
	if err != nil {
		return nil, fmt.Errorf("compile artifact schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("artifact schema validation failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &doc, nil
}

func documentValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal(documentSchema, &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// FeatureSchema builds the domain schema the document declares. A document
// without columns gets the default patient-form layout.
func (d *Document) FeatureSchema() (model.FeatureSchema, error) {
	if len(d.Schema) == 0 {
		return model.DefaultFeatureSchema(), nil
	}

	cols := make([]model.Column, 0, len(d.Schema))
	for _, c := range d.Schema {
		col := model.Column{
			Name:     c.Name,
			Kind:     model.ColumnKind(c.Kind),
			Encoding: model.BinaryEncoding(c.Encoding),
		}
		if len(c.Categories) > 0 {
			col.Categories = make([]string, 0, len(c.Categories))
			for name := range c.Categories {
				col.Categories = append(col.Categories, name)
			}
			sort.Strings(col.Categories)
		}
		cols = append(cols, col)
	}
	return model.NewFeatureSchema(cols...)
}

// RemoteTimeout is the per-call timeout of a remote classifier.
func (d *Document) RemoteTimeout() (time.Duration, error) {
	if d.Timeout == "" {
		return defaultRemoteTimeout, nil
	}
	timeout, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", d.Timeout, err)
	}
	return timeout, nil
}
