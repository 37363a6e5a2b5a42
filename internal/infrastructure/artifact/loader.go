package artifact

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
)

// Loader turns a reference into a ready classifier.
type Loader struct {
	source Source
	client *http.Client
}

// NewLoader creates a Loader. client is used by remote classifiers and may be nil.
func NewLoader(source Source, client *http.Client) *Loader {
	return &Loader{source: source, client: client}
}

// Load fetches, validates and builds the classifier for ref. Every failure is
// a *model.ModelLoadError.
func (l *Loader) Load(ctx context.Context, ref string) (port.Classifier, error) {
	raw, err := l.source.Fetch(ctx, ref)
	if err != nil {
		return nil, &model.ModelLoadError{Ref: ref, Err: err}
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, &model.ModelLoadError{Ref: ref, Err: err}
	}

	clf, err := Build(doc, l.client)
	if err != nil {
		return nil, &model.ModelLoadError{Ref: ref, Err: err}
	}
	return clf, nil
}

// Build constructs the classifier a parsed document describes.
func Build(doc *Document, client *http.Client) (port.Classifier, error) {
	switch doc.Kind {
	case KindLinearDiscriminant, KindLogisticRegression:
		return NewLinearClassifier(doc)
	case KindRemote:
		return NewRemoteClassifier(doc, client)
	default:
		return nil, fmt.Errorf("unknown classifier kind %q", doc.Kind)
	}
}
