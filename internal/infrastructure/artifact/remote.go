package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bibhealth/strokerisk/internal/domain/model"
)

const maxRemoteBody = 1 << 20

type remoteRequest struct {
	Rows []model.Row `json:"rows"`
}

type remoteResponse struct {
	Error         string      `json:"error,omitempty"`
	Probabilities [][]float64 `json:"probabilities"`
}

// RemoteClassifier delegates probability estimation to a model server.
type RemoteClassifier struct {
	client   *http.Client
	schema   model.FeatureSchema
	name     string
	endpoint string
	timeout  time.Duration
}

// NewRemoteClassifier builds a classifier from a remote document. client may
// be nil, in which case http.DefaultClient is used.
func NewRemoteClassifier(doc *Document, client *http.Client) (*RemoteClassifier, error) {
	schema, err := doc.FeatureSchema()
	if err != nil {
		return nil, err
	}
	timeout, err := doc.RemoteTimeout()
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteClassifier{
		client:   client,
		schema:   schema,
		name:     doc.Name,
		endpoint: doc.Endpoint,
		timeout:  timeout,
	}, nil
}

func (c *RemoteClassifier) Name() string                { return c.name }
func (c *RemoteClassifier) Kind() string                { return KindRemote }
func (c *RemoteClassifier) Schema() model.FeatureSchema { return c.schema }

// PredictProba POSTs the row to the model server. A 422 reply means the
// server rejected the row layout and is reported as *model.InputMismatchError.
func (c *RemoteClassifier) PredictProba(ctx context.Context, row model.Row) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(remoteRequest{Rows: []model.Row{row}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call model server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, fmt.Errorf("read model server reply: %w", err)
	}

	var out remoteResponse
	decodeErr := json.Unmarshal(raw, &out)

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		reason := out.Error
		if reason == "" {
			reason = "model server rejected the input row"
		}
		return nil, &model.InputMismatchError{Reason: reason}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("model server returned %d", resp.StatusCode)
	case decodeErr != nil:
		return nil, fmt.Errorf("decode model server reply: %w", decodeErr)
	case len(out.Probabilities) != 1:
		return nil, fmt.Errorf("model server returned %d rows, want 1", len(out.Probabilities))
	}

	return out.Probabilities[0], nil
}
