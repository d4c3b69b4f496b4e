package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/util"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/schema"
)

// Inference is side-effect free on the remote side, so transient transport
// failures are retried a few times before giving up.
const predictorMaxAttempts = 3

// RemoteGraphPredictor calls the external graph-model service over HTTP. The
// service accepts the node feature matrix and edge index list and returns
// per-node scores over the closed role set.
type RemoteGraphPredictor struct {
	baseURL string
	client  *http.Client
}

// NewRemoteGraphPredictorParams contains configuration for creating a
// RemoteGraphPredictor.
type NewRemoteGraphPredictorParams struct {
	BaseURL string
	Timeout time.Duration
}

func NewRemoteGraphPredictor(params NewRemoteGraphPredictorParams) *RemoteGraphPredictor {
	timeout := params.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &RemoteGraphPredictor{
		baseURL: params.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	DocID        string      `json:"doc_id"`
	NodeFeatures [][]float64 `json:"node_features"`
	EdgeIndex    [2][]int    `json:"edge_index"`
}

type analyzeResponse struct {
	Success     bool         `json:"success"`
	Predictions []Prediction `json:"hierarchy_predictions"`
	Error       string       `json:"error,omitempty"`
}

func (p *RemoteGraphPredictor) PredictRoles(ctx context.Context, doc *schema.DocumentGraph) ([]Prediction, error) {
	payload := analyzeRequest{
		DocID:        doc.DocID,
		NodeFeatures: BuildNodeFeatures(doc),
		EdgeIndex:    BuildEdgeIndex(doc),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analyze request: %w", err)
	}

	parsed, err := util.RetryWithContext(ctx, predictorMaxAttempts, func(ctx context.Context) (*analyzeResponse, error) {
		return p.call(ctx, body)
	})
	if err != nil {
		return nil, err
	}

	if len(parsed.Predictions) != len(doc.Nodes) {
		return nil, fmt.Errorf("predictor returned %d predictions for %d nodes", len(parsed.Predictions), len(doc.Nodes))
	}
	for _, pred := range parsed.Predictions {
		if !pred.Role.Valid() {
			return nil, fmt.Errorf("predictor returned unknown role %q", pred.Role)
		}
	}

	return parsed.Predictions, nil
}

func (p *RemoteGraphPredictor) call(ctx context.Context, body []byte) (*analyzeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictor returned status %d", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode predictor response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("predictor error: %s", parsed.Error)
	}
	return &parsed, nil
}
