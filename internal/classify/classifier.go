// Package classify wraps the external image-recognition collaborator.
package classify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/solescan/solescan/errs"
	"github.com/solescan/solescan/internal/schema"
)

// Classifier produces label/confidence pairs for an image. Implementations
// are black boxes to the pipeline; failures surface as classifier errors.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]schema.ClassifierLabel, error)
}

// HTTPClassifier calls a vision service over HTTP: the image bytes go up as
// the request body and labels come back as JSON.
type HTTPClassifier struct {
	client   *http.Client
	endpoint string
}

// NewHTTPClassifier creates a classifier client for the given endpoint.
func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := new(http.Client)
	client.Timeout = timeout
	return &HTTPClassifier{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

type classifyResponse struct {
	Labels []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"labels"`
}

// Classify submits the image and decodes the ranked labels.
func (c *HTTPClassifier) Classify(ctx context.Context, image []byte) ([]schema.ClassifierLabel, error) {
	if len(image) == 0 {
		return nil, errs.New("classifier", errs.CodeInvalid, errs.WithMessage("empty image"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, errs.New("classifier", errs.CodeClassifier, errs.WithCause(err))
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.New("classifier", errs.CodeClassifier,
			errs.WithMessage("vision request failed"), errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.New("classifier", errs.CodeClassifier,
			errs.WithHTTP(resp.StatusCode), errs.WithMessage("vision request rejected"))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New("classifier", errs.CodeClassifier,
			errs.WithMessage("read vision response"), errs.WithCause(err))
	}
	return ParseLabels(body)
}

// ParseLabels decodes a vision response body into classifier labels,
// clamping confidences into [0, 1] and dropping blank label text.
func ParseLabels(body []byte) ([]schema.ClassifierLabel, error) {
	var decoded classifyResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errs.New("classifier", errs.CodeClassifier,
			errs.WithMessage("malformed vision response"), errs.WithCause(err))
	}
	labels := make([]schema.ClassifierLabel, 0, len(decoded.Labels))
	for _, raw := range decoded.Labels {
		text := strings.TrimSpace(raw.Text)
		if text == "" {
			continue
		}
		confidence := raw.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}
		labels = append(labels, schema.ClassifierLabel{Text: text, Confidence: confidence})
	}
	return labels, nil
}
