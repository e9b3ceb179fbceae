package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/webclient"
)

// Service is the remote scanner. Implementations return *TransportError or
// *ApplicationError so callers can tell the two apart.
type Service interface {
	Scan(ctx context.Context, req Request) ([]Finding, error)
}

// HTTPService calls the Scan Service over HTTP:
//
//	POST <endpoint> {"url": "...", "mode": "basic"|"zap"}
//	200 {"vulnerabilities": [...]} | 200 {"error": "..."}
type HTTPService struct {
	endpoint string
	wc       webclient.WebClient
	logger   logging.Logger
}

func NewHTTPService(endpoint string, wc webclient.WebClient, logger logging.Logger) *HTTPService {
	return &HTTPService{
		endpoint: endpoint,
		wc:       wc,
		logger:   logger.With(logging.Field{Key: "component", Value: "scan-service"}),
	}
}

type serviceResponse struct {
	Vulnerabilities []Finding `json:"vulnerabilities"`
	Error           string    `json:"error"`
}

func (s *HTTPService) Scan(ctx context.Context, req Request) ([]Finding, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode scan request: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")

	resp, err := s.wc.Do(ctx, &webclient.Request{
		Method:  http.MethodPost,
		URL:     s.endpoint,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, &TransportError{Status: err.Error(), Err: err}
	}

	if !resp.OK() {
		s.logger.Warn("scan service returned non-success status",
			logging.Field{Key: "status_code", Value: resp.StatusCode},
			logging.Field{Key: "url", Value: req.URL})
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var out serviceResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Status:     "invalid response body",
			Err:        err,
		}
	}
	if out.Error != "" {
		return nil, &ApplicationError{Message: out.Error}
	}
	if out.Vulnerabilities == nil {
		out.Vulnerabilities = []Finding{}
	}

	s.logger.Info("scan service responded",
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "mode", Value: string(req.Mode)},
		logging.Field{Key: "findings", Value: len(out.Vulnerabilities)})
	return out.Vulnerabilities, nil
}
