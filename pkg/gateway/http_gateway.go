package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"ai-flowchat-be/pkg/flow"
)

// HTTPGateway talks to the low-code host's REST surface. One instance is
// created at bootstrap and shared process-wide; tests substitute a fake via
// the HostGateway interface.
type HTTPGateway struct {
	baseURL  string
	apiToken string
	registry *flow.Registry
	client   *http.Client
	logger   *log.Logger

	probeOnce sync.Once
	available bool
}

// NewHTTPGateway creates the host client. Availability is probed lazily on
// the first IsAvailable call and cached for the process lifetime.
func NewHTTPGateway(baseURL, apiToken string, registry *flow.Registry, logger *log.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		registry: registry,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

func (g *HTTPGateway) IsAvailable() bool {
	g.probeOnce.Do(func() {
		if g.baseURL == "" || g.apiToken == "" {
			g.available = false
			return
		}
		req, err := http.NewRequest("GET", g.baseURL+"/api/v1/identity", nil)
		if err != nil {
			g.available = false
			return
		}
		req.Header.Set("Authorization", "Bearer "+g.apiToken)
		res, err := g.client.Do(req)
		if err != nil {
			g.logger.Printf("[GATEWAY] host probe failed: %v", err)
			g.available = false
			return
		}
		defer res.Body.Close()
		g.available = res.StatusCode == http.StatusOK
	})
	return g.available
}

func (g *HTTPGateway) GetIdentity(ctx context.Context) (*Identity, error) {
	if !g.IsAvailable() {
		return nil, ErrSdkUnavailable
	}

	var identity Identity
	if err := g.get(ctx, "/api/v1/identity", &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

type createRecordRequest struct {
	ProcessId string            `json:"process_id"`
	Fields    map[string]string `json:"fields"`
}

func (g *HTTPGateway) CreateRecord(ctx context.Context, flowKey string, fields map[string]string) (*RecordResult, error) {
	// Permission guard runs before any network activity.
	if !g.registry.IsActionPermitted(flowKey, flow.ActionCreate) {
		return nil, fmt.Errorf("%w: %s CREATE", ErrActionNotPermitted, flowKey)
	}
	if !g.IsAvailable() {
		return nil, ErrSdkUnavailable
	}

	def, err := g.registry.Resolve(flowKey)
	if err != nil {
		return nil, err
	}

	// Translate logical field names to the host's per-flow schema.
	hostFields := make(map[string]string, len(fields))
	for key, value := range fields {
		if mapped, ok := def.FieldMapping[key]; ok {
			hostFields[mapped] = value
		} else {
			hostFields[key] = value
		}
	}

	var result RecordResult
	err = g.post(ctx, "/api/v1/records", createRecordRequest{
		ProcessId: def.ProcessId,
		Fields:    hostFields,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type datasetQueryRequest struct {
	Dataset string            `json:"dataset"`
	Filter  map[string]string `json:"filter,omitempty"`
	Limit   int               `json:"limit,omitempty"`
}

type datasetQueryResponse struct {
	Rows []map[string]interface{} `json:"rows"`
}

func (g *HTTPGateway) QueryDataset(ctx context.Context, datasetRef string, filter map[string]string, limit int) ([]map[string]interface{}, error) {
	if !g.IsAvailable() {
		return nil, ErrSdkUnavailable
	}

	var res datasetQueryResponse
	err := g.post(ctx, "/api/v1/datasets/query", datasetQueryRequest{
		Dataset: datasetRef,
		Filter:  filter,
		Limit:   limit,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

type openPopupRequest struct {
	Popup  string            `json:"popup"`
	Params map[string]string `json:"params,omitempty"`
}

func (g *HTTPGateway) OpenRecordPopup(ctx context.Context, popupRef string, params map[string]string) error {
	if !g.IsAvailable() {
		return ErrSdkUnavailable
	}
	return g.post(ctx, "/api/v1/navigation/popup", openPopupRequest{
		Popup:  popupRef,
		Params: params,
	}, nil)
}

func (g *HTTPGateway) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+path, nil)
	if err != nil {
		return &SdkError{Message: err.Error()}
	}
	return g.do(req, out)
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &SdkError{Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return &SdkError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *HTTPGateway) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+g.apiToken)

	res, err := g.client.Do(req)
	if err != nil {
		return &SdkError{Message: err.Error()}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return &SdkError{Message: err.Error()}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &SdkError{StatusCode: res.StatusCode, Message: string(resBody)}
	}

	if out != nil {
		if err := json.Unmarshal(resBody, out); err != nil {
			return &SdkError{Message: err.Error()}
		}
	}
	return nil
}
