package quality

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// DefaultRemoteTimeout bounds one batch submission to the service.
const DefaultRemoteTimeout = 60 * time.Second

// HTTPClient submits test batches to a quality service over HTTP.
// It implements RemoteClient.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the service at baseURL. A nil
// httpClient falls back to a default with DefaultRemoteTimeout.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRemoteTimeout}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: httpClient}
}

// remoteTest is the wire shape of one test definition.
type remoteTest struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Severity string   `json:"severity"`
	Table    string   `json:"table,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Values   []string `json:"values,omitempty"`
	ToTable  string   `json:"to_table,omitempty"`
	ToColumn string   `json:"to_column,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	SQL      string   `json:"sql,omitempty"`
	Enabled  bool     `json:"enabled"`
}

type remoteRunRequest struct {
	Target string       `json:"target"`
	Kind   string       `json:"kind"`
	Tests  []remoteTest `json:"tests"`
}

type remoteRunResponse struct {
	Results []RemoteTestResponse `json:"results"`
}

// RunTests implements RemoteClient by POSTing the batch and decoding
// the per-test responses.
func (c *HTTPClient) RunTests(ctx context.Context, spec *core.QualitySpec) ([]RemoteTestResponse, error) {
	payload, err := buildRemoteRequest(spec)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode quality batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/quality/run", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit quality batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("quality service returned %s: %s",
			resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded remoteRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode quality response: %w", err)
	}
	return decoded.Results, nil
}

// buildRemoteRequest flattens the spec for the wire. Singular SQL is
// resolved locally so the service never needs the spec file tree.
func buildRemoteRequest(spec *core.QualitySpec) (remoteRunRequest, error) {
	req := remoteRunRequest{
		Target: spec.Target.Name,
		Kind:   string(spec.Target.Kind),
		Tests:  make([]remoteTest, 0, len(spec.Tests)),
	}
	baseDir := filepath.Dir(spec.FilePath)

	for _, def := range spec.Tests {
		rt := remoteTest{
			Name:     def.Name,
			Type:     string(def.Type),
			Severity: string(def.Severity),
			Table:    def.Table,
			Columns:  def.Columns,
			Values:   def.Values,
			ToTable:  def.ToTable,
			ToColumn: def.ToColumn,
			Min:      def.Min,
			Max:      def.Max,
			Enabled:  def.Enabled,
		}
		if def.Type == core.TestSingular {
			sql, err := def.SQL.Resolve(baseDir)
			if err != nil {
				return remoteRunRequest{}, err
			}
			rt.SQL = sql
		}
		req.Tests = append(req.Tests, rt)
	}
	return req, nil
}
