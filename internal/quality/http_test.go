package quality

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

func batchSpec() *core.QualitySpec {
	return &core.QualitySpec{
		Target: core.QualityTarget{Kind: core.SpecKindDataset, Name: "iceberg.reports.daily_sales"},
		Tests: []core.TestDefinition{
			{
				Name:     "ids_not_null",
				Type:     core.TestNotNull,
				Severity: core.SeverityError,
				Table:    "iceberg.reports.daily_sales",
				Columns:  []string{"id"},
				Enabled:  true,
			},
			{
				Name:     "manual",
				Type:     core.TestSingular,
				Severity: core.SeverityError,
				SQL:      core.InlineSQL("SELECT 1 WHERE 1 = 0"),
				Enabled:  true,
			},
		},
	}
}

func TestHTTPClient_RunTests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/quality/run", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req remoteRunRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "iceberg.reports.daily_sales", req.Target)
		assert.Equal(t, "dataset", req.Kind)
		require.Len(t, req.Tests, 2)
		assert.Equal(t, "not_null", req.Tests[0].Type)
		assert.Equal(t, []string{"id"}, req.Tests[0].Columns)
		assert.Equal(t, "SELECT 1 WHERE 1 = 0", req.Tests[1].SQL)

		json.NewEncoder(w).Encode(remoteRunResponse{Results: []RemoteTestResponse{
			{TestName: "ids_not_null", Status: "pass", ElapsedMS: 4},
			{TestName: "manual", Status: "fail", FailedRows: 3},
		}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	responses, err := client.RunTests(context.Background(), batchSpec())
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, "pass", responses[0].Status)
	assert.Equal(t, int64(3), responses[1].FailedRows)
}

func TestHTTPClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quality service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	_, err := client.RunTests(context.Background(), batchSpec())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "quality service unavailable")
}

func TestHTTPClient_DrivesRemoteBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(remoteRunResponse{Results: []RemoteTestResponse{
			{TestName: "ids_not_null", Status: "pass"},
			{TestName: "manual", Status: "pass"},
		}})
	}))
	defer srv.Close()

	runner := NewRunner(RunnerConfig{Remote: NewHTTPClient(srv.URL, srv.Client())})
	report := runner.RunAll(context.Background(), batchSpec(), RunOptions{OnServer: true})

	assert.Equal(t, core.StatusPass, report.Status)
	assert.Equal(t, core.ExecutedOnServer, report.ExecutedAt)
	require.Len(t, report.Results, 2)
}
