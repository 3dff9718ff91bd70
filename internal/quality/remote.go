package quality

import (
	"context"

	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// RemoteTestResponse is one test outcome as reported by a quality
// service. Status arrives as free text and is normalized on mapping;
// anything unrecognized classifies as error, never as success.
type RemoteTestResponse struct {
	TestName   string `json:"test_name"`
	Status     string `json:"status"`
	FailedRows int64  `json:"failed_rows"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	Error      string `json:"error,omitempty"`
}

// RemoteClient delegates a batch of tests to a quality service. The
// concrete transport lives outside this package.
type RemoteClient interface {
	RunTests(ctx context.Context, spec *core.QualitySpec) ([]RemoteTestResponse, error)
}

// runRemote delegates the batch and maps responses into a report.
func (r *Runner) runRemote(ctx context.Context, spec *core.QualitySpec, opts RunOptions) *core.QualityReport {
	report := &core.QualityReport{
		Resource:   spec.Target.Name,
		ExecutedAt: core.ExecutedOnServer,
	}

	if r.remote == nil {
		for _, def := range spec.Tests {
			report.Results = append(report.Results, core.TestResult{
				TestName:   def.Name,
				Resource:   spec.Target.Name,
				Status:     core.StatusError,
				ExecutedAt: core.ExecutedOnServer,
				Error:      "no remote client configured",
			})
		}
		report.Finalize()
		return report
	}

	responses, err := r.remote.RunTests(ctx, spec)
	if err != nil {
		for _, def := range spec.Tests {
			report.Results = append(report.Results, core.TestResult{
				TestName:   def.Name,
				Resource:   spec.Target.Name,
				Status:     core.StatusError,
				ExecutedAt: core.ExecutedOnServer,
				Error:      err.Error(),
			})
		}
		report.Finalize()
		return report
	}

	byName := make(map[string]RemoteTestResponse, len(responses))
	for _, resp := range responses {
		byName[resp.TestName] = resp
	}

	stopped := false
	for _, def := range spec.Tests {
		result := core.TestResult{
			TestName:   def.Name,
			Resource:   spec.Target.Name,
			ExecutedAt: core.ExecutedOnServer,
		}

		if stopped {
			result.Status = core.StatusSkipped
			result.Error = "skipped: earlier test failed with fail_fast enabled"
			report.Results = append(report.Results, result)
			continue
		}

		resp, ok := byName[def.Name]
		if !ok {
			result.Status = core.StatusError
			result.Error = "no result returned by server"
			report.Results = append(report.Results, result)
			continue
		}

		result.Status = core.ParseTestStatus(resp.Status)
		result.FailedRows = resp.FailedRows
		result.ElapsedMS = resp.ElapsedMS
		result.Error = resp.Error
		report.Results = append(report.Results, result)

		if opts.FailFast && result.Status == core.StatusFail {
			stopped = true
		}
	}

	report.Finalize()
	return report
}
