package lambda

import (
	"context"
	"errors"
	"net/http"
	"testing"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christophergentle/instaposter/internal/errs"
	"github.com/christophergentle/instaposter/internal/publisher"
	"github.com/christophergentle/instaposter/internal/workflow"
)

type stubRunner struct {
	out   workflow.Outcome
	calls int
}

func (s *stubRunner) Run(context.Context) workflow.Outcome {
	s.calls++
	return s.out
}

func TestHandleRequestSuccess(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	runner := &stubRunner{out: workflow.Outcome{
		RunID:   "run-1",
		State:   workflow.StateDone,
		Publish: &publisher.Result{Success: true, ContainerID: "123", PostID: "456"},
	}}

	resp, err := NewHandler(runner, log).HandleRequest(context.Background(), Event{Source: "aws.events"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "DONE", resp.State)
	assert.Contains(t, resp.Body, "456")
	assert.Equal(t, 1, runner.calls)
}

func TestHandleRequestFailedRunIsNotALambdaError(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	runner := &stubRunner{out: workflow.Outcome{
		RunID:    "run-2",
		State:    workflow.StateFailed,
		FailedAt: workflow.StatePublish,
		Kind:     errs.KindUpstreamRejected,
		Reason:   "create_container returned HTTP 400",
	}}

	resp, err := NewHandler(runner, log).HandleRequest(context.Background(), Event{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "FAILED", resp.State)
	assert.Contains(t, resp.Body, "PUBLISH")
	assert.Contains(t, resp.Body, "upstream-rejected")
}

func TestHandleRequestDryRun(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	runner := &stubRunner{out: workflow.Outcome{State: workflow.StateDone, DryRun: true}}

	resp, err := NewHandler(runner, log).HandleRequest(context.Background(), Event{})
	require.NoError(t, err)
	assert.Equal(t, "Dry run completed", resp.Body)
}

func TestFailedHandler(t *testing.T) {
	log, _ := logrustest.NewNullLogger()
	resp, err := NewFailedHandler(errors.New("bad yaml"), log).HandleRequest(context.Background(), Event{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "bad yaml")
}
