package lambda

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/christophergentle/instaposter/internal/workflow"
)

// Event represents the EventBridge event structure
type Event struct {
	Source string `json:"source"`
	Time   string `json:"time"`
}

// Response represents the Lambda response
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
	RunID      string `json:"runId,omitempty"`
	State      string `json:"state,omitempty"`
}

// Runner executes one posting workflow
type Runner interface {
	Run(ctx context.Context) workflow.Outcome
}

// Handler runs one workflow per invocation. It never returns an error to
// the Lambda runtime: a retried invocation could publish the same post twice.
type Handler struct {
	runner  Runner
	initErr error
	log     logrus.FieldLogger
}

func NewHandler(runner Runner, log logrus.FieldLogger) *Handler {
	return &Handler{runner: runner, log: log}
}

// NewFailedHandler answers every invocation with the initialization error.
func NewFailedHandler(err error, log logrus.FieldLogger) *Handler {
	return &Handler{initErr: err, log: log}
}

// HandleRequest is the main Lambda handler
func (h *Handler) HandleRequest(ctx context.Context, event Event) (Response, error) {
	h.log.WithFields(logrus.Fields{"source": event.Source, "time": event.Time}).Info("Received event")

	if h.initErr != nil {
		h.log.WithError(h.initErr).Error("Handler not initialized")
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       "Failed to initialize: " + h.initErr.Error(),
		}, nil
	}

	out := h.runner.Run(ctx)
	resp := Response{RunID: out.RunID, State: string(out.State)}

	if !out.Succeeded() {
		resp.StatusCode = http.StatusInternalServerError
		resp.Body = fmt.Sprintf("Workflow failed at %s (%s): %s", out.FailedAt, out.Kind, out.Reason)
		return resp, nil
	}

	resp.StatusCode = http.StatusOK
	switch {
	case out.DryRun:
		resp.Body = "Dry run completed"
	case out.Publish != nil:
		resp.Body = "Posted to Instagram: " + out.Publish.PostID
	default:
		resp.Body = "Workflow completed"
	}
	return resp, nil
}
