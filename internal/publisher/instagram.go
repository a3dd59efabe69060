// Package publisher posts an image and caption to an Instagram business
// account with the Graph API container flow.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/christophergentle/instaposter/internal/config"
	"github.com/christophergentle/instaposter/internal/errs"
)

type Step string

const (
	StepPreflight        Step = "preflight"
	StepCreateContainer  Step = "create_container"
	StepPublishContainer Step = "publish_container"
)

// Result describes one publish attempt. On failure Step names the call that
// failed and Error carries the upstream message or body.
type Result struct {
	Success     bool
	ContainerID string
	PostID      string
	Step        Step
	Kind        errs.Kind
	Error       string
}

func failed(step Step, kind errs.Kind, msg string) Result {
	return Result{Step: step, Kind: kind, Error: msg}
}

type InstagramPublisher struct {
	client      *resty.Client
	accountID   string
	accessToken string
	apiVersion  string
	log         logrus.FieldLogger
}

type graphResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func New(cfg config.InstagramConfig, timeout time.Duration, log logrus.FieldLogger) *InstagramPublisher {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout)

	return &InstagramPublisher{
		client:      client,
		accountID:   strings.TrimSpace(cfg.AccountID),
		accessToken: strings.TrimSpace(cfg.AccessToken),
		apiVersion:  cfg.APIVersion,
		log:         log,
	}
}

// Issues lists credential problems that would make Post fail before any
// request is sent.
func (p *InstagramPublisher) Issues() []string {
	var issues []string
	switch {
	case p.accessToken == "":
		issues = append(issues, "Instagram access token is not set")
	case config.IsPlaceholder(p.accessToken):
		issues = append(issues, "Instagram access token is still a placeholder value")
	}
	switch {
	case p.accountID == "":
		issues = append(issues, "Instagram account id is not set")
	case config.IsPlaceholder(p.accountID):
		issues = append(issues, "Instagram account id is still a placeholder value")
	}
	return issues
}

// Post creates a media container for the image and publishes it. The
// publish call is only made when container creation succeeded. Nothing is
// retried: a successful publish cannot be undone.
func (p *InstagramPublisher) Post(ctx context.Context, imageURL, caption string) Result {
	if issues := p.Issues(); len(issues) > 0 {
		return failed(StepPreflight, errs.KindConfigMissing, strings.Join(issues, "; "))
	}

	containerID, res, ok := p.call(ctx, StepCreateContainer, "media", map[string]string{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": p.accessToken,
	})
	if !ok {
		return res
	}
	p.log.WithField("container_id", containerID).Info("Media container created")

	postID, res, ok := p.call(ctx, StepPublishContainer, "media_publish", map[string]string{
		"creation_id":  containerID,
		"access_token": p.accessToken,
	})
	if !ok {
		res.ContainerID = containerID
		return res
	}

	return Result{Success: true, ContainerID: containerID, PostID: postID}
}

func (p *InstagramPublisher) call(ctx context.Context, step Step, edge string, form map[string]string) (string, Result, bool) {
	path := fmt.Sprintf("/%s/%s/%s", p.apiVersion, p.accountID, edge)

	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(path)
	if err != nil {
		return "", failed(step, errs.KindTransient, fmt.Sprintf("%s request failed: %v", step, err)), false
	}

	if resp.StatusCode() != http.StatusOK {
		return "", failed(step, errs.FromStatus(resp.StatusCode()),
			fmt.Sprintf("%s returned HTTP %d: %s", step, resp.StatusCode(), resp.String())), false
	}

	var out graphResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", failed(step, errs.KindUpstreamRejected,
			fmt.Sprintf("%s returned malformed JSON: %v", step, err)), false
	}
	if out.Error != nil {
		return "", failed(step, errs.KindUpstreamRejected,
			fmt.Sprintf("%s returned error: %s", step, out.Error.Message)), false
	}
	if out.ID == "" {
		return "", failed(step, errs.KindUpstreamRejected,
			fmt.Sprintf("%s response has no id: %s", step, resp.String())), false
	}

	return out.ID, Result{}, true
}
