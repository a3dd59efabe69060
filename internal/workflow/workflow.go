// Package workflow runs one select-caption-publish cycle.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/christophergentle/instaposter/internal/errs"
	"github.com/christophergentle/instaposter/internal/publisher"
	"github.com/christophergentle/instaposter/internal/state"
)

type State string

const (
	StateSelectImage     State = "SELECT_IMAGE"
	StateGenerateCaption State = "GENERATE_CAPTION"
	StatePublish         State = "PUBLISH"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

type ImageSource interface {
	SelectImage(ctx context.Context) string
}

type CaptionGenerator interface {
	GenerateCaption(ctx context.Context, imageURL string) string
}

type Publisher interface {
	Post(ctx context.Context, imageURL, caption string) publisher.Result
}

// Mirror cross-posts a published caption somewhere else.
type Mirror interface {
	PostCaption(ctx context.Context, caption, imageURL string) error
}

// History stores an audit record of each run.
type History interface {
	Record(ctx context.Context, rec state.RunRecord) error
}

// Outcome is everything known about a single run once it has finished.
type Outcome struct {
	RunID      string
	State      State
	FailedAt   State
	Kind       errs.Kind
	Reason     string
	ImageURL   string
	Caption    string
	Publish    *publisher.Result
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

func (o Outcome) Succeeded() bool {
	return o.State == StateDone
}

// Deps are the collaborators of a Workflow. Mirror and History are optional.
type Deps struct {
	Images    ImageSource
	Captions  CaptionGenerator
	Publisher Publisher
	Mirror    Mirror
	History   History
	DryRun    bool
	Log       logrus.FieldLogger
}

type Workflow struct {
	deps Deps
	now  func() time.Time
}

func New(deps Deps) *Workflow {
	return &Workflow{deps: deps, now: time.Now}
}

// Run executes one cycle starting at SELECT_IMAGE. It never returns an
// error: failures end in StateFailed with a reason and kind, including
// panics raised by any collaborator.
func (w *Workflow) Run(ctx context.Context) (out Outcome) {
	out = Outcome{
		RunID:     uuid.NewString(),
		State:     StateSelectImage,
		DryRun:    w.deps.DryRun,
		StartedAt: w.now(),
	}
	log := w.deps.Log.WithField("run_id", out.RunID)
	log.Info("Starting posting workflow")

	defer func() {
		if r := recover(); r != nil {
			out.fail(errs.KindUnexpected, fmt.Sprintf("panic: %v", r))
			log.WithFields(logrus.Fields{
				"state": out.FailedAt,
				"kind":  out.Kind,
			}).Errorf("Workflow panicked: %v", r)
		}
		out.FinishedAt = w.now()
		w.record(ctx, log, out)
	}()

	out.ImageURL = w.deps.Images.SelectImage(ctx)
	if out.ImageURL == "" {
		out.fail(errs.KindConfigMissing, "no image available")
		log.WithFields(logrus.Fields{"state": out.FailedAt, "kind": out.Kind}).Error("No image available")
		return out
	}
	log.WithField("image_url", out.ImageURL).Info("Selected image")

	out.State = StateGenerateCaption
	out.Caption = w.deps.Captions.GenerateCaption(ctx, out.ImageURL)
	if out.Caption == "" {
		out.fail(errs.KindUnexpected, "empty caption")
		log.WithFields(logrus.Fields{"state": out.FailedAt, "kind": out.Kind}).Error("Caption generator returned an empty caption")
		return out
	}
	log.WithField("caption", out.Caption).Info("Generated caption")

	if w.deps.DryRun {
		out.State = StateDone
		log.Info("Dry run enabled, skipping publish")
		return out
	}

	out.State = StatePublish
	res := w.deps.Publisher.Post(ctx, out.ImageURL, out.Caption)
	out.Publish = &res
	if !res.Success {
		out.fail(res.Kind, res.Error)
		log.WithFields(logrus.Fields{
			"state": out.FailedAt,
			"kind":  out.Kind,
			"step":  res.Step,
		}).Errorf("Publish failed: %s", res.Error)
		return out
	}

	out.State = StateDone
	log.WithFields(logrus.Fields{
		"container_id": res.ContainerID,
		"post_id":      res.PostID,
	}).Info("Posted to Instagram")

	if w.deps.Mirror != nil {
		if err := w.deps.Mirror.PostCaption(ctx, out.Caption, out.ImageURL); err != nil {
			log.WithError(err).WithField("kind", errs.KindOf(err)).Warn("Mirror post failed")
		}
	}

	return out
}

func (o *Outcome) fail(kind errs.Kind, reason string) {
	o.FailedAt = o.State
	o.State = StateFailed
	if kind == errs.KindNone {
		kind = errs.KindUnexpected
	}
	o.Kind = kind
	o.Reason = reason
}

func (w *Workflow) record(ctx context.Context, log logrus.FieldLogger, out Outcome) {
	if w.deps.History == nil {
		return
	}
	if err := w.deps.History.Record(ctx, out.Record()); err != nil {
		log.WithError(err).Warn("Failed to record run history")
	}
}

// Record converts the outcome into its stored form.
func (o Outcome) Record() state.RunRecord {
	rec := state.RunRecord{
		RunID:      o.RunID,
		State:      string(o.State),
		FailedAt:   string(o.FailedAt),
		Kind:       string(o.Kind),
		Reason:     o.Reason,
		ImageURL:   o.ImageURL,
		Caption:    o.Caption,
		DryRun:     o.DryRun,
		StartedAt:  o.StartedAt,
		FinishedAt: o.FinishedAt,
	}
	if o.Publish != nil {
		rec.ContainerID = o.Publish.ContainerID
		rec.PostID = o.Publish.PostID
	}
	return rec
}
