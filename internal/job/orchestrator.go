package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"facade/internal/datauri"
	"facade/internal/logging"
	"facade/internal/notifications"
	"facade/internal/services"
	"facade/internal/streetview"
)

const (
	stageCapture   = "capture"
	stageTransform = "transform"
	notifyTimeout  = 10 * time.Second

	msgMissingKey = "API key is missing."
	msgNoView     = "Street View parameters not available. Please select a view in the panorama."
	msgBusy       = "A transformation is already in progress or awaiting dismissal."
)

// ViewProvider exposes the current panorama view and any location error.
type ViewProvider interface {
	Current() (*streetview.ViewState, string)
}

// Fetcher retrieves the still image for a capture request.
type Fetcher interface {
	Configured() bool
	FetchStatic(ctx context.Context, req streetview.CaptureRequest) (datauri.Image, error)
}

// Transformer edits a captured image.
type Transformer interface {
	Transform(ctx context.Context, img datauri.Image) (datauri.Image, error)
}

// Recorder receives job metrics.
type Recorder interface {
	JobFinished(outcome string)
	ObserveStage(stage string, elapsed time.Duration)
	SetJobInFlight(active bool)
}

type nopRecorder struct{}

func (nopRecorder) JobFinished(string)                 {}
func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) SetJobInFlight(bool)                {}

// Orchestrator owns the single transformation job.
type Orchestrator struct {
	views       ViewProvider
	fetcher     Fetcher
	transformer Transformer
	logger      *slog.Logger
	recorder    Recorder
	notifier    notifications.Service
	newID       func() string
	now         func() time.Time

	mu   sync.Mutex
	job  *Job
	done chan struct{}

	subMu  sync.Mutex
	subs   map[int]func(Job)
	nextID int
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithNotifier attaches a notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.now = fn
		}
	}
}

// New constructs an orchestrator. transformer may be nil when no generation
// credential is configured; jobs then fail at the transform stage.
func New(views ViewProvider, fetcher Fetcher, transformer Transformer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		views:       views,
		fetcher:     fetcher,
		transformer: transformer,
		logger:      logging.NewNop(),
		recorder:    nopRecorder{},
		notifier:    notifications.NewService(nil),
		newID:       uuid.NewString,
		now:         time.Now,
		subs:        make(map[int]func(Job)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "orchestrator")
	return o
}

// Snapshot returns a copy of the current job; an idle orchestrator reports
// StatusIdle.
func (o *Orchestrator) Snapshot() Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Idle reports whether a new job may be triggered.
func (o *Orchestrator) Idle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job == nil
}

// Trigger starts a job for the current view. Preconditions are checked before
// any network call; on rejection the orchestrator stays idle. The job runs in
// the background on a context detached from ctx.
func (o *Orchestrator) Trigger(ctx context.Context) (Job, error) {
	o.mu.Lock()
	if o.job != nil {
		o.mu.Unlock()
		return Job{}, o.reject(ctx, services.Wrap(services.ErrJobInFlight, stageCapture, "trigger", msgBusy, nil))
	}
	if o.fetcher == nil || !o.fetcher.Configured() {
		o.mu.Unlock()
		return Job{}, o.reject(ctx, services.Wrap(services.ErrConfigMissing, stageCapture, "trigger", msgMissingKey, nil))
	}
	var view *streetview.ViewState
	var viewErr string
	if o.views != nil {
		view, viewErr = o.views.Current()
	}
	if view == nil || viewErr != "" {
		o.mu.Unlock()
		return Job{}, o.reject(ctx, services.Wrap(services.ErrPreconditionFailed, stageCapture, "trigger", msgNoView, nil))
	}

	job := &Job{
		ID:        o.newID(),
		Status:    StatusCapturing,
		View:      *view,
		Request:   streetview.BuildCaptureRequest(*view),
		StartedAt: o.now(),
	}
	o.job = job
	o.done = make(chan struct{})
	done := o.done
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.recorder.SetJobInFlight(true)
	o.publish(snapshot)

	runCtx := services.WithJobID(context.WithoutCancel(ctx), job.ID)
	go o.run(runCtx, job.ID, job.Request, done)
	return snapshot, nil
}

// Wait blocks until the current job reaches a terminal state or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) (Job, error) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return o.Snapshot(), nil
	}
	select {
	case <-done:
		return o.Snapshot(), nil
	case <-ctx.Done():
		return o.Snapshot(), ctx.Err()
	}
}

// Dismiss returns a finished job to idle. Dismissing while a job is in flight
// fails with ErrJobInFlight; dismissing when idle is a no-op.
func (o *Orchestrator) Dismiss() error {
	o.mu.Lock()
	if o.job == nil {
		o.mu.Unlock()
		return nil
	}
	if o.job.InFlight() {
		o.mu.Unlock()
		return services.Wrap(services.ErrJobInFlight, "", "dismiss", msgBusy, nil)
	}
	id := o.job.ID
	o.job = nil
	o.done = nil
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.logger.Debug("job dismissed", logging.String(logging.FieldJobID, id))
	o.publish(snapshot)
	return nil
}

// DismissIfTerminal dismisses a finished job and reports whether one was
// dismissed. In-flight jobs are left alone.
func (o *Orchestrator) DismissIfTerminal() bool {
	o.mu.Lock()
	terminal := o.job != nil && o.job.Terminal()
	o.mu.Unlock()
	if !terminal {
		return false
	}
	return o.Dismiss() == nil
}

// Subscribe registers fn for every job change. The returned function cancels
// the subscription.
func (o *Orchestrator) Subscribe(fn func(Job)) func() {
	o.subMu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.subMu.Lock()
			delete(o.subs, id)
			o.subMu.Unlock()
		})
	}
}

func (o *Orchestrator) run(ctx context.Context, id string, req streetview.CaptureRequest, done chan struct{}) {
	defer close(done)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.Float64("lat", req.Lat),
		logging.Float64("lng", req.Lng),
		logging.Float64("heading", req.Heading),
		logging.Float64("pitch", req.Pitch),
		logging.Float64("fov", req.FOV),
	)

	original, err := o.capture(ctx, req)
	if err != nil {
		o.fail(ctx, id, err)
		return
	}
	o.update(id, func(j *Job) {
		img := original
		j.Original = &img
		j.Status = StatusTransforming
	})

	transformed, err := o.transform(ctx, original)
	if err != nil {
		o.fail(ctx, id, err)
		return
	}
	o.succeed(ctx, id, transformed)
}

func (o *Orchestrator) capture(ctx context.Context, req streetview.CaptureRequest) (datauri.Image, error) {
	ctx = services.WithStage(ctx, stageCapture)
	started := o.now()
	img, err := o.fetcher.FetchStatic(ctx, req)
	o.recorder.ObserveStage(stageCapture, o.now().Sub(started))
	if err != nil {
		return datauri.Image{}, err
	}
	logging.WithContext(ctx, o.logger).Info("capture fetched",
		logging.String("mime_type", img.MIMEType),
		logging.Int("bytes", len(img.Data)),
	)
	return img, nil
}

func (o *Orchestrator) transform(ctx context.Context, img datauri.Image) (datauri.Image, error) {
	ctx = services.WithStage(ctx, stageTransform)
	if o.transformer == nil {
		return datauri.Image{}, services.Wrap(services.ErrConfigMissing, stageTransform, "transform", "Generation API key is missing.", nil)
	}
	started := o.now()
	out, err := o.transformer.Transform(ctx, img)
	o.recorder.ObserveStage(stageTransform, o.now().Sub(started))
	if err != nil {
		return datauri.Image{}, err
	}
	if out.Empty() {
		return datauri.Image{}, services.Wrap(services.ErrGenerationFailed, stageTransform, "transform", "AI transformation did not return an image.", nil)
	}
	return out, nil
}

func (o *Orchestrator) succeed(ctx context.Context, id string, transformed datauri.Image) {
	snapshot := o.update(id, func(j *Job) {
		img := transformed
		j.Transformed = &img
		j.Status = StatusSucceeded
		j.FinishedAt = o.now()
	})
	o.recorder.SetJobInFlight(false)
	o.recorder.JobFinished(string(StatusSucceeded))

	logging.WithContext(ctx, o.logger).Info("job succeeded",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Duration("elapsed", snapshot.Elapsed(o.now())),
	)
	o.notify(ctx, func(nctx context.Context) error {
		return o.notifier.NotifyTransformationSucceeded(nctx, id, snapshot.View.Lat, snapshot.View.Lng, snapshot.Elapsed(o.now()))
	})
}

func (o *Orchestrator) fail(ctx context.Context, id string, err error) {
	kind := services.Kind(err)
	message := services.UserMessage(err)
	snapshot := o.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.ErrorKind = kind
		j.ErrorMessage = message
		j.FinishedAt = o.now()
		if j.Original == nil {
			if kind == "no_imagery" {
				j.Placeholder = PlaceholderNoImagery
			} else {
				j.Placeholder = PlaceholderFetchError
			}
		}
	})
	o.recorder.SetJobInFlight(false)
	o.recorder.JobFinished(string(StatusFailed))

	logging.ErrorWithContext(logging.WithContext(ctx, o.logger), "job failed", "job_failure",
		logging.String("error_kind", kind),
		logging.String("error_message", message),
		logging.String("status_at_failure", string(snapshot.Status)),
		logging.Error(err),
	)
	o.notify(ctx, func(nctx context.Context) error {
		return o.notifier.NotifyTransformationFailed(nctx, id, kind, message)
	})
}

func (o *Orchestrator) reject(ctx context.Context, err error) error {
	o.recorder.JobFinished("rejected")
	logging.WithContext(ctx, o.logger).Warn("trigger rejected",
		logging.String(logging.FieldEventType, "trigger_rejected"),
		logging.String("error_kind", services.Kind(err)),
		logging.String(logging.FieldErrorHint, services.UserMessage(err)),
		logging.String(logging.FieldImpact, "no job started"),
	)
	return err
}

func (o *Orchestrator) notify(ctx context.Context, send func(context.Context) error) {
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := send(nctx); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "job notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "job outcome not pushed"),
		)
	}
}

// update applies fn to the job with id and publishes the result. A job that
// was replaced in the meantime is left untouched.
func (o *Orchestrator) update(id string, fn func(*Job)) Job {
	o.mu.Lock()
	if o.job == nil || o.job.ID != id {
		o.mu.Unlock()
		return Job{ID: id}
	}
	fn(o.job)
	snapshot := o.snapshotLocked()
	o.mu.Unlock()

	o.publish(snapshot)
	return snapshot
}

func (o *Orchestrator) snapshotLocked() Job {
	if o.job == nil {
		return Job{Status: StatusIdle}
	}
	return o.job.clone()
}

func (o *Orchestrator) publish(job Job) {
	o.subMu.Lock()
	subs := make([]func(Job), 0, len(o.subs))
	for _, fn := range o.subs {
		subs = append(subs, fn)
	}
	o.subMu.Unlock()

	for _, fn := range subs {
		fn(job)
	}
}
