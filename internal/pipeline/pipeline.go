// Package pipeline executes tracking runs: four sequential steps that
// prepare credentials, fetch quotes, derive commentary and publish the
// result to the spreadsheet. A step failure aborts the run and the
// remaining steps are skipped.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cchai186/commodity-price-tracker/internal/commentary"
	"github.com/cchai186/commodity-price-tracker/internal/config"
	"github.com/cchai186/commodity-price-tracker/internal/models"
	"github.com/cchai186/commodity-price-tracker/internal/quotes"
	"github.com/cchai186/commodity-price-tracker/internal/secrets"
	"github.com/cchai186/commodity-price-tracker/internal/sheets"
	"github.com/cchai186/commodity-price-tracker/internal/store"
	"github.com/cchai186/commodity-price-tracker/internal/websocket"
)

// Step names in execution order.
const (
	StepPrepare = "prepare"
	StepFetch   = "fetch"
	StepAnalyze = "analyze"
	StepPublish = "publish"
)

// StepNames returns the pipeline steps in execution order.
func StepNames() []string {
	return []string{StepPrepare, StepFetch, StepAnalyze, StepPublish}
}

// ErrRunInProgress is returned when a dispatch overlaps an active run.
// Runs are never queued.
var ErrRunInProgress = errors.New("a run is already in progress")

// Sheet is the part of the sheets publisher the pipeline drives.
type Sheet interface {
	Publish(ctx context.Context, reports []quotes.CategoryQuotes) error
	LastRecords(ctx context.Context, category string) map[string]float64
}

// Broadcaster fans run events out to subscribers.
type Broadcaster interface {
	Broadcast(message interface{})
}

// PublisherFactory builds the sheet publisher for one run from resolved
// credentials.
type PublisherFactory func(ctx context.Context, credentialsJSON []byte) (Sheet, error)

// Options wires a pipeline.
type Options struct {
	Config     *config.Config
	Env        config.Env
	Categories []quotes.Category
	Client     *quotes.Client
	Snapshot   *quotes.Snapshot
	Store      store.Store
	Events     Broadcaster
	Logger     *zap.SugaredLogger

	// NewPublisher overrides the Google Sheets publisher. Tests use it to
	// avoid real API clients.
	NewPublisher PublisherFactory
}

// Pipeline runs the tracker. At most one run is in flight at a time.
type Pipeline struct {
	cfg          *config.Config
	env          config.Env
	categories   []quotes.Category
	client       *quotes.Client
	snapshot     *quotes.Snapshot
	store        store.Store
	events       Broadcaster
	log          *zap.SugaredLogger
	newPublisher PublisherFactory

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	activeID string
}

// New creates a pipeline. Empty Categories fall back to the built-in
// registry; a nil Events sink drops all events.
func New(opts Options) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline{
		cfg:          opts.Config,
		env:          opts.Env,
		categories:   opts.Categories,
		client:       opts.Client,
		snapshot:     opts.Snapshot,
		store:        opts.Store,
		events:       opts.Events,
		log:          opts.Logger,
		newPublisher: opts.NewPublisher,
		ctx:          ctx,
		cancel:       cancel,
	}
	if len(p.categories) == 0 {
		p.categories = quotes.DefaultCategories()
	}
	if p.events == nil {
		p.events = noopBroadcaster{}
	}
	if p.newPublisher == nil {
		p.newPublisher = p.googlePublisher
	}
	return p
}

// Dispatch starts a run in the background and returns it immediately.
func (p *Pipeline) Dispatch(trigger, requestedBy string) (*models.Run, error) {
	run, err := p.begin(trigger, requestedBy)
	if err != nil {
		return nil, err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.execute(p.ctx, run)
	}()

	return run, nil
}

// RunOnce executes a single run synchronously and returns its final state.
func (p *Pipeline) RunOnce(ctx context.Context) (*models.Run, error) {
	run, err := p.begin(models.TriggerOnce, "cli")
	if err != nil {
		return nil, err
	}
	p.execute(ctx, run)
	return p.store.GetRun(run.ID)
}

// Active returns the ID of the in-flight run, if any.
func (p *Pipeline) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeID, p.activeID != ""
}

// Drain waits for the active run to finish, up to timeout. It reports
// whether the pipeline went idle in time.
func (p *Pipeline) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Shutdown cancels the in-flight run, if any.
func (p *Pipeline) Shutdown() {
	p.cancel()
}

func (p *Pipeline) begin(trigger, requestedBy string) (*models.Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.activeID != "" {
		return nil, ErrRunInProgress
	}

	run := &models.Run{
		Trigger:     trigger,
		RequestedBy: requestedBy,
		ReportDate:  time.Now().Format("2006-01-02"),
	}
	if err := p.store.CreateRun(run, StepNames()); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	p.activeID = run.ID
	return run, nil
}

func (p *Pipeline) release(runID string) {
	p.mu.Lock()
	if p.activeID == runID {
		p.activeID = ""
	}
	p.mu.Unlock()
}

// runState carries intermediate results between steps of one run.
type runState struct {
	run       *models.Run
	log       *zap.SugaredLogger
	publisher Sheet
	reports   []quotes.CategoryQuotes
}

type stepFunc func(ctx context.Context, state *runState) (string, error)

func (p *Pipeline) execute(ctx context.Context, run *models.Run) {
	defer p.release(run.ID)

	log := p.log.With("run_id", run.ID)
	log.Infof("starting run (trigger=%s)", run.Trigger)
	if err := p.store.BeginRun(run.ID); err != nil {
		log.Errorf("failed to begin run: %v", err)
	}
	p.events.Broadcast(websocket.NewMessage(websocket.EventRunStarted, run))

	steps := []struct {
		name string
		fn   stepFunc
	}{
		{StepPrepare, p.prepare},
		{StepFetch, p.fetch},
		{StepAnalyze, p.analyze},
		{StepPublish, p.publish},
	}

	state := &runState{run: run, log: log}
	var runErr error

	for seq, step := range steps {
		if err := p.store.BeginStep(run.ID, seq); err != nil {
			log.Errorf("failed to begin step %s: %v", step.name, err)
		}
		p.events.Broadcast(websocket.NewMessage(websocket.EventStepStarted, websocket.StepEvent{
			RunID: run.ID,
			Name:  step.name,
			Seq:   seq,
		}))

		detail, err := step.fn(ctx, state)
		if err != nil {
			log.Errorf("step %s failed: %v", step.name, err)
			p.recordStep(run.ID, seq, models.StepStatusFailed, err.Error(), detail)
			p.events.Broadcast(websocket.NewMessage(websocket.EventStepCompleted, websocket.StepEvent{
				RunID:  run.ID,
				Name:   step.name,
				Seq:    seq,
				Status: models.StepStatusFailed,
				Error:  err.Error(),
			}))
			if skipErr := p.store.SkipStepsFrom(run.ID, seq+1); skipErr != nil {
				log.Errorf("failed to skip remaining steps: %v", skipErr)
			}
			runErr = fmt.Errorf("step %s: %w", step.name, err)
			break
		}

		p.recordStep(run.ID, seq, models.StepStatusSucceeded, "", detail)
		p.events.Broadcast(websocket.NewMessage(websocket.EventStepCompleted, websocket.StepEvent{
			RunID:  run.ID,
			Name:   step.name,
			Seq:    seq,
			Status: models.StepStatusSucceeded,
		}))
	}

	status := models.RunStatusSucceeded
	message := ""
	if runErr != nil {
		status = models.RunStatusFailed
		message = runErr.Error()
	}
	if err := p.store.FinishRun(run.ID, status, message); err != nil {
		log.Errorf("failed to finish run: %v", err)
	}

	final, err := p.store.GetRun(run.ID)
	if err != nil {
		final = run
	}
	if runErr != nil {
		log.Errorf("run failed: %v", runErr)
		p.events.Broadcast(websocket.NewMessage(websocket.EventRunFailed, final))
		return
	}
	log.Infof("run completed successfully")
	p.events.Broadcast(websocket.NewMessage(websocket.EventRunCompleted, final))
}

// prepare resolves credentials and provisions the sheet publisher.
func (p *Pipeline) prepare(ctx context.Context, state *runState) (string, error) {
	if p.cfg.Sheets.SpreadsheetID == "" {
		return "", errors.New("sheets.spreadsheet_id is not configured")
	}

	creds, err := secrets.CredentialsJSON(p.env.SheetsCredentials, p.cfg.Sheets.CredentialsFile)
	if err != nil {
		return "", err
	}
	source := "file"
	if p.env.SheetsCredentials != "" {
		source = "environment"
	}

	publisher, err := p.newPublisher(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("failed to build sheet publisher: %w", err)
	}
	state.publisher = publisher

	state.log.Infof("loaded Google Sheets credentials from %s", source)
	return detail(map[string]interface{}{"credential_source": source}), nil
}

// fetch pulls every symbol of every category. Individual symbols may come
// back missing; the step only fails when nothing at all was fetched.
func (p *Pipeline) fetch(ctx context.Context, state *runState) (string, error) {
	total := 0
	missing := 0

	for _, category := range p.categories {
		cq, err := p.client.FetchCategory(ctx, category, state.run.ReportDate)
		if err != nil {
			return "", err
		}
		for _, q := range cq.Quotes {
			if q.Missing {
				state.log.Warnf("no data retrieved for %s", q.Label)
				missing++
			} else {
				state.log.Infof("successfully fetched data for %s", q.Label)
			}
			total++
		}
		state.reports = append(state.reports, cq)
	}

	d := detail(map[string]interface{}{"symbols": total, "missing": missing})
	if total > 0 && missing == total {
		return d, errors.New("no price data was fetched")
	}
	return d, nil
}

// analyze derives commentary per category, consulting the worksheet's
// last record for trend wording, and refreshes the quote snapshot.
func (p *Pipeline) analyze(ctx context.Context, state *runState) (string, error) {
	for i := range state.reports {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		prev := state.publisher.LastRecords(ctx, state.reports[i].Category)
		state.reports[i].Commentary = commentary.For(state.reports[i], prev)
		if p.snapshot != nil {
			p.snapshot.Store(state.reports[i])
		}
	}
	return detail(map[string]interface{}{"categories": len(state.reports)}), nil
}

func (p *Pipeline) publish(ctx context.Context, state *runState) (string, error) {
	if err := state.publisher.Publish(ctx, state.reports); err != nil {
		return "", err
	}
	return detail(map[string]interface{}{"categories": len(state.reports)}), nil
}

func (p *Pipeline) googlePublisher(ctx context.Context, credentialsJSON []byte) (Sheet, error) {
	svc, err := sheets.NewService(ctx, credentialsJSON)
	if err != nil {
		return nil, err
	}
	interval := time.Duration(p.cfg.Sheets.RequestIntervalMS) * time.Millisecond
	return sheets.NewPublisher(svc, p.cfg.Sheets.SpreadsheetID, interval, p.log), nil
}

func (p *Pipeline) recordStep(runID string, seq int, status, errorMessage, stepDetail string) {
	if err := p.store.FinishStep(runID, seq, status, errorMessage, stepDetail); err != nil {
		p.log.Errorf("failed to record step result: %v", err)
	}
}

func detail(fields map[string]interface{}) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(data)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(interface{}) {}
