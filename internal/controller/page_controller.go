// Package controller owns the per-visitor page state: the selected file, the
// latest prediction and the loading flag, plus the timer-driven mock analysis
// that moves between them.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-livestock-classifier/internal/analyzer"
	"go-livestock-classifier/internal/logger"
	"go-livestock-classifier/internal/observer"
	"go-livestock-classifier/internal/repository"
	"go-livestock-classifier/internal/upload"
	"go-livestock-classifier/pkg/models"
)

const previewPathPrefix = "/preview/"

// PreviewURL is the page-relative URL under which a preview is served.
func PreviewURL(id string) string {
	return previewPathPrefix + id
}

// Dependencies are shared by every controller of the process.
type Dependencies struct {
	Classifier analyzer.Classifier
	Renderer   analyzer.PreviewRenderer
	Previews   repository.PreviewRepository
	Pool       *analyzer.WorkerPool // nil runs completions on the timer goroutine
	Events     observer.Subject
}

type pendingAnalysis struct {
	timer       *time.Timer
	file        upload.File
	scheduledAt time.Time
}

// PageController is the state record behind one rendered page.
type PageController struct {
	id   string
	deps Dependencies
	opts analyzer.AnalysisOptions

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	selected   *upload.File
	result     *models.PredictionResult
	isLoading  bool
	previewID  string
	version    uint64
	generation uint64
	pending    map[uint64]*pendingAnalysis
	closed     bool
	lastActive time.Time

	watchers    map[uint64]chan models.PageState
	nextWatcher uint64
}

// New creates a controller for session id.
func New(id string, deps Dependencies, opts analyzer.AnalysisOptions) *PageController {
	if deps.Events == nil {
		deps.Events = observer.NopSubject{}
	}
	if deps.Classifier == nil {
		deps.Classifier = analyzer.NewMockClassifier()
	}
	if deps.Renderer == nil {
		deps.Renderer = analyzer.NewPreviewRenderer(opts)
	}
	if deps.Previews == nil {
		deps.Previews = repository.NewMemoryPreviewRepository()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PageController{
		id:         id,
		deps:       deps,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		pending:    make(map[uint64]*pendingAnalysis),
		watchers:   make(map[uint64]chan models.PageState),
		lastActive: time.Now(),
		// Pages outlive controllers; a replacement controller for the same
		// session must start ahead of any version the page already applied.
		version: uint64(time.Now().UnixMilli()),
	}
}

// ID returns the session ID the controller belongs to.
func (c *PageController) ID() string {
	return c.id
}

// SelectFile stores file as the current selection and, unless manual analysis
// is configured, schedules a mock analysis of it.
func (c *PageController) SelectFile(file upload.File) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.lastActive = time.Now()
	c.selected = &file

	var superseded int
	if c.opts.AutoAnalyze {
		superseded = c.scheduleLocked(file)
	}
	c.changedLocked()
	c.mu.Unlock()

	c.publish(observer.FileSelected, file.Name, 0, map[string]interface{}{
		"media_type": file.MediaType,
		"size":       file.Size,
	})
	c.publishScheduling(file, c.opts.AutoAnalyze, superseded)
}

// Analyze re-runs the mock analysis on the current selection. It reports
// false and does nothing when no file is selected.
func (c *PageController) Analyze() bool {
	c.mu.Lock()
	if c.closed || c.selected == nil {
		c.mu.Unlock()
		return false
	}
	c.lastActive = time.Now()
	file := *c.selected
	superseded := c.scheduleLocked(file)
	c.changedLocked()
	c.mu.Unlock()

	c.publishScheduling(file, true, superseded)
	return true
}

// Ignore records a drop that carried no image. The page state is untouched.
func (c *PageController) Ignore(fileCount int) {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()

	c.publish(observer.FileIgnored, "", 0, map[string]interface{}{"file_count": fileCount})
}

// scheduleLocked starts the completion timer for file and returns how many
// pending analyses it stopped.
func (c *PageController) scheduleLocked(file upload.File) int {
	superseded := 0
	if c.opts.SupersedePending {
		for gen, p := range c.pending {
			p.timer.Stop()
			delete(c.pending, gen)
			superseded++
		}
	}

	c.generation++
	gen := c.generation
	p := &pendingAnalysis{file: file, scheduledAt: time.Now()}
	// fire blocks on c.mu until this assignment is visible.
	p.timer = time.AfterFunc(c.opts.Delay, func() { c.fire(gen) })
	c.pending[gen] = p
	c.isLoading = true
	return superseded
}

func (c *PageController) fire(gen uint64) {
	c.mu.Lock()
	p, ok := c.pending[gen]
	closed := c.closed
	c.mu.Unlock()
	if !ok || closed {
		return
	}

	job := func() { c.complete(gen, p) }
	if c.deps.Pool == nil || !c.deps.Pool.Submit(job) {
		job()
	}
}

func (c *PageController) complete(gen uint64, p *pendingAnalysis) {
	log := logger.ForSession(c.id).WithFields(logrus.Fields{"file": p.file.Name, "generation": gen})

	result, err := c.deps.Classifier.Classify(c.ctx, p.file)
	if err != nil {
		log.WithError(err).Warn("Classifier failed, keeping previous result")
		c.mu.Lock()
		if _, ok := c.pending[gen]; ok && !c.closed {
			delete(c.pending, gen)
			c.isLoading = len(c.pending) > 0
			c.changedLocked()
		}
		c.mu.Unlock()
		return
	}

	data, mediaType := c.deps.Renderer.Render(p.file)
	previewID, err := c.deps.Previews.Put(c.ctx, c.id, data, mediaType)
	if err != nil {
		log.WithError(err).Debug("No preview stored for analysis")
		previewID = ""
	}
	if previewID != "" {
		result.ImageURL = PreviewURL(previewID)
	}

	c.mu.Lock()
	if _, ok := c.pending[gen]; !ok || c.closed {
		c.mu.Unlock()
		c.revokePreview(previewID)
		c.publish(observer.AnalysisSuperseded, p.file.Name, 0, map[string]interface{}{"stage": "completion"})
		return
	}
	delete(c.pending, gen)

	replaced := c.previewID
	c.result = &result
	c.previewID = previewID
	// Every completion clears the flag, including in last-writer-wins mode
	// where other timers may still be pending.
	c.isLoading = false
	c.changedLocked()
	c.mu.Unlock()

	if replaced != "" && replaced != previewID {
		c.revokePreview(replaced)
	}

	c.publish(observer.AnalysisCompleted, p.file.Name, time.Since(p.scheduledAt), map[string]interface{}{
		"animal_type":      result.AnimalType,
		"breed":            result.Breed,
		"type_confidence":  result.TypeConfidence,
		"breed_confidence": result.BreedConfidence,
	})
}

func (c *PageController) revokePreview(id string) {
	if id == "" {
		return
	}
	if err := c.deps.Previews.Revoke(context.Background(), id); err != nil {
		logger.ForSession(c.id).WithError(err).Debug("Preview already gone")
	}
}

// Snapshot returns the current state.
func (c *PageController) Snapshot() models.PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *PageController) snapshotLocked() models.PageState {
	state := models.PageState{
		IsLoading: c.isLoading,
		Version:   c.version,
	}
	if c.selected != nil {
		state.SelectedFile = &models.SelectedFile{
			ID:        c.selected.ID,
			Name:      c.selected.Name,
			Size:      c.selected.Size,
			MediaType: c.selected.MediaType,
		}
	}
	if c.result != nil {
		r := *c.result
		state.Result = &r
	}
	return state
}

// SelectedFile returns the bytes and metadata of the current selection.
func (c *PageController) SelectedFile() (upload.File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return upload.File{}, false
	}
	return *c.selected, true
}

// OwnsPreview reports whether the preview belongs to this controller.
func (c *PageController) OwnsPreview(p *repository.Preview) bool {
	return p != nil && p.Owner == c.id
}

// Watch streams state snapshots. The channel first receives the current
// state and afterwards only the latest state if the reader falls behind.
// It is closed by the returned stop function or when the controller closes.
func (c *PageController) Watch() (<-chan models.PageState, func()) {
	ch := make(chan models.PageState, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = ch
	ch <- c.snapshotLocked()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if w, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(w)
		}
	}
}

// Watching reports whether any client is subscribed to state pushes.
func (c *PageController) Watching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers) > 0
}

// LastActive is the time of the last user-triggered operation.
func (c *PageController) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Touch marks the controller as in use without changing its state.
func (c *PageController) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Closed reports whether Close has been called.
func (c *PageController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close cancels pending analyses, drops the state and revokes all previews.
func (c *PageController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancelled := len(c.pending)
	for gen, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, gen)
	}
	c.selected = nil
	c.result = nil
	c.previewID = ""
	c.isLoading = false
	for id, w := range c.watchers {
		delete(c.watchers, id)
		close(w)
	}
	c.mu.Unlock()

	c.cancel()
	revoked := c.deps.Previews.RevokeOwner(context.Background(), c.id)
	c.publish(observer.SessionClosed, "", 0, map[string]interface{}{
		"cancelled_analyses": cancelled,
		"revoked_previews":   revoked,
	})
}

// changedLocked bumps the version and pushes the new state to watchers.
func (c *PageController) changedLocked() {
	c.version++
	state := c.snapshotLocked()
	for _, w := range c.watchers {
		select {
		case w <- state:
		default:
			// Replace the unread state; c.mu makes this the only sender.
			select {
			case <-w:
			default:
			}
			w <- state
		}
	}
}

func (c *PageController) publishScheduling(file upload.File, scheduled bool, superseded int) {
	if superseded > 0 {
		c.publish(observer.AnalysisSuperseded, file.Name, 0, map[string]interface{}{
			"stage": "timer",
			"count": superseded,
		})
	}
	if scheduled {
		c.publish(observer.AnalysisScheduled, file.Name, 0, map[string]interface{}{
			"delay_ms": c.opts.Delay.Milliseconds(),
		})
	}
}

func (c *PageController) publish(t observer.EventType, fileName string, took time.Duration, meta map[string]interface{}) {
	c.deps.Events.NotifyObservers(context.Background(), observer.PageEvent{
		EventType:      t,
		SessionID:      c.id,
		FileName:       fileName,
		ProcessingTime: took,
		Metadata:       meta,
	})
}
