package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PageEvent is something that happened to one visitor's page controller
type PageEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	SessionID      string                 `json:"session_id"`
	FileName       string                 `json:"file_name,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of page event
type EventType string

const (
	// FileSelected when the upload control hands over an image
	FileSelected EventType = "file_selected"
	// FileIgnored when a drop or pick contained no image
	FileIgnored EventType = "file_ignored"
	// AnalysisScheduled when a mock analysis timer starts
	AnalysisScheduled EventType = "analysis_scheduled"
	// AnalysisCompleted when a mock result is written to the page state
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisSuperseded when a pending analysis is dropped for a newer one
	AnalysisSuperseded EventType = "analysis_superseded"
	// SessionClosed when a controller is torn down
	SessionClosed EventType = "session_closed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PageEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PageEvent)
}

// LoggingObserver logs page events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles page events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PageEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"session_id": event.SessionID,
	}
	if event.FileName != "" {
		fields["file_name"] = event.FileName
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case FileSelected:
		entry.Info("Image selected")
	case FileIgnored:
		entry.Debug("Drop without image ignored")
	case AnalysisScheduled:
		entry.Debug("Mock analysis scheduled")
	case AnalysisCompleted:
		entry.Info("Mock analysis completed")
	case AnalysisSuperseded:
		entry.Debug("Pending analysis superseded")
	case SessionClosed:
		entry.Info("Page session closed")
	default:
		entry.Info("Page event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from page events
type MetricsObserver struct {
	mu                  sync.RWMutex
	filesSelected       int64
	filesIgnored        int64
	analysesScheduled   int64
	analysesCompleted   int64
	analysesSuperseded  int64
	sessionsClosed      int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles page events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PageEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case FileSelected:
		o.filesSelected++
	case FileIgnored:
		o.filesIgnored++
	case AnalysisScheduled:
		o.analysesScheduled++
	case AnalysisCompleted:
		o.analysesCompleted++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisSuperseded:
		o.analysesSuperseded++
	case SessionClosed:
		o.sessionsClosed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.analysesCompleted > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.analysesCompleted)
	}

	return map[string]interface{}{
		"files_selected":         o.filesSelected,
		"files_ignored":          o.filesIgnored,
		"analyses_scheduled":     o.analysesScheduled,
		"analyses_completed":     o.analysesCompleted,
		"analyses_superseded":    o.analysesSuperseded,
		"sessions_closed":        o.sessionsClosed,
		"avg_processing_time_ms": avgProcessingTime.Milliseconds(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PageEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// NopSubject drops every event.
type NopSubject struct{}

func (NopSubject) Subscribe(Observer)                         {}
func (NopSubject) Unsubscribe(Observer)                       {}
func (NopSubject) NotifyObservers(context.Context, PageEvent) {}
