// Package app provides the gesture service that sits between the glove
// firmware, the speech provider and the mobile client.
package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/speakle/speakle/internal/detector"
	"github.com/speakle/speakle/internal/gesture"
	"github.com/speakle/speakle/internal/log"
	"github.com/speakle/speakle/internal/speech"
	"github.com/speakle/speakle/internal/store"
)

// DefaultSpeechTimeout bounds a single remote speech call.
const DefaultSpeechTimeout = 30 * time.Second

// Relay event names.
const (
	EventGestureUpdate  = "gestureUpdate"
	EventStartDetection = "startDetection"
	EventStopDetection  = "stopDetection"
)

// Publisher fans events out to connected clients.
type Publisher interface {
	Publish(event string, data interface{})
}

// Config holds the collaborators of an App. Everything except the gesture
// options is optional.
type Config struct {
	Gesture       gesture.Options
	AggregateSize int

	Store     *store.Store
	Speech    speech.Provider
	Detector  detector.Controller
	Publisher Publisher

	SpeechTimeout time.Duration
	Logger        *slog.Logger
}

// App is the gesture service. It owns the classifier window, the
// aggregation window and the latest-state cache.
type App struct {
	config     Config
	classifier *gesture.Classifier
	aggregator *gesture.Aggregator
	logger     *slog.Logger
	now        func() time.Time
	started    time.Time

	mu         sync.RWMutex
	frame      gesture.SensorFrame
	prediction gesture.Label
	majority   gesture.Label
	updated    time.Time

	// eventsMu orders transition writes. It is acquired while mu is held,
	// never the other way round.
	eventsMu sync.Mutex
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.SpeechTimeout <= 0 {
		config.SpeechTimeout = DefaultSpeechTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = log.L()
	}

	a := &App{
		config:     config,
		classifier: gesture.NewClassifier(config.Gesture),
		aggregator: gesture.NewAggregator(config.AggregateSize),
		logger:     logger.With("component", "app"),
		now:        time.Now,
	}
	a.started = a.now()
	a.resetLocked()
	return a
}

// Reset clears both windows and restores the idle state.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetLocked()
	a.logger.Info("gesture pipeline reset")
}

func (a *App) resetLocked() {
	a.classifier.Reset()
	a.aggregator.Reset()
	a.frame = gesture.IdleFrame()
	a.prediction = gesture.LabelScanning
	a.majority = gesture.LabelScanning
	a.updated = a.now()
}

// SpeechConfigured reports whether a speech provider is available.
func (a *App) SpeechConfigured() bool {
	return a.config.Speech != nil
}

// Uptime returns the time since the App was created.
func (a *App) Uptime() time.Duration {
	return a.now().Sub(a.started)
}

// History returns recent majority transitions, newest first.
func (a *App) History(limit int) ([]*store.GestureEvent, error) {
	if a.config.Store == nil {
		return []*store.GestureEvent{}, nil
	}
	return a.config.Store.Events().ListRecent(limit)
}

// Utterances returns recent syntheses, newest first.
func (a *App) Utterances(limit int) ([]*store.Utterance, error) {
	if a.config.Store == nil {
		return []*store.Utterance{}, nil
	}
	return a.config.Store.Utterances().ListRecent(limit)
}

func (a *App) publish(event string, data interface{}) {
	if a.config.Publisher == nil {
		return
	}
	a.config.Publisher.Publish(event, data)
}
