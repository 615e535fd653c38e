package app

import (
	"github.com/speakle/speakle/internal/gesture"
	"github.com/speakle/speakle/internal/store"
)

// LatestState is the snapshot served to the mobile client.
type LatestState struct {
	FlexLittle float64 `json:"flex_little"`
	FlexRing   float64 `json:"flex_ring"`
	FlexMiddle float64 `json:"flex_middle"`
	FlexIndex  float64 `json:"flex_index"`
	FlexThumb  float64 `json:"flex_thumb"`
	QuatW      float64 `json:"quat_w"`
	QuatX      float64 `json:"quat_x"`
	QuatY      float64 `json:"quat_y"`
	QuatZ      float64 `json:"quat_z"`

	Prediction     int    `json:"prediction"`
	PredictionName string `json:"prediction_name"`
	GestureID      int    `json:"gesture_id"`
	GestureName    string `json:"gesture_name"`
	Timestamp      int64  `json:"timestamp"`
}

// Result is the outcome of one ingested frame.
type Result struct {
	Prediction     gesture.Label
	PredictionName string
	Majority       gesture.Label
	MajorityName   string
}

// GestureUpdate is published whenever the majority gesture changes.
type GestureUpdate struct {
	GestureID   int    `json:"gesture_id"`
	GestureName string `json:"gesture_name"`
	Previous    int    `json:"previous"`
	Prediction  int    `json:"prediction"`
	Timestamp   int64  `json:"timestamp"`
}

// Ingest runs one sensor frame through the pipeline:
//
//  1. Backfill missing fields from the previous frame
//  2. Push into the classifier window and predict
//  3. Push the prediction into the aggregation window
//  4. Replace the latest state
//
// Steps 1-4 run under a single lock so concurrent requests see a
// consistent window. A majority transition is logged and published under
// eventsMu, which is taken before the state lock is released, so the
// event history and relay stream follow the order of state changes.
func (a *App) Ingest(p gesture.PartialFrame) Result {
	a.mu.Lock()
	frame, missing := p.Complete(a.frame)
	prediction := a.classifier.Predict(&frame)
	a.aggregator.Push(prediction)
	majority, _ := a.aggregator.Majority()
	previous := a.majority

	a.frame = frame
	a.prediction = prediction
	a.majority = majority
	a.updated = a.now()
	updated := a.updated

	changed := majority != previous
	if changed {
		a.eventsMu.Lock()
	}
	a.mu.Unlock()

	if len(missing) > 0 {
		a.logger.Debug("backfilled missing fields", "fields", missing)
	}

	if changed {
		a.logger.Info("gesture changed",
			"from", previous.Name(),
			"to", majority.Name(),
			"prediction", prediction.Name(),
		)
		a.recordTransition(majority, prediction)
		a.publish(EventGestureUpdate, GestureUpdate{
			GestureID:   int(majority),
			GestureName: majority.Name(),
			Previous:    int(previous),
			Prediction:  int(prediction),
			Timestamp:   updated.UnixMilli(),
		})
		a.eventsMu.Unlock()
	}

	return Result{
		Prediction:     prediction,
		PredictionName: prediction.Name(),
		Majority:       majority,
		MajorityName:   majority.Name(),
	}
}

// Latest returns a copy of the latest state.
func (a *App) Latest() LatestState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	f := a.frame
	return LatestState{
		FlexLittle:     f.Flex[gesture.SlotLittle],
		FlexRing:       f.Flex[gesture.SlotRing],
		FlexMiddle:     f.Flex[gesture.SlotMiddle],
		FlexIndex:      f.Flex[gesture.SlotIndex],
		FlexThumb:      f.Flex[gesture.SlotThumb],
		QuatW:          f.Quat.W,
		QuatX:          f.Quat.X,
		QuatY:          f.Quat.Y,
		QuatZ:          f.Quat.Z,
		Prediction:     int(a.prediction),
		PredictionName: a.prediction.Name(),
		GestureID:      int(a.majority),
		GestureName:    a.majority.Name(),
		Timestamp:      a.updated.UnixMilli(),
	}
}

func (a *App) recordTransition(majority, prediction gesture.Label) {
	if a.config.Store == nil {
		return
	}
	err := a.config.Store.Events().Create(&store.GestureEvent{
		Label:      int(majority),
		Name:       majority.Name(),
		Prediction: int(prediction),
	})
	if err != nil {
		a.logger.Warn("failed to record gesture event", "error", err)
	}
}
