package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/detector"
	"github.com/speakle/speakle/internal/log"
	"github.com/speakle/speakle/internal/server"
	"github.com/speakle/speakle/internal/speech"
	"github.com/speakle/speakle/internal/store"
)

const (
	byeFrame  = `{"flex_little":900,"flex_ring":900,"flex_middle":900,"flex_index":900,"flex_thumb":900,"quat_w":1,"quat_x":0,"quat_y":0,"quat_z":0}`
	idleFrame = `{"flex_little":1500,"flex_ring":1500,"flex_middle":1500,"flex_index":1500,"flex_thumb":1500,"quat_w":1,"quat_x":0,"quat_y":0,"quat_z":0}`
)

type fixture struct {
	ts       *httptest.Server
	client   *http.Client
	store    *store.Store
	speech   *speech.Mock
	detector *detector.MockController
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	mock := speech.NewMock()
	ctrl := detector.NewMockController()
	hub := server.NewHub(log.Discard())
	go hub.Run()
	t.Cleanup(hub.Close)

	a := app.New(app.Config{
		Store:     s,
		Speech:    mock,
		Detector:  ctrl,
		Publisher: hub,
		Logger:    log.Discard(),
	})
	srv := server.New(server.Config{App: a, Hub: hub, Logger: log.Discard()})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, client: ts.Client(), store: s, speech: mock, detector: ctrl}
}

func (f *fixture) postJSON(t *testing.T, path, body string) map[string]interface{} {
	t.Helper()
	resp, err := f.client.Post(f.ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	defer resp.Body.Close()
	return decode(t, resp)
}

func (f *fixture) get(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	resp, err := f.client.Get(f.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	return decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	return out
}

func TestE2E_GloveSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	f := newFixture(t)

	t.Run("IdleSpeakIsSilent", func(t *testing.T) {
		got := f.get(t, "/speak")
		if got["speak"] != false {
			t.Errorf("speak = %v, want false", got["speak"])
		}
		if n := f.speech.CallCount("Synthesize"); n != 0 {
			t.Errorf("Synthesize called %d times, want 0", n)
		}
	})

	t.Run("FistPredictsBye", func(t *testing.T) {
		var got map[string]interface{}
		for i := 0; i < 5; i++ {
			got = f.postJSON(t, "/predict", byeFrame)
		}
		if got["prediction"] != float64(3) || got["prediction_name"] != "bye" {
			t.Errorf("prediction = %v %v, want 3 bye", got["prediction"], got["prediction_name"])
		}
	})

	t.Run("MajoritySettles", func(t *testing.T) {
		var got map[string]interface{}
		for i := 0; i < 5; i++ {
			got = f.postJSON(t, "/predict", byeFrame)
		}
		if got["most_frequent_name"] != "bye" {
			t.Errorf("most_frequent_name = %v, want bye", got["most_frequent_name"])
		}

		data := f.get(t, "/data")
		if data["gesture_name"] != "bye" || data["flex_thumb"] != float64(900) {
			t.Errorf("unexpected data %v", data)
		}
	})

	t.Run("SpeakSaysGoodbye", func(t *testing.T) {
		got := f.get(t, "/speak")
		if got["speak"] != true || got["text"] != "Goodbye" {
			t.Errorf("unexpected speak response %v", got)
		}
		if call := f.speech.LastCall(); call == nil || call.Text != "Goodbye" {
			t.Errorf("unexpected synth call %+v", call)
		}
	})

	t.Run("IdleHandReturnsToScanning", func(t *testing.T) {
		var got map[string]interface{}
		for i := 0; i < 20; i++ {
			got = f.postJSON(t, "/predict", idleFrame)
		}
		if got["most_frequent_name"] != "scanning" {
			t.Errorf("most_frequent_name = %v, want scanning", got["most_frequent_name"])
		}
	})

	t.Run("HistoryRecorded", func(t *testing.T) {
		n, err := f.store.Events().Count()
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n < 3 {
			t.Errorf("expected at least 3 transitions, got %d", n)
		}
	})
}

func TestE2E_ConversationLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	f := newFixture(t)

	started := f.postJSON(t, "/api/conversation/start", `{"userId":"glove-1"}`)
	id, _ := started["conversationId"].(string)
	if id == "" {
		t.Fatalf("missing conversationId in %v", started)
	}

	reply := f.postJSON(t, "/api/chat", `{"message":"hello"}`)
	if reply["response"] != "reply: hello" {
		t.Errorf("response = %v", reply["response"])
	}

	ended := f.postJSON(t, "/api/conversation/end", `{"conversationId":"`+id+`"}`)
	conv, _ := ended["conversation"].(map[string]interface{})
	if conv["status"] != "completed" {
		t.Errorf("status = %v, want completed", conv["status"])
	}

	actions := f.detector.Actions()
	if len(actions) != 2 || actions[0] != detector.ActionStart || actions[1] != detector.ActionStop {
		t.Errorf("detector actions = %v", actions)
	}

	health := f.get(t, "/api/health")
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}
}
