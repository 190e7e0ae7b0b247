package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hoanghai1803/newsluhy/internal/pipeline"
	"github.com/hoanghai1803/newsluhy/internal/search"
	"github.com/hoanghai1803/newsluhy/internal/telegram"
	"github.com/hoanghai1803/newsluhy/internal/text"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type sentMessage struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// testBackends fakes Google Custom Search and the Telegram Bot API and
// records what the pipeline sent to them.
type testBackends struct {
	mu          sync.Mutex
	googleCalls int
	messages    []sentMessage
}

func (b *testBackends) GoogleCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.googleCalls
}

func (b *testBackends) Messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.messages...)
}

// newTestPipeline builds a pipeline whose Google backend returns two results
// and whose notifier records messages. Page fetches fail the test.
func newTestPipeline(t *testing.T) (*pipeline.Pipeline, pipeline.Env, *testBackends) {
	t.Helper()
	b := &testBackends{}

	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.googleCalls++
		b.mu.Unlock()
		w.Write([]byte(`{"items": [
			{"title": "Закон подписан", "link": "https://news.example/1", "snippet": "s"},
			{"title": "Подробности", "link": "https://news.example/2", "snippet": "s"}
		]}`))
	}))
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m sentMessage
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Errorf("decoding telegram request: %v", err)
		}
		b.mu.Lock()
		b.messages = append(b.messages, m)
		b.mu.Unlock()
		w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(func() {
		google.Close()
		tg.Close()
	})

	offline := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Errorf("unexpected page fetch: %s", r.URL)
		return nil, errors.New("offline")
	})}

	p := pipeline.New(pipeline.Deps{
		Normalizer: text.NewNormalizerWithClient(offline),
		Google:     search.NewGoogleClientWithEndpoint(google.URL, google.Client()),
		Notifier:   telegram.NewClientWithBase(tg.URL+"/bot", tg.Client()),
	})
	env := pipeline.Env{GoogleAPIKey: "gkey", GoogleCSEID: "cx"}
	return p, env, b
}
