package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishToSessionSubscribers(t *testing.T) {
	h := NewHub()
	a, unsubA := h.Subscribe("a")
	b, unsubB := h.Subscribe("b")
	defer unsubB()

	h.Publish(Event{Session: "a", Step: "extract", State: EventStarted})

	select {
	case ev := <-a:
		assert.Equal(t, "extract", ev.Step)
		assert.NotZero(t, ev.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("expected event for session a")
	}
	select {
	case ev := <-b:
		t.Fatalf("unexpected event for session b: %+v", ev)
	default:
	}

	unsubA()
	unsubA()
	assert.Zero(t, h.subscribers("a"))
	_, ok := <-a
	assert.False(t, ok)
}

func TestHub_DropsWhenSubscriberIsSlow(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe("s")
	defer unsub()
	for i := 0; i < 100; i++ {
		h.Publish(Event{Session: "s", Step: "x"})
	}
	assert.Equal(t, cap(ch), len(ch))
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe("s")
	h.Close()
	_, ok := <-ch
	assert.False(t, ok)
	unsub()

	late, _ := h.Subscribe("s")
	_, ok = <-late
	assert.False(t, ok)
}

func TestEventsWebsocket(t *testing.T) {
	h := newHarness(t)
	id := h.createSession()

	ts := httptest.NewServer(h.srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return h.srv.events.subscribers(id) == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := http.Post(ts.URL+"/api/sessions/"+id+"/audio", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var started, failed Event
	require.NoError(t, conn.ReadJSON(&started))
	require.NoError(t, conn.ReadJSON(&failed))
	assert.Equal(t, Event{Session: id, Step: "extract", State: EventStarted, Timestamp: started.Timestamp}, started)
	assert.Equal(t, EventFailed, failed.State)
	assert.Equal(t, "no video uploaded", failed.Error)
}

func TestEventsWebsocket_UnknownSession(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv.Handler())
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/sessions/nope/events", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
