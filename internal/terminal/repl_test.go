package terminal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestREPL(t *testing.T, handler http.Handler) *REPL {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	r := New(server.URL)
	buf := &bytes.Buffer{}
	r.out = buf
	return r
}

func TestSendMessage_UpdatesSessionAndPrintsAnswer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1"})
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, req *http.Request) {
		var body chatRequestBody
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "sess-1", body.SessionID)
		json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-1", "answer": "took off"})
	})

	r := newTestREPL(t, mux)
	r.sendMessage("take off")

	assert.Equal(t, "sess-1", r.sessionID)
	assert.Contains(t, r.out.(*bytes.Buffer).String(), "took off")
}

func TestPrintStatus_ReportsHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r := newTestREPL(t, mux)
	r.printStatus()

	assert.Contains(t, r.out.(*bytes.Buffer).String(), "healthy")
}

func TestClearSession_ResetsSessionID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions/sess-1", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodDelete, req.Method)
	})

	r := newTestREPL(t, mux)
	r.sessionID = "sess-1"
	r.clearSession()

	assert.Empty(t, r.sessionID)
}

func TestDispatchCommand_Quit(t *testing.T) {
	r := newTestREPL(t, http.NewServeMux())
	assert.True(t, r.dispatchCommand("/quit"))
}

func TestDispatchCommand_Stream(t *testing.T) {
	r := newTestREPL(t, http.NewServeMux())
	assert.False(t, r.stream)
	r.dispatchCommand("/stream")
	assert.True(t, r.stream)
}

func TestConsumeStream_StopsAtDone(t *testing.T) {
	r := newTestREPL(t, http.NewServeMux())
	body := strings.NewReader("data: {\"type\":\"event\"}\n\ndata: [DONE]\n\n")
	r.consumeStream(body)
	assert.Contains(t, r.out.(*bytes.Buffer).String(), "event")
}
