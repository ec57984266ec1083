package wsconn

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/drivebridge/internal/transport"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			mt, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, payload); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDialSendRoundTripsOneFrame(t *testing.T) {
	srv := newEchoServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	tr, err := Dial(wsURL, DialOptions{Timeout: time.Second}, func(error) {})
	require.NoError(t, err)
	tr.Start()
	defer tr.Close()

	require.NoError(t, tr.Send(transport.Request{ID: 1, GUID: "g", Method: "ping"}))

	select {
	case msg := <-tr.Inbound():
		require.NotNil(t, msg)
		require.Equal(t, "ping", msg.Method)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed frame")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := newEchoServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	tr, err := Dial(wsURL, DialOptions{}, func(error) {})
	require.NoError(t, err)
	tr.Start()

	tr.Close()
	tr.Close()
}
