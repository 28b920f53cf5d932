package parley

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestConfigDefaults(t *testing.T) {
	c := New(Config{URL: "ws://localhost:8080/ws"})

	if c.cfg.MaxRetries != 5 {
		t.Errorf("expected default MaxRetries 5, got %d", c.cfg.MaxRetries)
	}
	if c.cfg.RetryDelay != 2*time.Second {
		t.Errorf("expected default RetryDelay 2s, got %s", c.cfg.RetryDelay)
	}
}

func TestTypedHandlersDecode(t *testing.T) {
	c := New(Config{URL: "ws://unused"})

	var gotMsg Message
	c.OnMessage(func(m Message) { gotMsg = m })
	c.handlers["receive_message"](json.RawMessage(`{"id":7,"sender":"alice","message":"hi"}`))
	if gotMsg.ID != 7 || gotMsg.Sender != "alice" || gotMsg.Body != "hi" {
		t.Errorf("unexpected decoded message: %+v", gotMsg)
	}

	var gotUsers []User
	c.OnUserList(func(u []User) { gotUsers = u })
	c.handlers["user_list"](json.RawMessage(`[{"id":"c1","username":"alice"}]`))
	if len(gotUsers) != 1 || gotUsers[0].Username != "alice" {
		t.Errorf("unexpected decoded user list: %+v", gotUsers)
	}

	var gotNames []string
	c.OnTypingUsers(func(n []string) { gotNames = n })
	c.handlers["typing_users"](json.RawMessage(`["alice","bob"]`))
	if len(gotNames) != 2 {
		t.Errorf("unexpected typing names: %v", gotNames)
	}
}

// stubServer upgrades connections and echoes each inbound envelope back as a
// receive_message event.
func stubServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var env envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			var body map[string]string
			json.Unmarshal(env.Data, &body)
			reply, _ := json.Marshal(Message{ID: 1, Sender: "stub", Body: body["message"]})
			conn.WriteJSON(envelope{Event: "receive_message", Data: reply})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRoundTrip(t *testing.T) {
	srv := stubServer(t)

	c := New(Config{URL: wsURL(srv), MaxRetries: 1, RetryDelay: 10 * time.Millisecond})
	received := make(chan Message, 1)
	c.OnMessage(func(m Message) { received <- m })

	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	if err := c.SendMessage("hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case m := <-received:
		if m.Body != "hello" || m.Sender != "stub" {
			t.Errorf("unexpected echo: %+v", m)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no echo received")
	}
}

func TestReconnectGivesUpAfterMaxRetries(t *testing.T) {
	srv := stubServer(t)

	c := New(Config{URL: wsURL(srv), MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Kill the server so every reconnect attempt fails.
	srv.CloseClientConnections()
	srv.Close()

	select {
	case <-c.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("client did not give up after bounded retries")
	}
}

func TestCloseDoesNotReconnect(t *testing.T) {
	srv := stubServer(t)

	c := New(Config{URL: wsURL(srv), MaxRetries: 5, RetryDelay: time.Minute})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// With reconnection suppressed, Done closes promptly instead of waiting
	// out the retry delays.
	select {
	case <-c.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("client attempted reconnection after Close")
	}
}
