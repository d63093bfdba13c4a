package natsserver

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

func TestTokenAuth(t *testing.T) {
	token := "test-secret-token"

	srv, err := New(Config{Host: "127.0.0.1", Port: -1, Token: token}, zerolog.Nop())
	if err != nil {
		t.Fatalf("start server: %v", err)
	}
	defer srv.Shutdown()

	url := srv.ClientURL()

	if nc, err := nats.Connect(url); err == nil {
		nc.Close()
		t.Fatal("expected connection without token to fail")
	}
	if nc, err := nats.Connect(url, nats.Token("wrong-token")); err == nil {
		nc.Close()
		t.Fatal("expected connection with wrong token to fail")
	}
	nc, err := nats.Connect(url, nats.Token(token))
	if err != nil {
		t.Fatalf("expected connection with correct token to succeed: %v", err)
	}
	nc.Close()
}

func TestInProcessOnly(t *testing.T) {
	srv, err := New(Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("start server: %v", err)
	}
	defer srv.Shutdown()

	received := make(chan []byte, 1)
	sub, err := srv.Conn().Subscribe("rover.events.test", func(m *nats.Msg) { received <- m.Data })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	srv.Conn().Publish("rover.events.test", []byte("ping"))
	srv.Conn().Flush()

	select {
	case data := <-received:
		if string(data) != "ping" {
			t.Errorf("data = %q, want ping", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}
