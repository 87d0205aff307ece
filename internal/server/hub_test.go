package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/failguard/failguard/internal/entity"
)

func TestHubClosesClientsOnShutdown(t *testing.T) {
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	go hub.Run(ctx)

	c := &client{hub: hub, send: make(chan []byte, 64)}
	select {
	case hub.register <- c:
	case <-time.After(time.Second):
		t.Fatal("hub did not accept client registration")
	}

	hub.Notify(entity.NewBanEvent("sshd", "203.0.113.5", entity.BanActionBan, "test", nil, time.Now()))
	select {
	case data := <-c.send:
		assert.Contains(t, string(data), "203.0.113.5")
	case <-time.After(time.Second):
		t.Fatal("event never reached the client")
	}

	cancel()

	// Shutdown closes the client's send channel, stopping its write pump.
	select {
	case _, open := <-c.send:
		require.False(t, open, "send channel still open after shutdown")
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after shutdown")
	}

	// Late registrations are refused instead of blocking forever.
	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("done channel not closed after shutdown")
	}
}
