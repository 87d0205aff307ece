package notify

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/failguard/failguard/internal/entity"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ev entity.BanEvent) {
	m.Called(ev)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func event(ip string) entity.BanEvent {
	return entity.NewBanEvent("sshd", ip, entity.BanActionBan, "test", nil, time.Now())
}

func TestDispatchFansOutToAllNotifiers(t *testing.T) {
	a := &MockNotifier{}
	b := &MockNotifier{}
	a.On("Notify", mock.AnythingOfType("entity.BanEvent")).Return()
	b.On("Notify", mock.AnythingOfType("entity.BanEvent")).Return()

	d := NewDispatcher(testLogger(), 0, a, b)
	d.dispatch(event("1.2.3.4"))

	a.AssertNumberOfCalls(t, "Notify", 1)
	b.AssertNumberOfCalls(t, "Notify", 1)
}

func TestRunDeliversQueuedEvents(t *testing.T) {
	n := &MockNotifier{}
	delivered := make(chan entity.BanEvent, 4)
	n.On("Notify", mock.AnythingOfType("entity.BanEvent")).Run(func(args mock.Arguments) {
		delivered <- args.Get(0).(entity.BanEvent)
	}).Return()

	d := NewDispatcher(testLogger(), 0, n)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Notify(event("1.2.3.4"))
	d.Notify(event("5.6.7.8"))

	first := <-delivered
	second := <-delivered
	assert.Equal(t, "1.2.3.4", first.IP)
	assert.Equal(t, "5.6.7.8", second.IP)
}

func TestNotifyDropsWhenQueueFull(t *testing.T) {
	// No Run loop draining: fill the queue past capacity.
	d := NewDispatcher(testLogger(), 0)
	for i := 0; i < 300; i++ {
		d.Notify(event("1.2.3.4"))
	}
	assert.Equal(t, uint64(300-256), d.Dropped())
}
