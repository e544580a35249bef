package redis

import (
	"context"
	"errors"
	"testing"

	"sysbro/internal/domain"
	"sysbro/internal/event"
	"sysbro/internal/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appendCall struct {
	stream  string
	payload any
	maxLen  int64
}

type fakeAppender struct {
	calls []appendCall
	err   error
}

func (f *fakeAppender) Append(_ context.Context, stream string, payload any, maxLen int64) (string, error) {
	f.calls = append(f.calls, appendCall{stream, payload, maxLen})
	return "1-0", f.err
}

func TestStreamPublisherRoutesEvents(t *testing.T) {
	fake := &fakeAppender{}
	bus := event.New(logger.Nop())
	NewStreamPublisher(fake, logger.Nop()).Attach(bus)

	snap := domain.Snapshot{CPUPercent: 12.5}
	rec := domain.ProbeRecord{State: domain.ProbeSucceeded}

	bus.Publish(domain.EventSnapshotCollected{Snapshot: snap})
	bus.Publish(domain.EventProbeFinished{Record: rec})
	bus.Publish(domain.EventProbeSample{})

	require.Len(t, fake.calls, 2)
	assert.Equal(t, appendCall{SnapshotStream, snap, snapshotMaxLen}, fake.calls[0])
	assert.Equal(t, appendCall{ProbeStream, rec, probeMaxLen}, fake.calls[1])
}

func TestStreamPublisherSwallowsErrors(t *testing.T) {
	fake := &fakeAppender{err: errors.New("connection refused")}
	bus := event.New(logger.Nop())
	NewStreamPublisher(fake, logger.Nop()).Attach(bus)

	assert.NotPanics(t, func() {
		bus.Publish(domain.EventSnapshotCollected{})
	})
	assert.Len(t, fake.calls, 1)
}

func TestRegistryAppendRejectsUnencodablePayload(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { client.Close() })

	_, err := NewRegistry(client).Append(context.Background(), SnapshotStream, make(chan int), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
}
