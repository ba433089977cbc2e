package eventbus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/infra/eventbus"
)

// S5: capacity 4, ten updates back to back with no consumer draining:
// first 4 delivered, 6 dropped, then a BufferOverflow{dropped_count:6}
// once the consumer starts draining.
func TestOverflowDropNewestAndScheduleBufferOverflow(t *testing.T) {
	bus := eventbus.New(4)
	for i := 0; i < 10; i++ {
		bus.Publish(domain.NewHeartbeatEvent())
	}
	assert.Equal(t, uint64(6), bus.Dropped())

	var drained []domain.Event
	for i := 0; i < 4; i++ {
		drained = append(drained, <-bus.Events())
	}
	for _, evt := range drained {
		assert.Equal(t, domain.EventHeartbeat, evt.Kind)
	}

	// space is now free; the next publish flushes the scheduled overflow
	// event ahead of the new one.
	bus.Publish(domain.NewHeartbeatEvent())
	overflow := <-bus.Events()
	require.Equal(t, domain.EventBufferOverflow, overflow.Kind)
	require.NotNil(t, overflow.BufferOverflow)
	assert.Equal(t, uint64(6), overflow.BufferOverflow.DroppedCount)

	next := <-bus.Events()
	assert.Equal(t, domain.EventHeartbeat, next.Kind)
}

func TestNoOverflowWhenConsumerKeepsUp(t *testing.T) {
	bus := eventbus.New(2)
	bus.Publish(domain.NewHeartbeatEvent())
	<-bus.Events()
	bus.Publish(domain.NewHeartbeatEvent())
	<-bus.Events()
	assert.Equal(t, uint64(0), bus.Dropped())
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := eventbus.New(1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(domain.NewHeartbeatEvent())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-bus.Events():
	}
}
