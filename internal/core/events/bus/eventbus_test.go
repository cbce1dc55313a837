package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ int64) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []any
	_, err := b.Subscribe("material.request.loaded", func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("material.request.loaded", "test", 1, nil)))
	require.NoError(t, b.Publish(NewEvent("other", "test", 2, nil)))
	assert.Equal(t, []any{1}, got)
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		_, err := b.Subscribe("e", func(Event) error {
			order = append(order, name)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("e", "s", nil, nil)))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("e", func(Event) error { calls++; return nil })
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())

	require.NoError(t, b.Unsubscribe(sub))
	assert.False(t, sub.IsActive())
	require.NoError(t, b.Publish(NewEvent("e", "s", nil, nil)))
	assert.Equal(t, 0, calls)
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("e", func(Event) error { return errA })
	_, _ = b.Subscribe("e", func(Event) error { return errB })

	err := b.PublishBatch(NewEvent("e", "s", nil, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	assert.Zero(t, b.GetMetrics().Published)

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	m := b.GetMetrics()
	assert.Equal(t, uint64(1), m.Published)
	assert.Equal(t, uint64(1), m.DeliveredHandlers)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	assert.Equal(t, 1, obs.publishCount)
}
