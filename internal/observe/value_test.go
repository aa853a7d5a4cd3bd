package observe

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_GetReturnsInitial(t *testing.T) {
	v := NewValue(42)
	assert.Equal(t, 42, v.Get())
}

func TestValue_PublishUpdatesAndNotifies(t *testing.T) {
	v := NewValue(0)

	var seen []int
	v.Subscribe(func(val int) { seen = append(seen, val) })

	v.Publish(1)
	v.Publish(2)

	assert.Equal(t, 2, v.Get())
	assert.Equal(t, []int{1, 2}, seen)
}

func TestValue_SubscribeDoesNotReplayCurrent(t *testing.T) {
	v := NewValue(7)

	var calls int
	v.Subscribe(func(int) { calls++ })

	assert.Zero(t, calls)
}

func TestValue_Unsubscribe(t *testing.T) {
	v := NewValue(0)

	var calls int
	cancel := v.Subscribe(func(int) { calls++ })

	v.Publish(1)
	cancel()
	v.Publish(2)

	assert.Equal(t, 1, calls)
}

func TestValue_Update(t *testing.T) {
	v := NewValue(10)
	v.Update(func(cur int) int { return cur + 5 })
	assert.Equal(t, 15, v.Get())
}

func TestValue_ConcurrentUpdatesAllApply(t *testing.T) {
	const (
		goroutines = 100
		rounds     = 200
	)
	v := NewValue(0)

	for range rounds {
		start := make(chan struct{})
		var wg sync.WaitGroup
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				v.Update(func(cur int) int { return cur + 1 })
			}()
		}
		close(start)
		wg.Wait()
	}

	assert.Equal(t, goroutines*rounds, v.Get())
}

func TestValue_SubscriberMayReadCurrent(t *testing.T) {
	v := NewValue(0)

	var observed int
	v.Subscribe(func(int) { observed = v.Get() })

	v.Publish(3)
	assert.Equal(t, 3, observed)
}
