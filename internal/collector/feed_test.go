package collector

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDrainPreservesOrder(t *testing.T) {
	f := NewFeed()

	f.Publish("first")
	f.Publish("second")
	f.Publish("third")

	got := f.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Msg)
	assert.Equal(t, "second", got[1].Msg)
	assert.Equal(t, "third", got[2].Msg)

	// Drain 이후 큐는 비어 있다
	assert.Nil(t, f.Drain())
}

func TestFeedConcurrentPublishLosesNothing(t *testing.T) {
	f := NewFeed()

	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				f.Publish(fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()

	assert.Len(t, f.Drain(), producers*perProducer)
}
