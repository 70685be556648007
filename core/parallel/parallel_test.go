package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryItemOnce(t *testing.T) {
	for _, items := range []int{1, 3, 17, 1000} {
		visits := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&visits[i], 1)
			}
		})
		for i, v := range visits {
			assert.Equal(t, int32(1), v, "item %d of %d", i, items)
		}
	}
}

func TestParallelizeWithThresholdRunsSequentially(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestParallelizeNoItems(t *testing.T) {
	called := false
	Parallelize(0, func(int, int) { called = true })
	ParallelizeWithThreshold(0, 10, func(int, int) { called = true })
	assert.False(t, called)
}
