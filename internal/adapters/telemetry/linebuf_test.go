package telemetry_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sift/internal/adapters/telemetry"
)

type collector struct {
	mu      sync.Mutex
	batches []string
}

func (c *collector) emit(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, string(data))
}

func (c *collector) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.batches...)
}

func TestLineBuffer_FlushOnSizeKeepsPartialLine(t *testing.T) {
	c := &collector{}
	b := telemetry.NewLineBuffer(8, time.Hour, c.emit)
	defer func() { _ = b.Close() }()

	_, err := b.Write([]byte("one\ntwo"))
	require.NoError(t, err)
	assert.Empty(t, c.get())

	_, err = b.Write([]byte("\nthr"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one\ntwo\n"}, c.get())

	require.NoError(t, b.Close())
	assert.Equal(t, []string{"one\ntwo\n", "thr"}, c.get())
}

func TestLineBuffer_FlushOnInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &collector{}
		b := telemetry.NewLineBuffer(100, 50*time.Millisecond, c.emit)
		defer func() { _ = b.Close() }()

		_, err := b.Write([]byte("partial"))
		require.NoError(t, err)
		assert.Empty(t, c.get())

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"partial"}, c.get())
	})
}

func TestLineBuffer_ManualFlush(t *testing.T) {
	c := &collector{}
	b := telemetry.NewLineBuffer(100, time.Hour, c.emit)
	defer func() { _ = b.Close() }()

	_, err := b.Write([]byte("hello"))
	require.NoError(t, err)
	b.Flush()
	b.Flush()
	assert.Equal(t, []string{"hello"}, c.get())
}

func TestLineBuffer_WriteAfterClose(t *testing.T) {
	b := telemetry.NewLineBuffer(0, 0, nil)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.Write([]byte("late"))
	assert.ErrorIs(t, err, telemetry.ErrBufferClosed)
}

func TestLineBuffer_ConcurrentWriters(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &collector{}
		b := telemetry.NewLineBuffer(20, 10*time.Millisecond, c.emit)

		const workers, iterations = 10, 100
		var wg sync.WaitGroup
		for range workers {
			wg.Go(func() {
				for j := range iterations {
					_, _ = b.Write([]byte("a\n"))
					if j%20 == 0 {
						time.Sleep(time.Millisecond)
					}
				}
			})
		}
		wg.Wait()
		require.NoError(t, b.Close())

		total := 0
		for _, batch := range c.get() {
			total += len(batch)
		}
		assert.Equal(t, workers*iterations*2, total)
	})
}
