package krill

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarrierReleasesAllParties(t *testing.T) {
	const parties = 4
	const phases = 50
	b := newBarrier(parties)

	var counter atomic.Int64
	var wg sync.WaitGroup
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < phases; i++ {
				counter.Add(1)
				b.wait()
				// After the barrier every party must observe all increments
				// of the finished phase.
				if got := counter.Load(); got < int64((i+1)*parties) {
					t.Errorf("phase %d: observed %d increments", i, got)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, parties*phases, counter.Load())
}

func TestBarrierSingleParty(t *testing.T) {
	b := newBarrier(1)
	done := make(chan struct{})
	go func() {
		b.wait()
		b.wait()
		close(done)
	}()
	<-done
}
