package locate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceGenerator_Concurrent(t *testing.T) {
	var seq SequenceGenerator
	const workers, perWorker = 8, 250

	ids := make(chan uint64, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- seq.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, workers*perWorker)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate sequence id %d", id)
		}
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), seq.Next())
}

func TestRefineDistance(t *testing.T) {
	t.Run("adopts estimate without prior", func(t *testing.T) {
		o := &Observation{Landmark: Landmark{HeightOffset: 3}}
		d, err := o.RefineDistance(6)
		require.NoError(t, err)
		assert.Equal(t, 6.0, d)
		require.True(t, o.HasDistance())
		assert.Equal(t, 6.0, *o.Distance)
	})

	t.Run("projects prior and averages", func(t *testing.T) {
		prior := 5.0
		o := &Observation{Distance: &prior, Landmark: Landmark{HeightOffset: 3}}
		// 5m slant range with 3m height is 4m on the ground; (4+6)/2.
		d, err := o.RefineDistance(6)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, d, 1e-9)
		assert.InDelta(t, 5.0, *o.Distance, 1e-9)
		assert.Equal(t, 5.0, prior, "caller's value must not change")
	})

	t.Run("zero height averages raw values", func(t *testing.T) {
		prior := 4.0
		o := &Observation{Distance: &prior}
		d, err := o.RefineDistance(5)
		require.NoError(t, err)
		assert.InDelta(t, 4.5, d, 1e-12)
	})

	t.Run("height above distance", func(t *testing.T) {
		prior := 5.0
		o := &Observation{Distance: &prior, Landmark: Landmark{HeightOffset: 6}}
		_, err := o.RefineDistance(6)
		assert.ErrorIs(t, err, ErrHeightOffsetDomain)
		assert.Equal(t, 5.0, *o.Distance)
	})

	t.Run("zero prior", func(t *testing.T) {
		prior := 0.0
		o := &Observation{Distance: &prior, Landmark: Landmark{HeightOffset: 1}}
		_, err := o.RefineDistance(2)
		assert.ErrorIs(t, err, ErrHeightOffsetDomain)
	})
}

func TestObservationClone(t *testing.T) {
	d := 3.0
	o := &Observation{SequenceID: 7, Bearing: 12, Distance: &d, Landmark: Landmark{Color: Blue}}
	c := o.clone()

	_, err := c.RefineDistance(5)
	require.NoError(t, err)
	assert.Equal(t, 3.0, *o.Distance)
	assert.Equal(t, 4.0, *c.Distance)
	assert.Equal(t, o.SequenceID, c.SequenceID)

	empty := (&Observation{}).clone()
	assert.False(t, empty.HasDistance())
}

func TestObservationString(t *testing.T) {
	d := 2.5
	o := &Observation{SequenceID: 3, Bearing: -45, Distance: &d, Landmark: Landmark{Color: Green}}
	assert.Equal(t, "#3 green @-45.00° d=2.500", o.String())

	o.Distance = nil
	assert.Equal(t, "#3 green @-45.00° d=?", o.String())
}
