package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dalessandro07/bancopoly/internal/model"
)

func TestSeenSetAddAndHas(t *testing.T) {
	s := newSeenSet(4)

	assert.False(t, s.Has("a"))
	s.Add("a")
	assert.True(t, s.Has("a"))
	assert.Equal(t, 1, s.Len())
}

func TestSeenSetAddIsIdempotent(t *testing.T) {
	s := newSeenSet(4)

	s.Add("a")
	s.Add("a")
	s.Add("a")
	assert.Equal(t, 1, s.Len())
}

func TestSeenSetEvictsOldestWhenFull(t *testing.T) {
	s := newSeenSet(3)

	s.Add("a")
	s.Add("b")
	s.Add("c")
	assert.Equal(t, 3, s.Len())

	s.Add("d")
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Has("a"))
	assert.True(t, s.Has("b"))
	assert.True(t, s.Has("c"))
	assert.True(t, s.Has("d"))

	s.Add("e")
	assert.False(t, s.Has("b"))
	assert.True(t, s.Has("e"))
}

func TestSeenSetEvictionOrderIsFIFO(t *testing.T) {
	s := newSeenSet(8)

	for i := 0; i < 20; i++ {
		s.Add(model.TransactionID(fmt.Sprintf("txn-%d", i)))
	}

	// Only the last 8 remain
	assert.Equal(t, 8, s.Len())
	for i := 0; i < 12; i++ {
		assert.False(t, s.Has(model.TransactionID(fmt.Sprintf("txn-%d", i))))
	}
	for i := 12; i < 20; i++ {
		assert.True(t, s.Has(model.TransactionID(fmt.Sprintf("txn-%d", i))))
	}
}
