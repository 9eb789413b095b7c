package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveCommitUnobserved(t *testing.T) {
	b := New(1024)
	dst, err := b.Reserve(5)
	require.NoError(t, err)
	copy(dst, []byte("hello"))
	b.Commit(5)

	assert.Equal(t, 5, b.Len())
	assert.Equal(t, []byte("hello"), b.Committed())
	assert.Equal(t, []byte("hello"), b.Unobserved())
}

func TestConsumePartialShiftsTail(t *testing.T) {
	b := New(1024)
	dst, _ := b.Reserve(10)
	copy(dst, []byte("0123456789"))
	b.Commit(10)

	b.Consume(4)
	assert.Equal(t, []byte("456789"), b.Committed())
	assert.Equal(t, 6, b.Len())
}

func TestConsumeExactEmptiesBothCursors(t *testing.T) {
	b := New(1024)
	dst, _ := b.Reserve(4)
	copy(dst, []byte("abcd"))
	b.Commit(4)
	b.Observe(4)

	b.Consume(4)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, len(b.Unobserved()))
}

func TestReserveExceedingCapFails(t *testing.T) {
	b := New(8)
	_, err := b.Reserve(4)
	require.NoError(t, err)
	b.Commit(4)
	_, err = b.Reserve(8)
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestObserveClampsToCommitted(t *testing.T) {
	b := New(1024)
	dst, _ := b.Reserve(3)
	copy(dst, []byte("abc"))
	b.Commit(3)

	b.Observe(100)
	assert.Equal(t, 0, len(b.Unobserved()))
}

func TestStatsTracksTotalAndHighWaterAcrossConsume(t *testing.T) {
	b := New(1024)
	dst, _ := b.Reserve(10)
	copy(dst, []byte("0123456789"))
	b.Commit(10)
	b.Consume(10)

	dst, _ = b.Reserve(4)
	copy(dst, []byte("abcd"))
	b.Commit(4)

	stats := b.Stats()
	assert.Equal(t, uint64(14), stats.BytesCommittedTotal)
	assert.Equal(t, 10, stats.HighWaterMark)
}
