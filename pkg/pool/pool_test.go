package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addVector(p *VectorPool, owner int, elems ...uint32) {
	p.BeginAddVector(owner, len(elems))
	for _, e := range elems {
		p.AddVectorElem(e)
	}
	p.EndAddVector()
}

func TestReserveResetsCursors(t *testing.T) {
	var p VectorPool
	p.Reserve(4, 64)

	addVector(&p, 0, 1, 2)
	p.Reserve(4, 64)

	assert.Equal(t, 0, p.tail)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0, p.heads[i])
		assert.True(t, p.atEnd[i])
	}
}

func TestRoundTrip(t *testing.T) {
	var p VectorPool
	p.Reserve(3, 100)

	addVector(&p, 0, 5, 6, 7)

	for _, consumer := range []int{1, 2} {
		v, ok := p.GetVector(consumer)
		require.True(t, ok, "consumer %d", consumer)
		assert.Equal(t, []uint32{5, 6, 7}, v)

		_, ok = p.GetVector(consumer)
		assert.False(t, ok, "consumer %d saw a second record", consumer)
	}
}

func TestSelfExclusion(t *testing.T) {
	var p VectorPool
	p.Reserve(3, 100)

	addVector(&p, 0, 5, 6, 7)

	_, ok := p.GetVector(0)
	assert.False(t, ok, "producer received its own record")
	assert.True(t, p.atEnd[0], "skipping own record should leave the cursor at the tail")

	// The cursor passed over the record; later records still arrive.
	addVector(&p, 1, 8, 9)
	v, ok := p.GetVector(0)
	require.True(t, ok)
	assert.Equal(t, []uint32{8, 9}, v)
}

func TestInterleavedOwnersDrainInOrder(t *testing.T) {
	var p VectorPool
	p.Reserve(3, 100)

	addVector(&p, 0, 1, 2)
	addVector(&p, 1, 3, 4, 5)
	addVector(&p, 0, 6, 7)

	var got [][]uint32
	for {
		v, ok := p.GetVector(2)
		if !ok {
			break
		}
		got = append(got, append([]uint32(nil), v...))
	}
	assert.Equal(t, [][]uint32{{1, 2}, {3, 4, 5}, {6, 7}}, got)

	// Consumer 1 skips its own middle record.
	got = nil
	for {
		v, ok := p.GetVector(1)
		if !ok {
			break
		}
		got = append(got, append([]uint32(nil), v...))
	}
	assert.Equal(t, [][]uint32{{1, 2}, {6, 7}}, got)
}

func TestNoMidRecordWraparound(t *testing.T) {
	var p VectorPool
	p.Reserve(2, 10)

	// 7 words used, 3 left: a 2-element record needs 4 and must
	// restart at the front instead of spilling past the end.
	addVector(&p, 0, 1, 2, 3, 4, 5)
	require.Equal(t, 7, p.tail)

	addVector(&p, 0, 8, 9)
	assert.Equal(t, 4, p.tail)
	assert.Equal(t, []uint32{0, 2, 8, 9}, p.vecs[0:4])
}

func TestOverwriteAdvancesLaggingConsumer(t *testing.T) {
	var p VectorPool
	p.Reserve(2, 10)

	// First record fills [0,8); consumer 1 never reads it.
	addVector(&p, 0, 11, 12, 13, 14, 15, 16)
	require.Equal(t, 0, p.heads[1])

	// Second record wraps to the front and clobbers the first
	// record's span; consumer 1 is pushed past it.
	p.BeginAddVector(0, 2)
	assert.Equal(t, 8, p.heads[1], "lagging cursor not advanced past the clobbered span")
	assert.False(t, p.atEnd[1])
	p.AddVectorElem(21)
	p.AddVectorElem(22)
	p.EndAddVector()

	v, ok := p.GetVector(1)
	require.True(t, ok)
	assert.Equal(t, []uint32{21, 22}, v, "consumer observed an overwritten record")

	_, ok = p.GetVector(1)
	assert.False(t, ok)
}

func TestCaughtUpConsumerSurvivesWrap(t *testing.T) {
	var p VectorPool
	p.Reserve(2, 10)

	addVector(&p, 0, 11, 12, 13, 14, 15, 16)
	v, ok := p.GetVector(1)
	require.True(t, ok)
	require.Equal(t, []uint32{11, 12, 13, 14, 15, 16}, v)

	// Consumer 1 is fully drained when the writer wraps; it must
	// still see the new record.
	addVector(&p, 0, 21, 22)
	v, ok = p.GetVector(1)
	require.True(t, ok)
	assert.Equal(t, []uint32{21, 22}, v)
}

func TestWriterFillsExactCapacity(t *testing.T) {
	var p VectorPool
	p.Reserve(2, 8)

	// Record occupies the whole buffer; the write cursor wraps to 0
	// and the drained consumer parks at the tail.
	addVector(&p, 0, 1, 2, 3, 4, 5, 6)
	assert.Equal(t, 0, p.tail)

	v, ok := p.GetVector(1)
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6}, v)
	_, ok = p.GetVector(1)
	assert.False(t, ok)
}

func TestContractViolationsPanic(t *testing.T) {
	var p VectorPool
	assert.Panics(t, func() { p.BeginAddVector(0, 2) }, "write before Reserve")

	p.Reserve(2, 10)
	assert.Panics(t, func() { p.BeginAddVector(0, 9) }, "record larger than capacity")
	assert.Panics(t, func() { p.GetVector(2) }, "consumer id out of range")
}
