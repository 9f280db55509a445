package alloc

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/format"
)

// blockSpan returns the [start, end) ref span of the block behind p.
func blockSpan(a *Allocator, p Ptr) (Ref, Ref) {
	bp := Ref(p) - 1
	return bp, bp + Ref(a.Units(p))
}

// ============================================================================
// Merge Scenarios
// ============================================================================

func TestAlloc_ReleaseMergesNeighbours(t *testing.T) {
	orders := map[string][]int{
		"B,A,C": {1, 0, 2},
		"C,A,B": {2, 0, 1},
		"A,B,C": {0, 1, 2},
		"C,B,A": {2, 1, 0},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			a, _ := newTestAllocator(t, 0, nil)

			ptrs := []Ptr{
				mustAlloc(t, a, 16),
				mustAlloc(t, a, 16),
				mustAlloc(t, a, 16),
			}

			// Carved from the tail: each block sits directly below the previous one.
			for i := 1; i < len(ptrs); i++ {
				_, end := blockSpan(a, ptrs[i])
				start, _ := blockSpan(a, ptrs[i-1])
				require.Equal(t, start, end, "blocks %d and %d must be adjacent", i-1, i)
			}
			lo, _ := blockSpan(a, ptrs[2])
			_, hi := blockSpan(a, ptrs[0])

			for _, i := range order {
				a.Free(ptrs[i])
				assertInvariants(t, a)
			}

			blocks := a.FreeBlocks()
			require.Len(t, blocks, 1, "all free space must merge into one block")
			assert.LessOrEqual(t, blocks[0].Ref, lo)
			assert.GreaterOrEqual(t, blocks[0].Ref+Ref(blocks[0].Units), hi)
			assert.Equal(t, a.RegionUnits(), uint64(blocks[0].Units))
		})
	}
}

func TestAlloc_ReleaseSubsetLeavesNoAdjacentFreeBlocks(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 50; iter++ {
		a, _ := newTestAllocator(t, 0, &Options{MinGrowUnits: 64})

		var live []Ptr
		for _i := 0; _i < 40; _i++ {
			live = append(live, mustAlloc(t, a, 1+rng.Intn(200)))
		}

		rng.Shuffle(len(live), func(i, j int) { live[i], live[j] = live[j], live[i] })
		keep := rng.Intn(len(live))
		for _, p := range live[keep:] {
			a.Free(p)
			require.NoError(t, a.Check(), "iteration %d", iter)
		}
		for _, p := range live[:keep] {
			a.Free(p)
		}
		assertInvariants(t, a)

		blocks := a.FreeBlocks()
		require.Len(t, blocks, 1, "iteration %d", iter)
		assert.Equal(t, a.RegionUnits(), uint64(blocks[0].Units))
	}
}

// ============================================================================
// Allocation
// ============================================================================

func TestAlloc_SplitExactness(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	p := mustAlloc(t, a, 16)
	units, ok := format.BlockUnits(16)
	require.True(t, ok)
	assert.Equal(t, uint32(3), units)
	assert.Equal(t, units, a.Units(p), "allocated header holds units(s)")

	blocks := a.FreeBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, uint32(DefaultMinGrowUnits)-units, blocks[0].Units)

	start, _ := blockSpan(a, p)
	assert.Equal(t, blocks[0].Ref+Ref(blocks[0].Units), start, "allocation comes from the tail")

	s := a.Stats()
	assert.Equal(t, 1, s.Splits)
	assert.Zero(t, s.ExactFits)
}

func TestAlloc_ExactFitUnlinksBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	p1 := mustAlloc(t, a, 16)
	p2 := mustAlloc(t, a, 64)
	_ = mustAlloc(t, a, 16)
	a.Free(p2)
	require.Len(t, a.FreeBlocks(), 2)

	p := mustAlloc(t, a, 60) // same unit count as 64
	assert.Equal(t, p2, p)
	assert.Len(t, a.FreeBlocks(), 1)
	assert.Equal(t, 1, a.Stats().ExactFits)
	assertInvariants(t, a)

	a.Free(p1)
	assertInvariants(t, a)
}

func TestAlloc_NoGrowthReuse(t *testing.T) {
	sizes := []int{1, 8, 9, 100, 4096, 40000}

	for _, s := range sizes {
		a, _ := newTestAllocator(t, 0, nil)
		gc := setupGrowCounter(a)

		p := mustAlloc(t, a, s)
		a.Free(p)
		grown := gc.calls

		for _, s2 := range []int{s, s / 2, 1} {
			if s2 <= 0 {
				continue
			}
			q := mustAlloc(t, a, s2)
			assert.Equal(t, grown, gc.calls, "alloc(%d) after freeing alloc(%d) must not grow", s2, s)
			a.Free(q)
		}
	}
}

func TestAlloc_CapacityContract(t *testing.T) {
	a, _ := newTestAllocator(t, 0, &Options{MinGrowUnits: 32})
	rng := rand.New(rand.NewSource(7))

	type live struct {
		p    Ptr
		n    int
		seed byte
	}
	var blocks []live

	for i := 0; i < 500; i++ {
		if len(blocks) > 0 && rng.Intn(3) == 0 {
			k := rng.Intn(len(blocks))
			a.Free(blocks[k].p)
			blocks = append(blocks[:k], blocks[k+1:]...)
			continue
		}

		n := 1 + rng.Intn(300)
		p, payload, err := a.Alloc(n)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(payload), n)
		require.Less(t, len(payload), n+format.UnitSize)
		fill(payload, byte(i))
		blocks = append(blocks, live{p: p, n: n, seed: byte(i)})
	}

	for _, b := range blocks {
		// Re-resolve: the region may have moved since the block was written.
		payload := a.Payload(b.p)
		require.GreaterOrEqual(t, len(payload), b.n)
		assert.True(t, verify(payload, b.seed), "payload of %d clobbered", b.p)
	}
	assertInvariants(t, a)
}

func TestAlloc_NextFitResumesAtCursor(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)

	ptrs := make([]Ptr, 5)
	for i := range ptrs {
		ptrs[i] = mustAlloc(t, a, 16)
	}

	// Two equal holes above the remainder block.
	a.Free(ptrs[1])
	a.Free(ptrs[3])

	blocks := a.FreeBlocks()
	require.Len(t, blocks, 3)
	remainder := blocks[0].Ref
	assert.Equal(t, remainder, a.Cursor(), "release leaves the cursor on the predecessor")

	// First-fit from the head would split the remainder; next-fit takes the
	// hole after the cursor.
	p := mustAlloc(t, a, 16)
	assert.Equal(t, ptrs[3], p)

	p = mustAlloc(t, a, 16)
	assert.Equal(t, ptrs[1], p)
	assertInvariants(t, a)
}

func TestAlloc_InvalidSize(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)

	for _, n := range []int{0, -1} {
		_, _, err := a.Alloc(n)
		require.ErrorIs(t, err, ErrInvalidSize)
	}
	assert.Zero(t, r.Len(), "invalid requests must not touch the region")
}

func TestAlloc_TooLarge(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)

	_, _, err := a.Alloc(math.MaxInt)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Zero(t, r.Len())
}

// ============================================================================
// Growth
// ============================================================================

func TestGrow_FloorAndLargeRequests(t *testing.T) {
	a, r := newTestAllocator(t, 0, nil)
	gc := setupGrowCounter(a)

	mustAlloc(t, a, 16)
	require.Equal(t, 1, gc.calls)
	assert.Equal(t, uint32(DefaultMinGrowUnits), gc.units[0])
	assert.Equal(t, DefaultMinGrowUnits*format.UnitSize, r.Len())

	big := DefaultMinGrowUnits * 2 * format.UnitSize
	units, _ := format.BlockUnits(big)
	mustAlloc(t, a, big)
	require.Equal(t, 2, gc.calls)
	assert.Equal(t, units, gc.units[1], "requests above the floor grow by exactly their size")
	assertInvariants(t, a)
}

func TestGrow_NewSpanMergesWithTopBlock(t *testing.T) {
	a, _ := newTestAllocator(t, 0, &Options{MinGrowUnits: 16})

	// One 16-unit span, entirely free again.
	a.Free(mustAlloc(t, a, 72))
	require.Equal(t, []Block{{Ref: 1, Units: 16}}, a.FreeBlocks())

	// 26 units do not fit; the new span is released onto the free block below
	// it and the allocation is carved from the merged block's tail.
	p := mustAlloc(t, a, 200)
	start, _ := blockSpan(a, p)
	assert.Equal(t, Ref(17), start)
	assert.Equal(t, []Block{{Ref: 1, Units: 16}}, a.FreeBlocks())

	s := a.Stats()
	assert.Equal(t, 2, s.CoalesceBackward)
	assert.Zero(t, s.CoalesceForward)
	assert.Equal(t, uint64(42), a.RegionUnits())
	assertInvariants(t, a)
}

func TestGrow_MonotonicRegion(t *testing.T) {
	a, _ := newTestAllocator(t, 0, &Options{MinGrowUnits: 16})
	rng := rand.New(rand.NewSource(3))

	var live []Ptr
	var last uint64
	for _i := 0; _i < 1000; _i++ {
		if len(live) > 0 && rng.Intn(2) == 0 {
			k := rng.Intn(len(live))
			a.Free(live[k])
			live = append(live[:k], live[k+1:]...)
		} else {
			live = append(live, mustAlloc(t, a, 1+rng.Intn(500)))
		}

		s := a.Stats()
		total := s.FreeUnits + s.InUseUnits
		require.GreaterOrEqual(t, total, last)
		require.Equal(t, s.RegionUnits, total)
		last = total
	}
}

func TestGrow_OutOfMemory(t *testing.T) {
	a, r := newTestAllocator(t, 1024, &Options{MinGrowUnits: 64})

	_, _, err := a.Alloc(2000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSpace))
	assert.True(t, errors.Is(err, region.ErrExhausted))
	assert.Zero(t, r.Len(), "failed growth leaves the region unchanged")
	assert.Equal(t, 1, a.Stats().GrowFailures)

	// Fill the capped region until it refuses to grow.
	var live []Ptr
	for {
		p, _, err := a.Alloc(40)
		if err != nil {
			require.ErrorIs(t, err, ErrNoSpace)
			break
		}
		live = append(live, p)
	}
	assert.NotEmpty(t, live)
	assert.LessOrEqual(t, r.Len(), 1024)
	assertInvariants(t, a)

	// Freed space is reusable without growth.
	a.Free(live[0])
	_, _, err = a.Alloc(40)
	require.NoError(t, err)
	assertInvariants(t, a)
}

// misalignedRegion hands out spans at an offset that is not unit aligned.
type misalignedRegion struct {
	data []byte
}

func (m *misalignedRegion) Grow(n int) (int, error) {
	m.data = make([]byte, n+4)
	return 4, nil
}

func (m *misalignedRegion) Bytes() []byte { return m.data }

func TestGrow_MisalignedRegion(t *testing.T) {
	a := New(&misalignedRegion{}, nil)
	_, _, err := a.Alloc(8)
	require.ErrorIs(t, err, ErrMisaligned)
	assert.Zero(t, a.RegionUnits())
}

func TestGrow_StableRegion(t *testing.T) {
	r, err := region.NewAnon(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	a := New(r, &Options{MinGrowUnits: 16})
	_, first, err := a.Alloc(32)
	require.NoError(t, err)
	fill(first, 9)

	for _i := 0; _i < 200; _i++ {
		mustAlloc(t, a, 64)
	}
	assert.True(t, verify(first, 9), "payload slices stay valid on a stable region")
}

// ============================================================================
// Side channels
// ============================================================================

func TestAlloc_MarksHeadersDirty(t *testing.T) {
	dt := &mockDirtyTracker{}
	a, r := newTestAllocator(t, 0, &Options{Dirty: dt})

	p := mustAlloc(t, a, 16)
	require.NotEmpty(t, dt.ranges)
	for _, d := range dt.ranges {
		assert.Equal(t, format.HeaderSize, d.length)
		assert.Zero(t, d.off%format.UnitSize)
		assert.Less(t, d.off, r.Len())
	}

	dt.ranges = nil
	a.Free(p)
	assert.NotEmpty(t, dt.ranges, "release rewrites headers")
}

func TestAlloc_LogsGrowth(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, _ := newTestAllocator(t, 64, &Options{Logger: log, MinGrowUnits: 4})

	mustAlloc(t, a, 8)
	assert.Contains(t, out.String(), "alloc: grew region")

	_, _, err := a.Alloc(1000)
	require.Error(t, err)
	assert.Contains(t, out.String(), "alloc: out of memory")
}

func TestStats_Counters(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	assert.Zero(t, a.Stats().FreeBlocks)

	p1 := mustAlloc(t, a, 16)
	p2 := mustAlloc(t, a, 16)
	a.Free(p2)
	a.Free(p1)

	s := a.Stats()
	assert.Equal(t, 2, s.AllocCalls)
	assert.Equal(t, 2, s.FreeCalls)
	assert.Equal(t, 1, s.GrowCalls)
	assert.Equal(t, int64(DefaultMinGrowUnits), s.GrowUnits)
	assert.Equal(t, 1, s.FreeBlocks)
	assert.Equal(t, uint64(DefaultMinGrowUnits), s.FreeUnits)
	assert.Zero(t, s.InUseUnits)
	assert.Positive(t, s.CoalesceForward+s.CoalesceBackward)
}

func TestPayload(t *testing.T) {
	a, _ := newTestAllocator(t, 0, nil)
	assert.Nil(t, a.Payload(0))

	p, payload, err := a.Alloc(20)
	require.NoError(t, err)
	copy(payload, "payload")
	assert.Equal(t, "payload", string(a.Payload(p)[:7]))
	assert.Len(t, a.Payload(p), 24)

	assert.Nil(t, a.Payload(Ptr(1<<30)), "handles outside the region resolve to nil")
}

// ============================================================================
// Check
// ============================================================================

func TestCheck_DetectsCorruption(t *testing.T) {
	t.Run("zero size", func(t *testing.T) {
		a, _ := newTestAllocator(t, 0, nil)
		mustAlloc(t, a, 16)
		head := a.next(sentinel)
		format.PutU32(a.mem, a.offset(head)+format.HeaderSizeOffset, 0)
		require.ErrorIs(t, a.Check(), ErrCorrupt)
	})

	t.Run("lost units", func(t *testing.T) {
		a, _ := newTestAllocator(t, 0, nil)
		mustAlloc(t, a, 16)
		a.inUseUnits++
		require.ErrorIs(t, a.Check(), ErrCorrupt)
	})

	t.Run("cycle", func(t *testing.T) {
		a, _ := newTestAllocator(t, 0, nil)
		mustAlloc(t, a, 16)
		head := a.next(sentinel)
		format.PutU32(a.mem, a.offset(head)+format.HeaderNextOffset, uint32(head))
		require.ErrorIs(t, a.Check(), ErrCorrupt)
	})

	t.Run("fresh allocator", func(t *testing.T) {
		a, _ := newTestAllocator(t, 0, nil)
		require.NoError(t, a.Check())
		assert.Nil(t, a.FreeBlocks())
	})
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkAlloc_Free(b *testing.B) {
	a, _ := newTestAllocator(b, 0, nil)
	b.ReportAllocs()
	for _i := 0; _i < b.N; _i++ {
		p, _, err := a.Alloc(64)
		if err != nil {
			b.Fatal(err)
		}
		a.Free(p)
	}
}

func BenchmarkAlloc_Mixed(b *testing.B) {
	a, _ := newTestAllocator(b, 0, nil)
	rng := rand.New(rand.NewSource(1))
	live := make([]Ptr, 0, 1024)

	b.ReportAllocs()
	b.ResetTimer()
	for _i := 0; _i < b.N; _i++ {
		if len(live) == cap(live) || (len(live) > 0 && rng.Intn(2) == 0) {
			k := rng.Intn(len(live))
			a.Free(live[k])
			live[k] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		p, _, err := a.Alloc(8 + rng.Intn(256))
		if err != nil {
			b.Fatal(err)
		}
		live = append(live, p)
	}
}
