package codepoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionProperties(t *testing.T) {
	t.Parallel()
	for _, x := range []struct {
		name       string
		boundaries []rune
	}{
		{"empty", nil},
		{"single", []rune{'a'}},
		{"ascii-range", []rune{'a', 'z' + 1}},
		{"duplicates", []rune{'0', '0', '9' + 1, '9' + 1}},
		{"sentinels-included", []rune{0, Sentinel}},
		{"unordered", []rune{0x3BB, 'f', 'a', 0x3BC, '0'}},
		{"max", []rune{Max, Sentinel}},
	} {
		x := x
		t.Run(x.name, func(t *testing.T) {
			t.Parallel()
			ranges := Partition(x.boundaries)

			require.NotEmpty(t, ranges)
			require.Equal(t, rune(0), ranges[0].Lo)
			require.Equal(t, Sentinel, ranges[len(ranges)-1].Hi)
			for i, r := range ranges {
				require.True(t, r.Valid(), "range %d: %v", i, r)
				if i > 0 {
					require.Equal(t, ranges[i-1].Hi, r.Lo, "gap or overlap before range %d", i)
				}
			}

			endpoints := make(map[rune]bool)
			for _, r := range ranges {
				endpoints[r.Lo] = true
				endpoints[r.Hi] = true
			}
			for _, b := range x.boundaries {
				require.True(t, endpoints[b], "boundary U+%04X lost", b)
			}
		})
	}
}

func TestSpan(t *testing.T) {
	t.Parallel()
	alphabet := Partition([]rune{'0', '9' + 1, 'a', 'z' + 1})

	lo, hi, err := Span(alphabet, New('a', 'z'+1))
	require.NoError(t, err)
	require.Equal(t, alphabet[lo].Lo, rune('a'))
	require.Equal(t, alphabet[hi].Hi, rune('z'+1))

	// A span may cover several partition ranges.
	lo, hi, err = Span(alphabet, New('0', 'z'+1))
	require.NoError(t, err)
	require.Less(t, lo, hi)

	_, _, err = Span(alphabet, New('b', 'c'))
	require.ErrorIs(t, err, ErrNotBoundary)
}

func TestRange(t *testing.T) {
	t.Parallel()
	r := Single('x')
	require.True(t, r.Contains('x'))
	require.False(t, r.Contains('y'))
	require.Equal(t, 1, r.Width())
	require.Equal(t, "U+0078", r.String())

	require.False(t, Range{Lo: 'b', Hi: 'a'}.Valid())
	require.False(t, Range{Lo: 0, Hi: Sentinel + 1}.Valid())
	require.True(t, Range{Lo: 0, Hi: Sentinel}.Valid())
}
