package block

import (
	"testing"

	"github.com/emberstore/emberfile/constant"
	"github.com/stretchr/testify/require"
)

func TestFrameUnframeRoundTrip(t *testing.T) {
	offsets := []int64{0, 1, 4095, 10}
	sizes := []int{0, 1, 4095, 4096, 4097, 8191, 8192, 12000}

	for _, off := range offsets {
		for _, n := range sizes {
			payload := make([]byte, n)
			for i := range payload {
				payload[i] = byte(i)
			}
			segs := Frame(off, payload, constant.PrefixData)
			raw := Concat(segs)
			got := Unframe(off, raw)
			require.Equal(t, payload, got, "off=%d n=%d", off, n)
		}
	}
}

func TestFrameEmptyPayload(t *testing.T) {
	require.Nil(t, Frame(0, nil, constant.PrefixData))
	require.Nil(t, Frame(100, []byte{}, constant.PrefixData))
}

func TestFrameInsertsPrefixAtBoundary(t *testing.T) {
	payload := make([]byte, 10)
	raw := Concat(Frame(0, payload, constant.PrefixHeader))
	require.Equal(t, constant.PrefixHeader, raw[0])
	require.Len(t, raw, 11) // 1 prefix + 10 payload, fits in one block
}

func TestFrameFitsExactlyNoExtraPrefix(t *testing.T) {
	// starting mid-block with exactly the remaining bytes: no boundary crossed
	payload := make([]byte, 10)
	raw := Concat(Frame(4086, payload, constant.PrefixData))
	require.Len(t, raw, 10)
}

func TestRawReadLenMatchesFramedSize(t *testing.T) {
	offsets := []int64{0, 1, 4095, 10, 4090}
	lens := []int64{0, 1, 5, 4086, 4095, 4096, 4097, 8191, 8192, 100000}

	for _, off := range offsets {
		for _, n := range lens {
			payload := make([]byte, n)
			segs := Frame(off, payload, constant.PrefixData)
			want := int64(len(Concat(segs)))
			got := RawReadLen(off, n)
			require.Equal(t, want, got, "off=%d n=%d", off, n)
		}
	}
}

func TestOffset(t *testing.T) {
	require.Equal(t, int64(0), Offset(0))
	require.Equal(t, int64(0), Offset(4096))
	require.Equal(t, int64(1), Offset(4097))
	require.Equal(t, int64(4095), Offset(8191))
}
