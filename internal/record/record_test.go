package record_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitedb/ignitedb/internal/record"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	set := record.NewSet("hello", []byte("world"), 1)
	require.NoError(t, record.Encode(&buf, set))

	rm := record.NewRemove("hello", 2)
	require.NoError(t, record.Encode(&buf, rm))

	dec := record.NewDecoder(&buf)

	got, offset, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, int64(0), offset)
	require.True(t, got.IsSet())
	require.Equal(t, "hello", got.Key)
	require.Equal(t, []byte("world"), got.Value)
	require.Equal(t, uint64(1), got.Version)

	got, offset, err = dec.Next()
	require.NoError(t, err)
	require.Greater(t, offset, int64(0))
	require.True(t, got.IsRemove())
	require.Equal(t, "hello", got.Key)
	require.Equal(t, uint64(2), got.Version)

	_, _, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoderOffsetsAreAbsolute(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 5; i++ {
		require.NoError(t, record.Encode(&buf, record.NewSet("k", []byte("v"), uint64(i))))
	}

	raw := buf.Bytes()
	dec := record.NewDecoder(bytes.NewReader(raw))

	var offsets []int64
	for {
		_, offset, err := dec.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		offsets = append(offsets, offset)
	}

	require.Len(t, offsets, 5)
	for _, offset := range offsets {
		require.Less(t, int(offset), len(raw))
	}
}

func TestDecoderRejectsMalformedRecord(t *testing.T) {
	dec := record.NewDecoder(bytes.NewReader([]byte("not json\n")))
	_, _, err := dec.Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}
