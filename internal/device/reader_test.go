package device

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameReader_CopiesAcrossReads(t *testing.T) {
	ch := make(chan []int16, 2)
	ch <- []int16{1, -1, 256}
	r := newFrameReader(ch)

	p := make([]byte, 4)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0x01, 0x00, 0xff, 0xff}, p)

	ch <- []int16{7}
	n, err = r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0x00, 0x01, 0x07, 0x00}, p)
	assert.Zero(t, r.underruns.Load())
}

func TestFrameReader_PadsSilenceOnUnderrun(t *testing.T) {
	ch := make(chan []int16, 1)
	ch <- []int16{0x0102}
	r := newFrameReader(ch)

	p := []byte{9, 9, 9, 9, 9, 9}
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0}, p)
	assert.Equal(t, uint64(1), r.underruns.Load())
}

func TestFrameReader_EOFWhenClosed(t *testing.T) {
	ch := make(chan []int16)
	close(ch)
	r := newFrameReader(ch)

	n, err := r.Read(make([]byte, 8))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}
