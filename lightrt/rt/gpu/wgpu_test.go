package gpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWgpuBuffer_WriteErrorPanics(t *testing.T) {
	errLost := errors.New("device lost")
	var got []uint64
	b := &wgpuBuffer{label: "Lights[0]", size: 16, write: func(offset uint64, data []byte) error {
		got = append(got, offset)
		if offset == 8 {
			return errLost
		}
		return nil
	}}

	b.Write(4, []byte{1, 2, 3, 4})
	b.Write(12, nil)
	assert.Equal(t, []uint64{4}, got, "empty writes never reach the queue")

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, errLost))
	}()
	b.Write(8, []byte{0, 0, 0, 0})
}
