package collective

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbortError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&AbortError{Rank: 2, Cause: cause})

	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "rank 2")
}

func TestOffsets(t *testing.T) {
	counts := []int{3, 3, 2, 2}
	assert.Equal(t, []int{0, 3, 6, 8}, Offsets(counts))
	assert.Equal(t, 10, Total(counts))
}

func TestReduceHelpers(t *testing.T) {
	assert.Equal(t, []int64{4, 6}, SumInt64s([][]int64{{1, 2}, {3, 4}}))
	assert.Equal(t, []int32{1, 2, 3}, Concat([][]int32{{1}, {}, {2, 3}}))
	assert.Nil(t, SumInt64s(nil))
}
