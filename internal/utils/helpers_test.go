package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceToSet(t *testing.T) {
	set := SliceToSet([]string{"forward", "stop", "forward"})

	assert.Len(t, set, 2)
	assert.Contains(t, set, "forward")
	assert.Contains(t, set, "stop")
}

func TestLastN(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4, 5}, LastN(in, 3))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, LastN(in, 10))
	assert.Equal(t, []int{}, LastN(in, 0))
	assert.Equal(t, []int{}, LastN([]int(nil), 3))
}

func TestLastN_ReturnsCopy(t *testing.T) {
	in := []int{1, 2, 3}
	out := LastN(in, 2)
	out[0] = 99

	assert.Equal(t, []int{1, 2, 3}, in)
}
