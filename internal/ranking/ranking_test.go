package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignTieGroups(t *testing.T) {
	keys := []Key{
		{Points: 100, Tasks: 3},
		{Points: 100, Tasks: 3},
		{Points: 90, Tasks: 2},
		{Points: 90, Tasks: 2},
		{Points: 80, Tasks: 1},
	}

	assert.Equal(t, []int{1, 1, 3, 3, 5}, Assign(keys, 0))
}

func TestAssignEmpty(t *testing.T) {
	assert.Empty(t, Assign(nil, 0))
	assert.Empty(t, Assign([]Key{}, 10))
}

func TestAssignSingleEntry(t *testing.T) {
	assert.Equal(t, []int{1}, Assign([]Key{{Points: 10, Tasks: 1}}, 0))
	assert.Equal(t, []int{8}, Assign([]Key{{Points: 10, Tasks: 1}}, 7))
}

func TestAssignAllTied(t *testing.T) {
	keys := []Key{
		{Points: 50, Tasks: 2},
		{Points: 50, Tasks: 2},
		{Points: 50, Tasks: 2},
	}

	assert.Equal(t, []int{1, 1, 1}, Assign(keys, 0))
	assert.Equal(t, []int{11, 11, 11}, Assign(keys, 10))
}

func TestAssignPaginatedWindow(t *testing.T) {
	// page 2 with limit 10 on a 25-row board with no ties
	keys := make([]Key, 10)
	for i := range keys {
		keys[i] = Key{Points: 200 - i, Tasks: 1}
	}

	ranks := Assign(keys, 10)
	for i, r := range ranks {
		assert.Equal(t, 11+i, r)
	}
}

func TestAssignTasksBreakTies(t *testing.T) {
	// equal points but different task counts are not a tie group
	keys := []Key{
		{Points: 100, Tasks: 5},
		{Points: 100, Tasks: 3},
		{Points: 100, Tasks: 3},
	}

	assert.Equal(t, []int{1, 2, 2}, Assign(keys, 0))
}

func TestAssignMonotonicWithSkip(t *testing.T) {
	keys := []Key{
		{Points: 40, Tasks: 2},
		{Points: 40, Tasks: 2},
		{Points: 40, Tasks: 1},
		{Points: 10, Tasks: 4},
		{Points: 10, Tasks: 4},
		{Points: 10, Tasks: 4},
		{Points: 5, Tasks: 1},
	}

	ranks := Assign(keys, 20)
	assert.Equal(t, []int{21, 21, 23, 24, 24, 24, 27}, ranks)

	// ranks never decrease along the input order and start at skip+1
	assert.Equal(t, 21, ranks[0])
	for i := 1; i < len(ranks); i++ {
		assert.GreaterOrEqual(t, ranks[i], ranks[i-1])
	}
}
