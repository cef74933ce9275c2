package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantFrom, wantLn int
	}{
		{name: "first page", page: 1, size: 10, wantFrom: 0, wantLn: 10},
		{name: "third page", page: 3, size: 5, wantFrom: 10, wantLn: 5},
		{name: "page below one", page: 0, size: 5, wantFrom: 0, wantLn: 5},
		{name: "size too big", page: 1, size: 500, wantFrom: 0, wantLn: DefaultPageSize},
		{name: "size zero", page: 2, size: 0, wantFrom: DefaultPageSize, wantLn: DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantLn, limit)
		})
	}
}

func TestMeta(t *testing.T) {
	m := Meta(2, 10, 10, 25)
	assert.Equal(t, int64(3), m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	last := Meta(3, 20, 10, 25)
	assert.False(t, last.HasNext)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 4, ParseIntDefault("", 4))
	assert.Equal(t, 4, ParseIntDefault("x", 4))
	assert.Equal(t, 9, ParseIntDefault("9", 4))
}
