package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", defaultPageLimit, 0},
		{"limit=50&offset=5", 50, 5},
		{"limit=9000", maxPageLimit, 0},
		{"limit=-1&offset=-5", defaultPageLimit, 0},
		{"limit=abc&offset=xyz", defaultPageLimit, 0},
		{"limit=0", defaultPageLimit, 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/sessions?"+tt.query, nil)
		limit, offset := parsePagination(r)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
		assert.Equal(t, tt.wantOffset, offset, tt.query)
	}
}

func TestPaginateSlice(t *testing.T) {
	tests := []struct {
		name               string
		total, limit, off  int
		wantStart, wantEnd int
		wantMore           bool
	}{
		{"first page", 50, 10, 0, 0, 10, true},
		{"last page partial", 25, 10, 20, 20, 25, false},
		{"offset beyond total", 5, 10, 100, 5, 5, false},
		{"exact fit", 10, 10, 0, 0, 10, false},
		{"empty", 0, 10, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, meta := paginateSlice(tt.total, tt.limit, tt.off)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Equal(t, tt.wantMore, meta.HasMore)
			assert.Equal(t, PaginationMeta{TotalCount: tt.total, Limit: tt.limit, Offset: tt.off, HasMore: tt.wantMore}, meta)
		})
	}
}
