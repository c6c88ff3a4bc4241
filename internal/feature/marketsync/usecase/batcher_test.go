package usecase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func symbolsN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("S%04d", i)
	}
	return out
}

func TestChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		n         int
		size      int
		wantSizes []int
	}{
		{name: "empty input", n: 0, size: 10, wantSizes: nil},
		{name: "smaller than size", n: 3, size: 10, wantSizes: []int{3}},
		{name: "exact multiple", n: 200, size: 100, wantSizes: []int{100, 100}},
		{name: "remainder", n: 2500, size: 1000, wantSizes: []int{1000, 1000, 500}},
		{name: "size one", n: 3, size: 1, wantSizes: []int{1, 1, 1}},
		{name: "non-positive size", n: 5, size: 0, wantSizes: []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := symbolsN(tt.n)
			got := Chunk(in, tt.size)

			sizes := make([]int, 0, len(got))
			var flat []string
			for _, b := range got {
				assert.NotEmpty(t, b)
				sizes = append(sizes, len(b))
				flat = append(flat, b...)
			}
			if tt.wantSizes == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.wantSizes, sizes)
			assert.Equal(t, in, flat, "concatenation must reproduce the input in order")
		})
	}
}

func TestChunk_BatchesDoNotAlias(t *testing.T) {
	t.Parallel()

	batches := Chunk(symbolsN(4), 2)
	batches[0] = append(batches[0], "X")

	assert.Equal(t, []string{"S0002", "S0003"}, batches[1])
}
