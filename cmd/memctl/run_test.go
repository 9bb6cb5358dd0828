package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name        string
		strategy    string
		region      uint64
		levels      uint8
		count       int
		size        uint64
		order       string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "heap lifo",
			strategy:    "heap",
			count:       100,
			size:        64,
			order:       "lifo",
			wantContain: []string{"Workload: heap, 100 requests, 100 served, 0 failed", "At peak", "After release", "6,400"},
		},
		{
			name:        "linear fifo",
			strategy:    "linear",
			region:      4096,
			count:       10,
			size:        100,
			order:       "fifo",
			wantContain: []string{"10 served"},
		},
		{
			name:        "buddy exhausts",
			strategy:    "buddy",
			region:      1024,
			levels:      4,
			count:       20,
			size:        64,
			order:       "random",
			wantContain: []string{"15 served, 5 failed"},
		},
		{
			name:        "fallback absorbs overflow",
			strategy:    "fallback",
			region:      1024,
			levels:      4,
			count:       20,
			size:        64,
			order:       "random",
			wantContain: []string{"20 served, 0 failed"},
		},
		{
			name:        "pages random sizes",
			strategy:    "pages",
			count:       8,
			size:        0,
			order:       "random",
			wantContain: []string{"8 served"},
		},
		{
			name:     "stack rejects fifo",
			strategy: "stack",
			count:    4,
			size:     16,
			order:    "fifo",
			wantErr:  true,
		},
		{
			name:     "unknown strategy",
			strategy: "slab",
			count:    1,
			size:     8,
			order:    "lifo",
			wantErr:  true,
		},
		{
			name:     "bad buddy config",
			strategy: "buddy",
			region:   1000,
			levels:   4,
			count:    1,
			size:     8,
			order:    "lifo",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			runStrategy = tt.strategy
			if tt.region != 0 {
				runRegion = tt.region
			}
			if tt.levels != 0 {
				runLevels = tt.levels
			}
			runCount = tt.count
			runSize = tt.size
			runOrder = tt.order

			output, err := captureOutput(t, runWorkload)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestRunCommandJSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	runStrategy = "stack"
	runRegion = 4096
	runCount = 16
	runSize = 10

	output, err := captureOutput(t, runWorkload)
	require.NoError(t, err)

	var res runResult
	assertJSON(t, output, &res)
	assert.Equal(t, "stack", res.Strategy)
	assert.Equal(t, 16, res.Served)
	assert.Equal(t, uint64(16*16), res.Peak.CurMemoryUse, "stack pads every block to 16 bytes")
	assert.Zero(t, res.Final.CurAllocs)
	assert.Equal(t, uint64(16), res.Final.TotalAllocs)
}

func TestRunCommandLocale(t *testing.T) {
	resetFlags()
	lang = "de"
	runCount = 100

	output, err := captureOutput(t, runWorkload)
	require.NoError(t, err)
	assertContains(t, output, []string{"6.400"})
}

func TestBuildWorkloadUnknown(t *testing.T) {
	_, err := buildWorkload("slab", 1024, 4, 8)
	assert.True(t, errors.Is(err, errUnknownStrategy))
}

func TestReleaseOrder(t *testing.T) {
	idx, err := releaseOrder("lifo", 4, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1, 0}, idx)

	idx, err = releaseOrder("fifo", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, idx)

	_, err = releaseOrder("sideways", 3, nil)
	assert.Error(t, err)
}
