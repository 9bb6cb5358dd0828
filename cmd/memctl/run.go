package main

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/alloc"
)

var (
	runStrategy string
	runRegion   uint64
	runLevels   uint8
	runCount    int
	runSize     uint64
	runAlign    uint64
	runOrder    string
	runSeed     int64
)

var errUnknownStrategy = errors.New("unknown strategy")

func init() {
	cmd := newRunCmd()
	cmd.Flags().StringVar(&runStrategy, "strategy", "heap", "Allocator: heap, linear, stack, buddy, fallback, pages")
	cmd.Flags().Uint64Var(&runRegion, "region", 1<<20, "Region size in bytes for linear, stack, buddy and fallback")
	cmd.Flags().Uint8Var(&runLevels, "levels", 10, "Buddy subdivision levels")
	cmd.Flags().IntVar(&runCount, "count", 1000, "Number of allocations")
	cmd.Flags().Uint64Var(&runSize, "size", 64, "Bytes per allocation (0 picks random sizes up to 1 KiB)")
	cmd.Flags().Uint64Var(&runAlign, "align", 8, "Alignment per allocation")
	cmd.Flags().StringVar(&runOrder, "order", "lifo", "Release order: lifo, fifo, random")
	cmd.Flags().Int64Var(&runSeed, "seed", 1, "Seed for random sizes and order")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an allocate/release workload and print statistics",
		Long: `The run command allocates --count blocks from the chosen strategy,
releases them in the chosen order and prints the statistics at peak and after
release.

Example:
  memctl run --strategy buddy --region 65536 --levels 8 --size 100
  memctl run --strategy fallback --region 4096 --count 200 --order random
  memctl run --strategy stack --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload()
		},
	}
	return cmd
}

// runResult is the JSON shape of a workload run.
type runResult struct {
	Strategy string              `json:"strategy"`
	Order    string              `json:"order"`
	Requests int                 `json:"requests"`
	Served   int                 `json:"served"`
	Failed   int                 `json:"failed"`
	Peak     alloc.StatsSnapshot `json:"peak"`
	Final    alloc.StatsSnapshot `json:"final"`
}

// workload holds the allocator under test and what must be closed afterwards.
type workload struct {
	a       alloc.Allocator
	closers []interface{ Close() error }
}

func (w *workload) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		errs = append(errs, w.closers[i].Close())
	}
	return errors.Join(errs...)
}

func buildWorkload(strategy string, region uintptr, levels uint8, align uintptr) (*workload, error) {
	switch strategy {
	case "heap":
		return &workload{a: alloc.NewHeap()}, nil
	case "pages":
		return &workload{a: alloc.NewPages()}, nil
	case "linear":
		l, err := alloc.NewLinear(alloc.NewHeap(), &alloc.LinearConfig{Size: region, Align: 64})
		if err != nil {
			return nil, err
		}
		return &workload{a: l, closers: []interface{ Close() error }{l}}, nil
	case "stack":
		maxAlign := max(align, 16)
		s, err := alloc.NewStack(&alloc.StackConfig{Size: region, MaxAlign: maxAlign})
		if err != nil {
			return nil, err
		}
		return &workload{a: s}, nil
	case "buddy":
		b, err := alloc.NewBuddy(alloc.NewHeap(), &alloc.BuddyConfig{Name: "cli", Size: region, Levels: levels})
		if err != nil {
			return nil, err
		}
		return &workload{a: b, closers: []interface{ Close() error }{b}}, nil
	case "fallback":
		b, err := alloc.NewBuddy(alloc.NewHeap(), &alloc.BuddyConfig{Name: "cli", Size: region, Levels: levels})
		if err != nil {
			return nil, err
		}
		return &workload{a: alloc.NewFallback(b, alloc.NewHeap()), closers: []interface{ Close() error }{b}}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownStrategy, strategy)
	}
}

// releaseOrder returns the indices of n refs in the order they are freed.
func releaseOrder(order string, n int, rng *rand.Rand) ([]int, error) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	switch order {
	case "fifo":
	case "lifo":
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	case "random":
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	default:
		return nil, fmt.Errorf("unknown order %q (want lifo, fifo or random)", order)
	}
	return idx, nil
}

func runWorkload() error {
	if runCount < 0 {
		return fmt.Errorf("--count must not be negative")
	}
	if runStrategy == "stack" && runOrder != "lifo" {
		return fmt.Errorf("stack strategy requires --order lifo")
	}

	rng := rand.New(rand.NewSource(runSeed))
	order, err := releaseOrder(runOrder, runCount, rng)
	if err != nil {
		return err
	}

	printVerbose("Building %s allocator (region=%d levels=%d)\n", runStrategy, runRegion, runLevels)
	w, err := buildWorkload(runStrategy, uintptr(runRegion), runLevels, uintptr(runAlign))
	if err != nil {
		return fmt.Errorf("failed to build allocator: %w", err)
	}

	res := runResult{Strategy: runStrategy, Order: runOrder, Requests: runCount}
	refs := make([]alloc.Ref[byte], runCount)
	for i := range refs {
		size := uintptr(runSize)
		if size == 0 {
			size = uintptr(1 + rng.Intn(1024))
		}
		refs[i] = w.a.AllocateRaw(size, uintptr(runAlign), false)
		if refs[i].Valid() {
			res.Served++
		} else {
			res.Failed++
		}
	}
	res.Peak = w.a.Stats().Snapshot()

	for _, i := range order {
		refs[i].Dealloc()
	}
	res.Final = w.a.Stats().Snapshot()

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to release region: %w", err)
	}

	if jsonOut {
		return printJSON(res)
	}

	p, err := newPrinter()
	if err != nil {
		return err
	}
	printInfo("\nWorkload: %s, %s requests, %s served, %s failed, %s release\n\n",
		res.Strategy, p.Number(uint64(res.Requests)), p.Number(uint64(res.Served)),
		p.Number(uint64(res.Failed)), res.Order)

	var buf bytes.Buffer
	if err := p.WriteStats(&buf, "At peak", res.Peak); err != nil {
		return err
	}
	buf.WriteString("\n")
	if err := p.WriteStats(&buf, "After release", res.Final); err != nil {
		return err
	}
	printInfo("%s", buf.String())
	return nil
}
