// Package report renders allocator statistics and buddy layouts as text
// tables with locale-aware number grouping.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/memkit/alloc"
)

// Printer formats numbers for one locale.
type Printer struct {
	p *message.Printer
}

// New returns a Printer for tag.
func New(tag language.Tag) *Printer {
	return &Printer{p: message.NewPrinter(tag)}
}

// ParseLang resolves a BCP 47 tag, falling back to English for an empty string.
func ParseLang(s string) (language.Tag, error) {
	if s == "" {
		return language.English, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("report: bad language %q: %w", s, err)
	}
	return tag, nil
}

// Number formats n with the locale's digit grouping.
func (p *Printer) Number(n uint64) string {
	return p.p.Sprintf("%d", n)
}

// Bytes formats n as a human-readable size (1024-based).
func Bytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// WriteStats writes s as a table with current, peak and total columns.
func (p *Printer) WriteStats(w io.Writer, title string, s alloc.StatsSnapshot) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("-", len(title))); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\tcurrent\tpeak\ttotal\t\n")
	rows := []struct {
		name             string
		cur, peak, total uint64
	}{
		{"memory", s.CurMemoryUse, s.MaxMemoryUse, s.TotalMemoryUse},
		{"allocs", s.CurAllocs, s.MaxAllocs, s.TotalAllocs},
		{"overhead", s.CurOverhead, s.MaxOverhead, s.TotalOverhead},
		{"backing", s.CurBackingMemory, s.MaxBackingMemory, s.TotalBackingMemory},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.name, p.Number(r.cur), p.Number(r.peak), p.Number(r.total))
	}
	if s.TotalDefragMoved > 0 || s.TotalDefragFreed > 0 {
		fmt.Fprintf(tw, "defrag moved\t%s\t\t%s\t\n", p.Number(s.LastDefragMoved), p.Number(s.TotalDefragMoved))
		fmt.Fprintf(tw, "defrag freed\t%s\t\t%s\t\n", p.Number(s.LastDefragFreed), p.Number(s.TotalDefragFreed))
	}
	return tw.Flush()
}

// WriteLayout writes a buddy geometry summary followed by one line per block.
func (p *Printer) WriteLayout(w io.Writer, l alloc.BuddyLayout, blocks []alloc.BuddyBlock) error {
	fmt.Fprintf(w, "Buddy layout\n")
	fmt.Fprintf(w, "  Region:   %s (%s bytes)\n", Bytes(uint64(l.RegionSize)), p.Number(uint64(l.RegionSize)))
	fmt.Fprintf(w, "  Levels:   %d\n", l.Levels)
	fmt.Fprintf(w, "  Leaf:     %s bytes\n", p.Number(uint64(l.LeafSize)))
	fmt.Fprintf(w, "  Nodes:    %s\n", p.Number(uint64(l.Nodes)))
	fmt.Fprintf(w, "  Bitmap:   %s bytes (%d reserved leaves)\n\n", p.Number(uint64(l.MgmtSize)), l.ReservedLeaves)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "OFFSET\tSIZE\tSTATE\n")
	var free uint64
	for _, b := range blocks {
		state := "free"
		if b.Used {
			state = "used"
		} else {
			free += uint64(b.Size)
		}
		fmt.Fprintf(tw, "%#08x\t%s\t%s\n", b.Offset, p.Number(uint64(b.Size)), state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nFree: %s bytes in %d blocks\n", p.Number(free), countFree(blocks))
	return err
}

func countFree(blocks []alloc.BuddyBlock) int {
	n := 0
	for _, b := range blocks {
		if !b.Used {
			n++
		}
	}
	return n
}
