package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sarchlab/orchestra/datarecording"
	"github.com/sarchlab/orchestra/orchestra"
)

type deliveryRow struct {
	Time         uint64
	Origin       uint16
	Seqno        uint32
	Hops         uint8
	LatencySlots uint64
}

type energyRow struct {
	Location    string
	TxSlots     uint64
	ListenSlots uint64
	IdleSlots   uint64
	SleepSlots  uint64
	DutyCycle   float64
}

type classRow struct {
	Time       uint64
	Location   string
	OldClass   uint16
	NewClass   uint16
	ExtraSlots int
}

var summaryCmd = &cobra.Command{
	Use:   "summary [recording.sqlite3]",
	Short: "Summarize a run recorded with --db",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := datarecording.NewReader(args[0])
		defer reader.Close()

		return summarize(cmd.Context(), reader, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

// summarize prints per-origin deliveries, class changes and per-node energy
// from a recording.
func summarize(
	ctx context.Context,
	reader datarecording.DataReader,
	out io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader.MapTable("delivery", deliveryRow{})
	reader.MapTable("class", classRow{})
	reader.MapTable("energy", energyRow{})

	deliveries, total, err := reader.Query(ctx, "delivery",
		datarecording.QueryParams{OrderBy: "Origin, Seqno"})
	if err != nil {
		return fmt.Errorf("read deliveries: %w", err)
	}

	fmt.Fprintf(out, "%d deliveries\n", total)
	summarizeDeliveries(deliveries, out)

	_, classChanges, err := reader.Query(ctx, "class",
		datarecording.QueryParams{Limit: 1})
	if err != nil {
		return fmt.Errorf("read class changes: %w", err)
	}

	fmt.Fprintf(out, "%d class changes\n", classChanges)

	energy, _, err := reader.Query(ctx, "energy",
		datarecording.QueryParams{OrderBy: "Location"})
	if err != nil {
		return fmt.Errorf("read energy: %w", err)
	}

	for _, e := range energy {
		row := e.(*energyRow)
		fmt.Fprintf(out, "%s duty cycle %.4f\n", row.Location, row.DutyCycle)
	}

	return nil
}

func summarizeDeliveries(rows []any, out io.Writer) {
	type originStats struct {
		count   int
		hops    int
		latency uint64
	}

	stats := make(map[uint16]*originStats)
	for _, r := range rows {
		d := r.(*deliveryRow)

		s, ok := stats[d.Origin]
		if !ok {
			s = &originStats{}
			stats[d.Origin] = s
		}

		s.count++
		s.hops += int(d.Hops)
		s.latency += d.LatencySlots
	}

	origins := make([]uint16, 0, len(stats))
	for o := range stats {
		origins = append(origins, o)
	}

	sort.Slice(origins, func(i, j int) bool { return origins[i] < origins[j] })

	for _, o := range origins {
		s := stats[o]
		fmt.Fprintf(out, "node %d: %d delivered, %.2f hops, %.2fs latency\n",
			o, s.count,
			float64(s.hops)/float64(s.count),
			float64(s.latency)/float64(s.count)/orchestra.SlotsPerSecond)
	}
}
