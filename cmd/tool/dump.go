package tool

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/flash"
	"github.com/radpro/doselog/frontend"
)

var (
	dumpCmd = &cobra.Command{
		Use:     "dump",
		Short:   "Prints the datalog of a flash image",
		Example: "doselog tool dump --image flash.img --start 1700000000 --csv",
		RunE:    executeDump,
	}

	dumpStart   uint32
	dumpEnd     uint32
	dumpMax     uint32
	dumpCSV     bool
	dumpSummary bool
)

func init() {
	f := datalog.NewFilter()
	dumpCmd.Flags().Uint32Var(&dumpStart, "start", f.Start, "first record time, unix seconds")
	dumpCmd.Flags().Uint32Var(&dumpEnd, "end", f.End, "last record time, unix seconds")
	dumpCmd.Flags().Uint32Var(&dumpMax, "max", f.Max, "maximum number of records")
	dumpCmd.Flags().BoolVar(&dumpCSV, "csv", false, "print records as CSV")
	dumpCmd.Flags().BoolVar(&dumpSummary, "summary", false, "print count rate statistics instead of records")
}

func executeDump(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	_, region, err := loadImage(cfg)
	if err != nil {
		return err
	}
	recs, err := readRecords(region, datalog.Filter{Start: dumpStart, End: dumpEnd, Max: dumpMax})
	if err != nil {
		return err
	}

	switch {
	case dumpSummary:
		printSummary(os.Stdout, recs)
	case dumpCSV:
		return frontend.WriteDatalog(os.Stdout, frontend.FormatCSV, recs)
	default:
		for _, rec := range recs {
			marker := ""
			if rec.SessionStart {
				marker = " *"
			}
			fmt.Fprintf(os.Stdout, "%d,%d%s\n", rec.Time, rec.TubePulseCount, marker)
		}
	}
	return nil
}

func readRecords(region *flash.Region, f datalog.Filter) ([]*frontend.DatalogRecord, error) {
	e, err := openEngine(region)
	if err != nil {
		return nil, err
	}
	r, ok := e.OpenRead()
	if !ok {
		return nil, errors.New("failed to open the datalog")
	}
	defer r.Close()

	var (
		recs []*frontend.DatalogRecord
		sent uint32
	)
	for !f.Exhausted(sent) {
		rec, ok := r.Next()
		if !ok {
			break
		}
		if f.Accept(rec, sent) {
			recs = append(recs, frontend.NewDatalogRecord(rec))
			sent++
		}
	}
	return recs, nil
}

// printSummary prints the mean and standard deviation of the count rate
// between consecutive records of the same session.
func printSummary(w io.Writer, recs []*frontend.DatalogRecord) {
	var (
		rates   []float64
		weights []float64
	)
	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		if cur.SessionStart || cur.Time <= prev.Time {
			continue
		}
		seconds := float64(cur.Time - prev.Time)
		pulses := float64(int32(cur.TubePulseCount - prev.TubePulseCount))
		rates = append(rates, 60*pulses/seconds)
		weights = append(weights, seconds)
	}

	fmt.Fprintf(w, "records: %d\n", len(recs))
	if len(recs) > 0 {
		fmt.Fprintf(w, "first: %d\nlast: %d\n", recs[0].Time, recs[len(recs)-1].Time)
	}
	if len(rates) == 0 {
		fmt.Fprintln(w, "rate: n/a")
		return
	}
	mean, std := stat.MeanStdDev(rates, weights)
	fmt.Fprintf(w, "rate: %.3f cpm (std %.3f, %d intervals)\n", mean, std, len(rates))
}
