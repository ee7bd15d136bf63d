package tool

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"

	"github.com/radpro/doselog/datalog"
	"github.com/radpro/doselog/flash"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Short:   "Prints the page states and usage of a flash image",
	Example: "doselog tool inspect --image flash.img",
	RunE:    executeInspect,
}

func executeInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	_, region, err := loadImage(cfg)
	if err != nil {
		return err
	}
	return inspect(os.Stdout, region)
}

// inspect prints one line per page of the region, then the state of the
// recovered log. Pages are read before recovery closes any of them.
func inspect(w io.Writer, region *flash.Region) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tSTATE\tWRITTEN")
	for page := region.Begin; page < region.End; page++ {
		state, err := region.State(page)
		if err != nil {
			return err
		}
		data, err := region.Read(page)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", page, state, bytefmt.ByteSize(uint64(written(data[:region.DataSize()]))))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	e, err := openEngine(region)
	if err != nil {
		return err
	}
	st, err := e.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nhead: page %d offset %d\n", st.HeadPage, st.HeadIndex)
	fmt.Fprintf(w, "tail: page %d\n", st.TailPage)
	fmt.Fprintf(w, "used: %d pages, %s of %s\n", st.UsedPages,
		bytefmt.ByteSize(uint64(st.UsedBytes)),
		bytefmt.ByteSize(uint64(region.Pages()*region.DataSize())))
	printLast(w, st)
	return nil
}

func printLast(w io.Writer, st datalog.Stats) {
	if !st.LastValid {
		fmt.Fprintln(w, "last sample: none")
		return
	}
	fmt.Fprintf(w, "last sample: time %d, pulse count %d\n", st.Last.Time, st.Last.PulseCount)
}

// written returns the length of data up to its last programmed byte.
func written(data []byte) int {
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] != flash.Erased {
			return i + 1
		}
	}
	return 0
}
