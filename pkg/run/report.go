package run

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jset-tools/jset/pkg/cli"
)

// Print writes the end-of-run summary table and totals line.
func (s *Summary) Print(w io.Writer) {
	table := cli.NewTableTo(w, "DEVICE", "MGMT IP", "STATUS", "CONVERTED", "FAILED")
	for _, d := range s.Devices {
		status := cli.Green("ok")
		if d.SkipReason != "" {
			status = cli.Yellow("skipped: " + d.SkipReason)
		}
		converted, failed := 0, 0
		for _, f := range d.Files {
			if f.Err == nil {
				converted++
			} else {
				failed++
			}
		}
		table.Row(d.Hostname, d.MgmtIP, status, strconv.Itoa(converted), strconv.Itoa(failed))
	}
	table.Flush()

	fmt.Fprintf(w, "\n%d device(s) processed, %d skipped; %d file(s) converted, %d failed\n",
		s.DevicesProcessed(), s.DevicesSkipped(), s.FilesConverted(), s.FilesFailed())
}
