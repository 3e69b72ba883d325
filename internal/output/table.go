package output

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

const tableIndent = "   "

// Table renders header and rows as an indented, left-justified table with
// a dashed underline beneath the header. Cell order is the caller's
// responsibility; Table never reorders rows.
func (p *Printer) Table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	underline := make([]string, len(header))
	for i, h := range header {
		underline[i] = strings.Repeat("-", len(h))
	}

	writeRow(tw, header)
	writeRow(tw, underline)
	for _, row := range rows {
		writeRow(tw, row)
	}
	tw.Flush()
}

func writeRow(tw *tabwriter.Writer, cells []string) {
	fmt.Fprintf(tw, "%s%s\n", tableIndent, strings.Join(cells, "\t"))
}
