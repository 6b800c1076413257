package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ssargent/modtool/pkg/catalog"
)

type entryJSON struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Size    uint32 `json:"size"`
	Source  string `json:"source"`
	Index   int    `json:"index"`
}

// outputEntries displays catalog entries
func outputEntries(w io.Writer, entries []catalog.Entry, format string) error {
	switch format {
	case "json":
		return outputEntriesJSON(w, entries)
	case "table", "":
		return outputEntriesTable(w, entries)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// outputEntriesTable displays entries in table format
func outputEntriesTable(w io.Writer, entries []catalog.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tSIZE\tSOURCE\tINDEX")
	for _, e := range entries {
		fmt.Fprintf(tw, "%#x\t%#x\t%s\t%d\n", e.Address, e.Size, e.Source, e.Index)
	}
	return tw.Flush()
}

// outputEntriesJSON displays entries as a JSON array
func outputEntriesJSON(w io.Writer, entries []catalog.Entry) error {
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = entryJSON{
			ID:      e.ID.String(),
			Address: fmt.Sprintf("%#x", e.Address),
			Size:    e.Size,
			Source:  e.Source,
			Index:   e.Index,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
