// Copyright Pritam Panda, 2026. All rights reserved.

package report

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pritampanda15/biomethod/pkg/types"
)

// supplementaryHeader is the column layout of the supplementary tool table.
var supplementaryHeader = []string{
	"Tool", "Version", "Category", "Parameters", "Locations", "Citation",
}

// WriteSupplementary writes the per-tool parameter table as CSV, one row
// per resolved tool in name order.
func WriteSupplementary(w io.Writer, res *types.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(supplementaryHeader); err != nil {
		return err
	}
	for _, name := range res.ToolNames() {
		f := res.Tools[name]
		version := f.Version
		if version == "" {
			version = "not specified"
		}
		var locs []string
		for _, l := range f.Locations {
			locs = append(locs, l.String())
		}
		citation := ""
		if f.Record != nil {
			citation = CiteKey(f.Record.Citation)
		}
		row := []string{
			f.Name,
			version,
			string(f.Category()),
			formatParams(f.Evidence()),
			strings.Join(locs, "; "),
			citation,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
