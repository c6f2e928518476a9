// Package report exports duplicate groups as CSV.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ivoronin/dupekeeper/internal/types"
)

var header = []string{"kind", "group_key", "size_bytes", "keep_path", "others_count", "other_path"}

// WriteCSV writes one row per redundant path. A group without redundant
// paths still gets a single row with others_count 0 and an empty other_path.
func WriteCSV(w io.Writer, groups []types.DuplicateGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, g := range groups {
		prefix := []string{
			g.Kind().String(),
			g.Key.String(),
			strconv.FormatInt(g.Size, 10),
			g.Keep.Path,
			strconv.Itoa(len(g.Others)),
		}
		if len(g.Others) == 0 {
			if err := cw.Write(append(prefix, "")); err != nil {
				return err
			}
			continue
		}
		for _, o := range g.Others {
			row := append(append([]string(nil), prefix...), o.Path)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
