// Package holiday is the static date -> label table used to annotate the week
// header and the mini-calendar.
package holiday

import "sort"

// India2026 is the built-in table. Several dates follow the lunar calendar
// and are approximate.
var India2026 = map[string]string{
	"2026-01-26": "Republic Day",
	"2026-03-03": "Holi",
	"2026-03-20": "Eid-ul-Fitr",
	"2026-04-14": "Ambedkar Jayanti",
	"2026-08-15": "Independence Day",
	"2026-10-02": "Gandhi Jayanti",
	"2026-10-20": "Dussehra",
	"2026-11-08": "Diwali",
	"2026-12-25": "Christmas",
}

// Table is a read-only date (YYYY-MM-DD) -> label lookup.
type Table struct {
	entries map[string]string
}

// New copies entries into a Table. A nil or empty map yields the built-in
// India2026 table.
func New(entries map[string]string) *Table {
	if len(entries) == 0 {
		entries = India2026
	}
	cp := make(map[string]string, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return &Table{entries: cp}
}

func (t *Table) Lookup(date string) (string, bool) {
	if t == nil {
		return "", false
	}
	label, ok := t.entries[date]
	return label, ok
}

// Dates returns the table's dates in ascending order.
func (t *Table) Dates() []string {
	out := make([]string, 0, len(t.entries))
	for d := range t.entries {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
