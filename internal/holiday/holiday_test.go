package holiday

import "testing"

func TestDefaultTable(t *testing.T) {
	tbl := New(nil)
	if label, ok := tbl.Lookup("2026-08-15"); !ok || label != "Independence Day" {
		t.Errorf("Lookup(2026-08-15) = %q,%v", label, ok)
	}
	if _, ok := tbl.Lookup("2026-08-16"); ok {
		t.Error("unexpected holiday on 2026-08-16")
	}
	dates := tbl.Dates()
	if len(dates) != 9 || dates[0] != "2026-01-26" || dates[8] != "2026-12-25" {
		t.Errorf("Dates = %v", dates)
	}
}

func TestCustomTableIsCopied(t *testing.T) {
	src := map[string]string{"2026-07-04": "Independence Day"}
	tbl := New(src)
	src["2026-07-04"] = "changed"
	if label, _ := tbl.Lookup("2026-07-04"); label != "Independence Day" {
		t.Errorf("table aliased its input: %q", label)
	}
	if _, ok := tbl.Lookup("2026-08-15"); ok {
		t.Error("custom table should replace the built-in one")
	}
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	if _, ok := tbl.Lookup("2026-08-15"); ok {
		t.Error("nil table returned a holiday")
	}
}
