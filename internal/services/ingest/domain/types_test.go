package domain

import "testing"

func TestTableDefNames(t *testing.T) {
	t.Parallel()

	def := TableDef{Name: "public.items", PrimaryKey: []string{"id"}, Columns: []ColumnSpec{
		{Name: "id", Type: TypeInteger},
		{Name: "owner", Source: "owner.login", Type: TypeString},
	}}
	if def.Schema() != "public" || def.Table() != "items" {
		t.Fatalf("split = %q %q", def.Schema(), def.Table())
	}
	if (TableDef{Name: "items"}).Schema() != "" {
		t.Fatalf("unqualified name has no schema")
	}
	c, ok := def.Column("owner")
	if !ok || c.SourcePath() != "owner.login" {
		t.Fatalf("Column(owner) = %+v %v", c, ok)
	}
	if id, _ := def.Column("id"); id.SourcePath() != "id" {
		t.Fatalf("source defaults to name")
	}
	if !def.IsKey("id") || def.IsKey("owner") {
		t.Fatalf("IsKey mismatch")
	}
}

func TestRowKeyAndReport(t *testing.T) {
	t.Parallel()

	row := NormalizedRow{Columns: []string{"id", "name"}, Values: []any{int64(1), "a"}}
	if k := row.Key([]string{"id"}); len(k) != 1 || k[0] != int64(1) {
		t.Fatalf("Key = %v", k)
	}
	if _, ok := row.Get("missing"); ok {
		t.Fatalf("missing column found")
	}

	r := LoadReport{Counts: Counts{Fetched: 4, Normalized: 3, NormalizeFailed: 1, Accepted: 2, Rejected: 1, Inserted: 1, Unchanged: 1}}
	if !r.Consistent() {
		t.Fatalf("report should be consistent: %+v", r.Counts)
	}
	r.Counts.Inserted = 0
	if r.Consistent() {
		t.Fatalf("missing load count should break consistency")
	}
	r.DryRun = true
	if !r.Consistent() {
		t.Fatalf("dry run skips load counts")
	}
}

func TestColumnType(t *testing.T) {
	t.Parallel()

	if !TypeJSON.Valid() || ColumnType("uuid").Valid() {
		t.Fatalf("Valid mismatch")
	}
	if !TypeFloat.Numeric() || TypeString.Numeric() {
		t.Fatalf("Numeric mismatch")
	}
	if !StageDone.Terminal() || StageLoading.Terminal() {
		t.Fatalf("Terminal mismatch")
	}
}
