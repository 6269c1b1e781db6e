package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/carbocation/pfsurvey/table"
)

func tab(columns []string, rows map[string][][]string) *table.Table {
	ids := make([]string, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := table.New(columns...)
	for _, id := range ids {
		for _, r := range rows[id] {
			t.AppendStrings(id, r...)
		}
	}
	return t
}

func example() *DataSet {
	d := New("kraken", "mlst")
	d.Set("kraken", tab([]string{"percent", "level", "taxonomy"}, map[string][][]string{
		"S1": {{"95", "S", "Staphylococcus aureus"}, {"1", "S", "Staphylococcus epidermidis"}},
		"S2": {{"70", "S", "Staphylococcus aureus"}},
		"S3": {{"99", "S", "Staphylococcus aureus"}},
	}))
	d.Set("mlst", tab([]string{"species", "sequence_type"}, map[string][][]string{
		"S2":  {{"saureus", "15"}},
		"S3":  {{"saureus", "-"}},
		"S4":  {{"saureus", "15"}},
		"S10": {{"saureus", "8"}},
	}))
	return d
}

func sameIDs(t *testing.T, got []string, want ...string) {
	t.Helper()
	g := append([]string{}, got...)
	w := append([]string{}, want...)
	sort.Strings(g)
	sort.Strings(w)
	if len(g) != len(w) {
		t.Fatalf("Expected %v, got %v", w, g)
	}
	for i := range g {
		if g[i] != w[i] {
			t.Fatalf("Expected %v, got %v", w, g)
		}
	}
}

func TestKindsOrder(t *testing.T) {
	d := New("kraken", "mlst")
	kinds := d.Kinds()
	want := []string{KindFasta, KindFastq, "kraken", "mlst"}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, kinds)
		}
	}
	if a := d.AnalysisKinds(); len(a) != 2 || a[0] != "kraken" {
		t.Errorf("Unexpected analysis kinds: %v", a)
	}
	if err := d.Set(KindIID, table.New()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration when setting %s, got %v", KindIID, err)
	}
}

func TestIIDsNaturalOrder(t *testing.T) {
	ids := example().IIDs()
	want := []string{"S1", "S2", "S3", "S4", "S10"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, ids)
		}
	}
}

func TestTableIsACopy(t *testing.T) {
	d := example()
	k, _ := d.Table("kraken")
	k.Rows = nil
	k.Index = nil

	again, _ := d.Table("kraken")
	if again.Len() != 4 {
		t.Error("Mutating a returned table changed the data set")
	}
}

func TestRemoveIdempotent(t *testing.T) {
	d := example()
	rs := RemovalSet{"kraken": {"S2", "S9"}}

	d.Remove(rs, false)
	k, _ := d.Table("kraken")
	sameIDs(t, k.IDs(), "S1", "S3")

	// Removal does not propagate to other kinds
	m, _ := d.Table("mlst")
	if !m.Has("S2") {
		t.Error("S2 was removed from mlst")
	}

	d.Remove(rs, false)
	k2, _ := d.Table("kraken")
	if k2.Len() != k.Len() {
		t.Error("Second removal removed more rows")
	}
}

func TestRemoveRetain(t *testing.T) {
	d := example()
	d.Remove(RemovalSet{"mlst": {"S3"}}, true)

	m, _ := d.Table("mlst")
	sameIDs(t, m.IDs(), "S3")
	sameIDs(t, d.IIDs(), "S1", "S2", "S3")
}

func TestComplete(t *testing.T) {
	d := New("kind_a", "kind_b")
	d.Set("kind_a", tab([]string{"x"}, map[string][][]string{"S1": {{"1"}}, "S2": {{"1"}}, "S3": {{"1"}}}))
	d.Set("kind_b", tab([]string{"x"}, map[string][][]string{"S2": {{"1"}}, "S3": {{"1"}}, "S4": {{"1"}}}))

	if err := d.Complete([]string{"kind_a", "kind_b"}); err != nil {
		t.Fatal(err)
	}
	sameIDs(t, d.IIDs(), "S2", "S3")

	a, _ := d.Table("kind_a")
	sameIDs(t, a.IDs(), "S2", "S3")
}

func TestCompleteDefaultAndMissing(t *testing.T) {
	d := example()
	if err := d.Complete(nil); err != nil {
		t.Fatal(err)
	}
	sameIDs(t, d.IIDs(), "S2", "S3")

	if err := example().Complete([]string{"kraken", "abricate_plasmid"}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("Expected ErrMissingInput, got %v", err)
	}
}

func TestAdd(t *testing.T) {
	a := New("mlst")
	a.Set("mlst", tab([]string{"sequence_type"}, map[string][][]string{"S1": {{"15"}}}))
	b := New("mlst", "mash")
	b.Set("mlst", tab([]string{"sequence_type", "1"}, map[string][][]string{"S2": {{"8", "arcC(3)"}}}))
	b.Set("mash", tab([]string{"dist"}, map[string][][]string{"S2": {{"0.01"}}}))

	if err := a.Add(b); err != nil {
		t.Fatal(err)
	}
	sameIDs(t, a.IIDs(), "S1", "S2")

	m, _ := a.Table("mlst")
	if len(m.Columns) != 2 || m.Value(0, "1").Valid {
		t.Errorf("Expected an outer union of columns, got %v %v", m.Columns, m.Rows)
	}
	if _, ok := a.Table("mash"); !ok {
		t.Error("Kinds only in the other data set should be added")
	}
}

func TestAddOverlapFailsFast(t *testing.T) {
	a := example()
	b := New("mlst")
	b.Set("mlst", tab([]string{"species", "sequence_type"}, map[string][][]string{"S2": {{"saureus", "15"}}}))

	before, _ := a.Table("mlst")
	if err := a.Add(b); !errors.Is(err, ErrOverlap) {
		t.Fatalf("Expected ErrOverlap, got %v", err)
	}
	after, _ := a.Table("mlst")
	if after.Len() != before.Len() {
		t.Error("A failed Add modified the receiver")
	}
}

func TestSubsetAlignment(t *testing.T) {
	d := example()
	want := []string{"S1", "S4", "S99"}

	sub := d.Subset(want, false)
	for _, k := range sub.Kinds() {
		tb, _ := sub.Table(k)
		sameIDs(t, tb.IDs(), want...)
	}

	m, _ := sub.Table("mlst")
	for i, id := range m.Index {
		if id == "S1" && (m.Rows[i][0].Valid || m.Rows[i][1].Valid) {
			t.Error("Inserted rows should be null")
		}
	}

	// The receiver is untouched
	k, _ := d.Table("kraken")
	if k.Has("S99") || k.Len() != 4 {
		t.Error("Subset modified the source data set")
	}

	d.Subset([]string{"S3"}, true)
	sameIDs(t, d.IIDs(), "S3")
}

func TestSelect(t *testing.T) {
	d := example()

	byValue, err := d.Select("mlst", "sequence_type", SelectOptions{Values: []string{"15"}})
	if err != nil {
		t.Fatal(err)
	}
	sameIDs(t, byValue.IIDs(), "S2", "S4")

	byCount, err := d.Select("mlst", "sequence_type", SelectOptions{MinCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	sameIDs(t, byCount.IIDs(), "S2", "S4")

	sampled, err := d.Select("mlst", "sequence_type", SelectOptions{MinCount: 1, Sample: 1})
	if err != nil {
		t.Fatal(err)
	}
	if ids := sampled.IIDs(); len(ids) != 1 || (ids[0] != "S2" && ids[0] != "S4") {
		t.Errorf("Expected one of S2/S4, got %v", ids)
	}

	all, err := d.Select("mlst", "sequence_type", SelectOptions{})
	if err != nil {
		t.Fatal(err)
	}
	sameIDs(t, all.IIDs(), "S2", "S3", "S4", "S10")
}

func TestSelectConfigurationErrors(t *testing.T) {
	d := example()

	cases := []SelectOptions{
		{Values: []string{"15"}, MinCount: 1},
		{Sample: 2},
		{MinCount: -1},
	}
	for _, opts := range cases {
		if _, err := d.Select("mlst", "sequence_type", opts); !errors.Is(err, ErrConfiguration) {
			t.Errorf("%+v: expected ErrConfiguration, got %v", opts, err)
		}
	}

	if _, err := d.Select("mlst", "nope", SelectOptions{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration for an unknown column, got %v", err)
	}
	if _, err := d.Select("mash", "dist", SelectOptions{}); !errors.Is(err, ErrMissingInput) {
		t.Errorf("Expected ErrMissingInput for an unknown kind, got %v", err)
	}
}

func TestGroupBy(t *testing.T) {
	d := example()

	groupings, err := d.GroupBy("mlst", "sequence_type", false)
	if err != nil {
		t.Fatal(err)
	}

	var kraken table.Groups
	for _, g := range groupings {
		if g.Kind == "kraken" {
			kraken = g.Groups
		}
	}

	// S1 has no sequence type and belongs to no group
	if len(kraken.Keys) != 2 {
		t.Fatalf("Expected groups 15 and -, got %v", kraken.Keys)
	}
	sameIDs(t, kraken.Tables["15"].IDs(), "S2")
	sameIDs(t, kraken.Tables["-"].IDs(), "S3")

	k, _ := d.Table("kraken")
	if k.HasColumn("sequence_type") {
		t.Error("GroupBy without setIndex must not modify tables")
	}

	if _, err := d.GroupBy("mlst", "sequence_type", true); err != nil {
		t.Fatal(err)
	}
	k, _ = d.Table("kraken")
	if !k.HasColumn("sequence_type") {
		t.Error("GroupBy with setIndex should annotate tables")
	}
}

func TestByIdentifierPresence(t *testing.T) {
	p := example().ByIdentifierPresence()

	if len(p.Kinds) != 2 || len(p.IDs) != 5 {
		t.Fatalf("Unexpected shape %v x %v", p.IDs, p.Kinds)
	}
	if present, known := p.Get("S1", "kraken"); !known || !present {
		t.Error("S1 should be present in kraken")
	}
	if present, known := p.Get("S1", "mlst"); !known || present {
		t.Error("S1 should be absent from mlst")
	}
	if _, known := p.Get("S1", KindFasta); known {
		t.Error("Path indexes are not part of the presence table")
	}

	tab, err := p.Table()
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() != 5 || tab.Value(0, "kraken").String != "true" || tab.Value(0, "mlst").String != "false" {
		t.Errorf("Unexpected presence table %+v", tab)
	}

	iid, err := example().IIDTable()
	if err != nil {
		t.Fatal(err)
	}
	if iid.Len() != 5 || iid.Index[0] != "S1" {
		t.Errorf("Unexpected identifier table %+v", iid)
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	d := example()
	d.Set("mash", table.New("dist", "match"))

	if err := d.Write(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, KindIID+Extension)); err != nil {
		t.Error("Expected the identifier list to be written")
	}

	got := New("kraken", "mlst", "mash")
	if err := got.Read(dir); err != nil {
		t.Fatal(err)
	}

	for _, k := range d.Kinds() {
		want, _ := d.Table(k)
		have, ok := got.Table(k)
		if !ok {
			t.Fatalf("%s was not read back", k)
		}
		if have.Len() != want.Len() || len(have.Columns) != len(want.Columns) {
			t.Fatalf("%s: shape mismatch", k)
		}
		for i := range want.Rows {
			if have.Index[i] != want.Index[i] {
				t.Errorf("%s row %d: index mismatch", k, i)
			}
			for j := range want.Rows[i] {
				if have.Rows[i][j] != want.Rows[i][j] {
					t.Errorf("%s row %d col %d: %v != %v", k, i, j, have.Rows[i][j], want.Rows[i][j])
				}
			}
		}
	}
	sameIDs(t, got.IIDs(), d.IIDs()...)

	if err := New().Read(filepath.Join(dir, "missing")); !errors.Is(err, ErrMissingInput) {
		t.Errorf("Expected ErrMissingInput, got %v", err)
	}
}

func TestEmpty(t *testing.T) {
	if !New("kraken").Empty() {
		t.Error("A new data set should be empty")
	}
	if example().Empty() {
		t.Error("Example data set should not be empty")
	}
}
