package parsers

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const krakenReport = "  90.00\t900\t10\tS\t1280\t    Staphylococcus aureus\n" +
	"  5.00\t50\t50\tS\t1282\t    Staphylococcus epidermidis\n" +
	"  5.00\t50\t0\tG\t1279\t  Staphylococcus\n"

const mykrobeReport = `{
  "ERR1": {
    "susceptibility": {
      "Rifampicin": {"predict": "R", "called_by": {"rpoB_S450L-S450L": {}, "rpoB_H445Y": {}}},
      "Isoniazid": {"predict": "S"}
    },
    "phylogenetics": {
      "lineage": {"lineage4.9": {"percent_coverage": 100}, "lineage4": {}}
    }
  }
}`

func TestNew(t *testing.T) {
	if _, err := New("nope"); err == nil || !strings.Contains(err.Error(), "kraken") {
		t.Errorf("Expected an error listing valid layouts, got %v", err)
	}
}

func TestKraken(t *testing.T) {
	f, _ := New("kraken")
	tab, err := f.ParseReader(strings.NewReader(krakenReport))
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() != 3 || len(tab.Columns) != len(KrakenColumns) {
		t.Fatalf("Unexpected shape %d x %v", tab.Len(), tab.Columns)
	}
	if p, ok := tab.Float(0, "percent"); !ok || p != 90 {
		t.Errorf("Expected percent 90, got %v", p)
	}
	// Indentation is removed by the aggregation transform, not the parser
	if tab.Value(0, "taxonomy").String != "    Staphylococcus aureus" {
		t.Errorf("Unexpected taxonomy %q", tab.Value(0, "taxonomy").String)
	}
}

func TestKrakenNonNumericPercent(t *testing.T) {
	f, _ := New("kraken")
	_, err := f.ParseReader(strings.NewReader("abc\t1\t1\tS\t1\tX\n"))

	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrMalformed) {
		t.Fatalf("Expected a malformed ParseError, got %v", err)
	}
	if pe.Line != 1 || pe.Format != "kraken" {
		t.Errorf("Unexpected error detail: %+v", pe)
	}
}

func TestMash(t *testing.T) {
	f, _ := New("mash")
	tab, err := f.ParseReader(strings.NewReader("ref.msh\tS1.fasta\t0.0123\t0\t870/1000\n"))
	if err != nil {
		t.Fatal(err)
	}
	if tab.Value(0, "match").String != "870/1000" || tab.Value(0, "dist").String != "0.0123" {
		t.Error("Mismatch")
	}

	_, err = f.ParseReader(strings.NewReader("ref.msh\tS1.fasta\t0.0123\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected a width error, got %v", err)
	}
}

func TestEmptyFileIsMalformed(t *testing.T) {
	f, _ := New("mash")
	if _, err := f.ParseReader(strings.NewReader("")); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for empty input, got %v", err)
	}
}

func TestMlstInfersAlleleColumns(t *testing.T) {
	f, _ := New("mlst")
	tab, err := f.ParseReader(strings.NewReader("S1.fasta\tsaureus\t15\tarcC(13)\taroE(13)\tglpF(1)\tgmk(1)\tpta(11)\ttpi(11)\tyqiL(13)\n"))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"file", "species", "sequence_type", "1", "2", "3", "4", "5", "6", "7"}
	if len(tab.Columns) != len(want) {
		t.Fatalf("Expected columns %v, got %v", want, tab.Columns)
	}
	for i := range want {
		if tab.Columns[i] != want[i] {
			t.Errorf("Column %d: expected %s, got %s", i, want[i], tab.Columns[i])
		}
	}
	if tab.Value(0, "sequence_type").String != "15" || tab.Value(0, "7").String != "yqiL(13)" {
		t.Error("Mismatch")
	}
}

func TestAbricateSkipsHeader(t *testing.T) {
	content := "#FILE\tSEQUENCE\tSTART\tEND\tGENE\tCOVERAGE\tCOVERAGE_MAP\tGAPS\t%COVERAGE\t%IDENTITY\tDATABASE\tACCESSION\tPRODUCT\n" +
		"S1.fasta\tcontig1\t100\t946\tblaZ_32\t1-846/846\t========\t0/0\t100.00\t100.00\tresfinder\tAP004832\tblaZ\n"

	f, _ := New("abricate")
	tab, err := f.ParseReader(strings.NewReader(content))
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() != 1 || tab.Value(0, "gene").String != "blaZ_32" || tab.Value(0, "identity").String != "100.00" {
		t.Error("Mismatch")
	}

	// No hits: header only
	tab, err = f.ParseReader(strings.NewReader(strings.SplitAfter(content, "\n")[0]))
	if err != nil {
		t.Fatal(err)
	}
	if !tab.Empty() {
		t.Error("Expected no rows")
	}
}

func TestKleborateHeader(t *testing.T) {
	f, _ := New("kleborate")
	tab, err := f.ParseReader(strings.NewReader("strain\tspecies\tst\nS1\tKlebsiella pneumoniae\tST258\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(tab.Columns) != 3 || tab.Value(0, "st").String != "ST258" {
		t.Error("Mismatch")
	}
}

func TestMykrobe(t *testing.T) {
	lineage, _ := New("mykrobe_lineage")
	tab, err := lineage.ParseReader(strings.NewReader(mykrobeReport))
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() != 2 || tab.Value(0, "lineage").String != "lineage4.9" || tab.Value(1, "lineage").String != "lineage4" {
		t.Errorf("Unexpected lineage rows: %v", tab.Rows)
	}

	phenotype, _ := New("mykrobe_phenotype")
	tab, err = phenotype.ParseReader(strings.NewReader(mykrobeReport))
	if err != nil {
		t.Fatal(err)
	}
	if len(tab.Columns) != 2 || tab.Columns[0] != "Rifampicin" || tab.Columns[1] != "Isoniazid" {
		t.Fatalf("Drug columns out of report order: %v", tab.Columns)
	}
	if tab.Value(0, "Rifampicin").String != "R" || tab.Value(0, "Isoniazid").String != "S" {
		t.Error("Mismatch")
	}

	genotype, _ := New("mykrobe_genotype")
	tab, err = genotype.ParseReader(strings.NewReader(mykrobeReport))
	if err != nil {
		t.Fatal(err)
	}
	if tab.Value(0, "Rifampicin").String != "rpoB_S450L-S450L,rpoB_H445Y" {
		t.Errorf("Unexpected genotype %q", tab.Value(0, "Rifampicin").String)
	}
	if tab.Value(0, "Isoniazid").Valid {
		t.Error("Uncalled drug should be null")
	}

	if _, err := genotype.ParseReader(strings.NewReader(`{"a": 1}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed without susceptibility, got %v", err)
	}
}

func TestFindKeyEncounterOrder(t *testing.T) {
	doc, err := DecodeOrdered(strings.NewReader(`{
		"z": {"target": 1},
		"a": [{"b": {"target": 2}}, {"target": 3}, "target"],
		"target": 4,
		"skip": {"target": {"target": 99}}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	found := FindKey(doc, "target")
	want := []string{"1", "2", "3", "4"}
	if len(found) != 5 {
		t.Fatalf("Expected 5 matches, got %d: %v", len(found), found)
	}
	for i, w := range want {
		if s, _ := scalarString(found[i]); s != w {
			t.Errorf("Match %d: expected %s, got %v", i, w, found[i])
		}
	}
	// The match is not searched further
	if _, ok := found[4].(*Object); !ok {
		t.Errorf("Expected the last match to be an object, got %T", found[4])
	}
}

func TestFindKeyThreeDepths(t *testing.T) {
	doc, err := DecodeOrdered(strings.NewReader(`{
		"lineage": "top",
		"x": {"y": {"lineage": "deep"}},
		"list": [{"lineage": "listed"}]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	found := FindKey(doc, "lineage")
	if len(found) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(found))
	}
	for i, w := range []string{"top", "deep", "listed"} {
		if found[i] != w {
			t.Errorf("Match %d: expected %s, got %v", i, w, found[i])
		}
	}
}

func TestParseFileGzip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(krakenReport))
	gz.Close()

	path := filepath.Join(dir, "S1.report.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	f, _ := New("kraken")
	tab, err := f.ParseFile(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tab.Len() != 3 {
		t.Errorf("Expected 3 rows, got %d", tab.Len())
	}

	_, err = f.ParseFile(context.Background(), filepath.Join(dir, "missing.report"), nil)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path == "" {
		t.Errorf("Expected a ParseError naming the path, got %v", err)
	}
}
