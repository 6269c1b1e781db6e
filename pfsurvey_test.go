package pfsurvey

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSampleID(t *testing.T) {
	if id := SampleID("/data/mash/ERR1234.mash.tab", ".mash.tab"); id != "ERR1234" {
		t.Errorf("Expected ERR1234, got %s", id)
	}

	if id := SampleID("gs://bucket/run/kraken/S1.report", ".report"); id != "S1" {
		t.Errorf("Expected S1, got %s", id)
	}

	// Only suffixes are stripped
	if id := SampleID("tab.S2.tab", ".tab"); id != "tab.S2" {
		t.Errorf("Expected tab.S2, got %s", id)
	}
}

func TestRetainFiles(t *testing.T) {
	got := RetainFiles([]string{"a/x_1.fq.gz", "a/x_2.fq.gz", "b/y_1.fq.gz"}, "_1")
	if len(got) != 2 || got[0] != "a/x_1.fq.gz" || got[1] != "b/y_1.fq.gz" {
		t.Errorf("Unexpected retained files: %v", got)
	}
}

func TestDetermineDelimiter(t *testing.T) {
	csv := []byte("ID,file,ref,dist,p-value,match\nS1,a.fa,ref.fa,0.01,0,900/1000\nS2,b.fa,ref.fa,0.02,0,880/1000\n")
	if d := DetermineDelimiterBytes(csv, '?'); d != ',' {
		t.Errorf("Expected comma, got %q", d)
	}

	tsv := []byte("ID\tpercent\ttaxonomy\nS1\t90.0\tStaphylococcus aureus\nS2\t80.1\tStaphylococcus aureus\n")
	if d := DetermineDelimiterBytes(tsv, '?'); d != '\t' {
		t.Errorf("Expected tab, got %q", d)
	}
}

func TestOpenDecompresses(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("hello\tworld\n"))
	gz.Close()

	compressed := filepath.Join(dir, "a.tab.gz")
	if err := os.WriteFile(compressed, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "a.tab")
	if err := os.WriteFile(plain, []byte("hello\tworld\n"), 0644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.tab")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{compressed, plain} {
		rc, err := Open(context.Background(), path, nil)
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "hello\tworld\n" {
			t.Errorf("%s: unexpected content %q", path, b)
		}
	}

	rc, err := Open(context.Background(), empty, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := io.ReadAll(rc); len(b) != 0 {
		t.Errorf("Expected empty content, got %q", b)
	}
	rc.Close()
}
