package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestAddFilePaths(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "skesa", "S1.fasta"), ">c1\nACGT\n")
	touch(t, filepath.Join(root, "skesa", "S2.fasta"), ">c1\nACGT\n")
	touch(t, filepath.Join(root, "trimmomatic", "S1_1.fq.gz"), "")
	touch(t, filepath.Join(root, "trimmomatic", "S1_2.fq.gz"), "")
	touch(t, filepath.Join(root, "trimmomatic", "S3_2.fq.gz"), "")

	d := New("kraken")
	if err := d.AddFilePaths(root, "", ""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}

	if err := d.AddFilePaths(root, "skesa", "trimmomatic"); err != nil {
		t.Fatal(err)
	}
	sameIDs(t, d.IIDs(), "S1", "S2", "S3")

	fasta, _ := d.Table(KindFasta)
	if fasta.Len() != 2 || !filepath.IsAbs(fasta.Value(0, KindFasta).String) {
		t.Errorf("Unexpected fasta index: %v", fasta.Rows)
	}

	fastq, _ := d.Table(KindFastq)
	if fastq.Len() != 2 {
		t.Fatalf("Expected 2 read entries, got %d", fastq.Len())
	}
	for i, id := range fastq.Index {
		switch id {
		case "S1":
			if !fastq.Value(i, "forward").Valid || !fastq.Value(i, "reverse").Valid {
				t.Error("S1 should be paired")
			}
		case "S3":
			if fastq.Value(i, "forward").Valid || !fastq.Value(i, "reverse").Valid {
				t.Error("S3 only has a reverse file")
			}
		}
	}

	out := filepath.Join(root, "reads")
	if err := d.LinkReadFiles(out, true); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(out); len(entries) != 3 {
		t.Errorf("Expected 3 linked read files, got %d", len(entries))
	}
}

func TestLinkSequenceFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "skesa", "S1.fasta"), ">c1\nACGT\n")
	touch(t, filepath.Join(root, "skesa", "S2.fasta"), ">c1\nGGCC\n")

	d := New()
	if err := d.AddFilePaths(root, "skesa", ""); err != nil {
		t.Fatal(err)
	}

	linked := filepath.Join(root, "linked")
	if err := d.LinkSequenceFiles(linked, nil, true); err != nil {
		t.Fatal(err)
	}
	if target, err := os.Readlink(filepath.Join(linked, "S1.fasta")); err != nil || filepath.Base(target) != "S1.fasta" {
		t.Errorf("Expected a symbolic link to S1.fasta, got %s (%v)", target, err)
	}

	touch(t, filepath.Join(root, "index.csv"), "id,name\nS2,saureus_0002\n")
	naming, err := ReadNamingIndex(filepath.Join(root, "index.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if naming["S2"] != "saureus_0002" {
		t.Fatalf("Unexpected naming index %v", naming)
	}

	copied := filepath.Join(root, "copied")
	if err := d.LinkSequenceFiles(copied, naming, false); err != nil {
		t.Fatal(err)
	}

	// S1 is not in the index and is skipped
	entries, _ := os.ReadDir(copied)
	if len(entries) != 1 || entries[0].Name() != "saureus_0002.fasta" {
		t.Fatalf("Unexpected copied files: %v", entries)
	}
	content, _ := os.ReadFile(filepath.Join(copied, "saureus_0002.fasta"))
	if string(content) != ">c1\nGGCC\n" {
		t.Errorf("Unexpected copied content %q", content)
	}
}
