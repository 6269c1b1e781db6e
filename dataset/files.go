package dataset

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfsurvey"
	"github.com/carbocation/pfsurvey/table"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

const (
	FastaExtension = ".fasta"
	FastqExtension = ".fq.gz"
	ForwardTail    = "_1"
	ReverseTail    = "_2"
)

// AddFilePaths indexes the assemblies (<resultDir>/<fastaDir>/*.fasta) and
// read pairs (<resultDir>/<fastqDir>/*_1.fq.gz, *_2.fq.gz) produced by the
// pipeline, replacing any previous index. At least one directory is required.
func (d *DataSet) AddFilePaths(resultDir, fastaDir, fastqDir string) error {
	if fastaDir == "" && fastqDir == "" {
		return fmt.Errorf("%w: specify a directory name for FASTA or FASTQ", ErrConfiguration)
	}

	log.Println("Getting file paths:", resultDir)

	if fastaDir != "" {
		t, err := indexFasta(filepath.Join(resultDir, fastaDir))
		if err != nil {
			return err
		}
		d.set(KindFasta, t)
	}

	if fastqDir != "" {
		t, err := indexFastq(filepath.Join(resultDir, fastqDir))
		if err != nil {
			return err
		}
		d.set(KindFastq, t)
	}

	d.Refresh()

	return nil
}

func globAbs(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, pfx.Err(err)
	}

	for i, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, pfx.Err(err)
		}
		matches[i] = abs
	}

	return matches, nil
}

func indexFasta(dir string) (*table.Table, error) {
	paths, err := globAbs(filepath.Join(dir, "*"+FastaExtension))
	if err != nil {
		return nil, err
	}

	t := table.New(KindFasta)
	for _, p := range paths {
		if err := t.AppendStrings(pfsurvey.SampleID(p, FastaExtension), p); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func indexFastq(dir string) (*table.Table, error) {
	forward, err := globAbs(filepath.Join(dir, "*"+ForwardTail+FastqExtension))
	if err != nil {
		return nil, err
	}
	reverse, err := globAbs(filepath.Join(dir, "*"+ReverseTail+FastqExtension))
	if err != nil {
		return nil, err
	}

	reverseByID := make(map[string]string, len(reverse))
	for _, p := range reverse {
		reverseByID[pfsurvey.SampleID(p, ReverseTail+FastqExtension)] = p
	}

	t := table.New("forward", "reverse")
	for _, p := range forward {
		id := pfsurvey.SampleID(p, ForwardTail+FastqExtension)
		if err := t.AppendStrings(id, p, reverseByID[id]); err != nil {
			return nil, err
		}
		delete(reverseByID, id)
	}
	for _, p := range reverse {
		id := pfsurvey.SampleID(p, ReverseTail+FastqExtension)
		if _, unpaired := reverseByID[id]; unpaired {
			if err := t.AppendStrings(id, "", p); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}

// LinkSequenceFiles places every indexed assembly in dir, as a symbolic link
// or a copy. With a naming index, files are renamed to <name>.fasta; samples
// missing from the index are skipped.
func (d *DataSet) LinkSequenceFiles(dir string, naming map[string]string, symlink bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pfx.Err(err)
	}

	t := d.tables[KindFasta]
	for i := range t.Rows {
		src := t.Value(i, KindFasta)
		if !src.Valid {
			continue
		}

		name := filepath.Base(src.String)
		if naming != nil {
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			renamed, exists := naming[stem]
			if !exists || renamed == "" {
				log.Printf("Could not find %s in the naming index, skipping\n", stem)
				continue
			}
			name = renamed + FastaExtension
		}

		if err := place(src.String, filepath.Join(dir, name), symlink); err != nil {
			return err
		}
	}

	return nil
}

// LinkReadFiles places every indexed read file in dir, as a symbolic link or
// a copy.
func (d *DataSet) LinkReadFiles(dir string, symlink bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pfx.Err(err)
	}

	t := d.tables[KindFastq]
	for _, row := range t.Rows {
		for _, src := range row {
			if !src.Valid {
				continue
			}
			if err := place(src.String, filepath.Join(dir, filepath.Base(src.String)), symlink); err != nil {
				return err
			}
		}
	}

	return nil
}

func place(src, dst string, symlink bool) error {
	if symlink {
		return pfx.Err(os.Symlink(src, dst))
	}

	in, err := os.Open(src)
	if err != nil {
		return pfx.Err(err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return pfx.Err(err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return pfx.Err(err)
	}

	return pfx.Err(out.Close())
}

type NamingEntry struct {
	ID   string `csv:"id"`
	Name string `csv:"name"`
}

// ReadNamingIndex loads an id,name CSV mapping sample identifiers to the
// names their files should be given.
func ReadNamingIndex(path string) (map[string]string, error) {
	rc, err := pfsurvey.Open(context.Background(), path, nil)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rc.Close()

	entries := []*NamingEntry{}
	if err := gocsv.Unmarshal(rc, &entries); err != nil {
		return nil, pfx.Err(err)
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Name
	}

	return out, nil
}
