package survey

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfsurvey"
	"github.com/carbocation/pfsurvey/dataset"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// Discover lists each process's result files under root, which is either a
// local directory or, when client is set, a gs:// prefix. Every process gets
// an entry, empty when nothing matched. A missing root is ErrMissingInput.
func Discover(ctx context.Context, root string, ps []Process, client *storage.Client) (map[string][]string, error) {
	if client != nil && pfsurvey.IsGS(root) {
		return discoverGS(ctx, root, ps, client)
	}

	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: result directory %s does not exist", dataset.ErrMissingInput, root)
	}

	out := make(map[string][]string, len(ps))
	for _, p := range ps {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(p.Dir), p.Pattern))
		if err != nil {
			return nil, pfx.Err(err)
		}
		sort.Strings(matches)
		out[p.Kind] = matches
	}

	return out, nil
}

func discoverGS(ctx context.Context, root string, ps []Process, client *storage.Client) (map[string][]string, error) {
	bucketName, prefix, err := pfsurvey.SplitGSPath(strings.TrimSuffix(root, "/") + "/")
	if err != nil {
		return nil, err
	}
	bucket := client.Bucket(bucketName)

	// The root exists if anything at all lives below it.
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	if _, err := it.Next(); err == iterator.Done {
		return nil, fmt.Errorf("%w: no objects below %s", dataset.ErrMissingInput, root)
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	// Several processes share a directory; list each once.
	listed := make(map[string][]string)

	out := make(map[string][]string, len(ps))
	for _, p := range ps {
		dir := prefix + strings.TrimSuffix(p.Dir, "/") + "/"

		names, exists := listed[dir]
		if !exists {
			names, err = listGS(ctx, bucket, dir)
			if err != nil {
				return nil, err
			}
			listed[dir] = names
		}

		matches := make([]string, 0)
		for _, name := range names {
			ok, err := path.Match(p.Pattern, path.Base(name))
			if err != nil {
				return nil, pfx.Err(err)
			}
			if ok {
				matches = append(matches, pfsurvey.GSPrefix+bucketName+"/"+name)
			}
		}
		out[p.Kind] = matches
	}

	return out, nil
}

// listGS returns the names of the objects directly inside dir.
func listGS(ctx context.Context, bucket *storage.BucketHandle, dir string) ([]string, error) {
	it := bucket.Objects(ctx, &storage.Query{Prefix: dir, Delimiter: "/"})

	names := make([]string, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		// Pseudo-directories come back with only a prefix set
		if attrs.Name == "" {
			continue
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)

	return names, nil
}
