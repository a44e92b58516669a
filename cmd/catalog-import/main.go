// Command catalog-import bulk-loads gzipped CSV catalog dumps into the
// backend. Dumps from legacy systems overlap heavily, so the tool first
// builds per-file bloom filters of product names to drop cross-file
// duplicates cheaply, then submits the surviving rows sequentially.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/storekeep/storekeep/internal/catalog"
	"github.com/storekeep/storekeep/internal/restapi"
	"github.com/storekeep/storekeep/internal/transfer"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

func main() {
	var serverURL string
	flag.StringVar(&serverURL, "server", "", "backend base URL (or STOREKEEP_SERVER env)")
	flag.Parse()

	if serverURL == "" {
		serverURL = os.Getenv("STOREKEEP_SERVER")
	}
	if serverURL == "" {
		serverURL = "http://localhost:3000"
	}

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no dump files given: catalog-import [flags] dump1.csv.gz ...")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, serverURL, files); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, serverURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: per-file name filters, built concurrently.
	slog.Info("pass 1: building name filters", slog.Int("files", len(files)))

	filters, err := buildNameFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build name filters")
	}

	// Pass 2: keep the first occurrence of every name across all files.
	slog.Info("pass 2: collecting unique rows")

	rows, skipped, err := collectUniqueRows(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "collect rows")
	}

	slog.Info("rows collected",
		slog.Int("unique", len(rows)),
		slog.Int("cross_file_duplicates", skipped),
	)
	if len(rows) == 0 {
		slog.Info("nothing to import")
		return nil
	}

	client, err := restapi.NewClient(serverURL, restapi.WithUserAgent("catalog-import"))
	if err != nil {
		return errors.Wrap(err, "create backend client")
	}

	manager := catalog.New(client)
	if err := manager.Load(ctx); err != nil {
		return errors.Wrap(err, "load current catalog")
	}

	text := transfer.CSVHeader + "\n" + strings.Join(rows, "\n")
	result, err := transfer.NewImporter(manager, nil).Run(ctx, text)
	if err != nil {
		return errors.Wrap(err, "import rows")
	}

	slog.Info("import finished",
		slog.Int("submitted", result.Submitted),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("dropped", result.Dropped),
		slog.Int("failed", len(result.Failures)),
	)
	for _, f := range result.Failures {
		slog.Warn("row rejected", slog.String("name", f.Name), slog.String("error", f.Err.Error()))
	}
	return nil
}

// buildNameFilters creates one bloom filter of product names per file.
func buildNameFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			if name := nameField(line); name != "" {
				filter.AddString(strings.ToLower(name))
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", idx+1), slog.Uint64("rows", count))
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete", slog.Int("file", idx+1), slog.Uint64("rows", count))
		filters[idx] = filter
		return nil
	}
}

// collectUniqueRows streams files in order and keeps the first row for every
// name. Names that an earlier file's filter claims to contain are dropped;
// the filter's false positive rate makes that an acceptable, rare loss for
// dump-sized inputs.
func collectUniqueRows(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, int, error) {
	var (
		rows    []string
		skipped int
	)
	seen := make(map[string]struct{})

	for idx, path := range files {
		err := streamGzFile(ctx, path, func(line string) {
			name := nameField(line)
			if name == "" {
				return
			}
			key := strings.ToLower(name)

			if _, ok := seen[key]; ok {
				skipped++
				return
			}
			for j := range idx {
				if filters[j].TestString(key) {
					skipped++
					return
				}
			}

			seen[key] = struct{}{}
			rows = append(rows, line)
		})
		if err != nil {
			return nil, 0, errors.Wrapf(err, "scan file %d", idx+1)
		}
	}
	return rows, skipped, nil
}

// nameField extracts the name column from a raw CSV line, skipping the
// header. Splitting is the same raw comma split the importer uses.
func nameField(line string) string {
	fields := strings.Split(line, ",")
	if len(fields) < 2 || fields[1] == "Name" {
		return ""
	}
	return fields[1]
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
