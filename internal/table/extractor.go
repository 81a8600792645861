package table

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tcossen/data-transform/internal/domain"
)

// Sheet holds the rows parsed from one CSV entry of an archive.
type Sheet struct {
	Name    string
	Headers []string
	Records []domain.Record
}

// Extractor parses the CSV entries of a zip archive.
type Extractor struct {
	log     zerolog.Logger
	workers int
}

// NewExtractor creates an Extractor that parses at most workers entries at once.
func NewExtractor(log zerolog.Logger, workers int) *Extractor {
	if workers < 1 {
		workers = 1
	}
	return &Extractor{log: log, workers: workers}
}

// ReadCSV returns every record of every CSV entry in dir/fileName, entries in
// archive order.
func (e *Extractor) ReadCSV(ctx context.Context, dir, fileName string) ([]domain.Record, error) {
	sheets, err := e.ReadSheets(ctx, dir, fileName)
	if err != nil {
		return nil, err
	}
	var records []domain.Record
	for _, s := range sheets {
		records = append(records, s.Records...)
	}
	return records, nil
}

// ReadSheets opens the archive and parses its CSV entries concurrently. It
// returns only after every entry has finished. Entries that are not CSV files
// are skipped with a warning and a failing entry is logged, not returned.
func (e *Extractor) ReadSheets(ctx context.Context, dir, fileName string) ([]Sheet, error) {
	archivePath := filepath.Join(dir, fileName)
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrFilesystem, archivePath, err)
		}
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrParse, archivePath, err)
	}
	defer zr.Close()

	var entries []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || path.Ext(f.Name) != ".csv" {
			e.log.Warn().Str("archive", fileName).Str("entry", f.Name).Msg("unexpected file in archive")
			continue
		}
		entries = append(entries, f)
	}

	sheets := make([]*Sheet, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, f := range entries {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			sheet, err := parseEntry(f)
			if err != nil {
				e.log.Error().Err(err).Str("entry", f.Name).Msg("error processing entry")
			} else {
				e.log.Info().Str("entry", f.Name).Int("rows", len(sheet.Records)).
					Dur("took", time.Since(start)).Msg("finished processing entry")
			}
			sheets[i] = sheet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]Sheet, 0, len(sheets))
	for _, s := range sheets {
		if s != nil {
			result = append(result, *s)
		}
	}
	return result, nil
}

// parseEntry reads one CSV entry using its first row as headers. Rows read
// before an error are kept in the returned sheet.
func parseEntry(f *zip.File) (*Sheet, error) {
	sheet := &Sheet{Name: f.Name}

	rc, err := f.Open()
	if err != nil {
		return sheet, fmt.Errorf("%w: open entry %s: %v", domain.ErrParse, f.Name, err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return sheet, nil
	}
	if err != nil {
		return sheet, fmt.Errorf("%w: read header of %s: %v", domain.ErrParse, f.Name, err)
	}
	sheet.Headers = header

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return sheet, nil
		}
		if err != nil {
			return sheet, fmt.Errorf("%w: read %s: %v", domain.ErrParse, f.Name, err)
		}
		sheet.Records = append(sheet.Records, toRecord(header, row))
	}
}

// toRecord maps row onto header. Missing trailing cells are left out and
// cells past the header are keyed "_<index>", unless a header already uses
// that name.
func toRecord(header, row []string) domain.Record {
	rec := make(domain.Record, len(row))
	for i, v := range row {
		if i < len(header) {
			rec[header[i]] = v
			continue
		}
		key := "_" + strconv.Itoa(i)
		if slices.Contains(header, key) {
			continue
		}
		rec[key] = v
	}
	return rec
}
