package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tcossen/data-transform/internal/domain"
	"github.com/tcossen/data-transform/internal/export"
	"github.com/tcossen/data-transform/internal/fetch"
	"github.com/tcossen/data-transform/internal/table"
)

// Lookup names one cell of the shaped table.
type Lookup struct {
	Row    string
	Column string
}

// ParseLookup parses "ROW:COLUMN". The row ends at the first colon.
func ParseLookup(s string) (Lookup, error) {
	row, column, ok := strings.Cut(s, ":")
	if !ok || row == "" || column == "" {
		return Lookup{}, fmt.Errorf("invalid lookup %q, expected ROW:COLUMN", s)
	}
	return Lookup{Row: row, Column: column}, nil
}

// LookupResult is a resolved Lookup. Found is false when the row or column is absent.
type LookupResult struct {
	Lookup
	Value string
	Found bool
}

// Options controls a single run.
type Options struct {
	DownloadDir string
	ArchiveName string
	Validate    bool
	RowKey      string
	Lookups     []Lookup
	XLSXOutput  string
}

// Result carries everything a run produced.
type Result struct {
	Download  *fetch.Summary
	Sheets    []table.Sheet
	Records   []domain.Record
	Financial []domain.FinancialData
	Table     *table.Table
	Lookups   []LookupResult
}

type TransformService struct {
	downloader *fetch.Downloader
	extractor  *table.Extractor
	log        zerolog.Logger
}

func NewTransformService(downloader *fetch.Downloader, extractor *table.Extractor, log zerolog.Logger) *TransformService {
	return &TransformService{
		downloader: downloader,
		extractor:  extractor,
		log:        log,
	}
}

// Run downloads the bucket into opts.DownloadDir, extracts the CSV entries of
// opts.ArchiveName and applies the optional validation, lookup and export steps.
func (s *TransformService) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.ArchiveName == "" {
		return nil, fmt.Errorf("archive name must be provided")
	}
	if len(opts.Lookups) > 0 && opts.RowKey == "" {
		return nil, fmt.Errorf("lookups require a row key")
	}

	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to ensure download dir %s: %v", domain.ErrFilesystem, opts.DownloadDir, err)
	}

	summary, err := s.downloader.DownloadAll(ctx, opts.DownloadDir)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int("downloaded", len(summary.Downloaded)).
		Int("failed", len(summary.Failed)).
		Msg("download finished")

	sheets, err := s.extractor.ReadSheets(ctx, opts.DownloadDir, opts.ArchiveName)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", opts.ArchiveName, err)
	}

	result := &Result{Download: summary, Sheets: sheets}
	for _, sheet := range sheets {
		result.Records = append(result.Records, sheet.Records...)
	}

	if opts.Validate {
		result.Financial = make([]domain.FinancialData, 0, len(result.Records))
		for i, rec := range result.Records {
			data, err := domain.ParseFinancialData(rec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			result.Financial = append(result.Financial, data)
		}
		s.log.Info().Int("records", len(result.Financial)).Msg("all records valid")
	}

	if opts.RowKey != "" {
		tbl, err := table.Shape(table.MergeHeaders(sheets), result.Records, opts.RowKey)
		if err != nil {
			return nil, err
		}
		result.Table = tbl
		for _, l := range opts.Lookups {
			value, found := tbl.Value(l.Row, l.Column)
			result.Lookups = append(result.Lookups, LookupResult{Lookup: l, Value: value, Found: found})
		}
	}

	if opts.XLSXOutput != "" {
		if err := export.WriteXLSX(opts.XLSXOutput, sheets); err != nil {
			return nil, err
		}
		s.log.Info().Str("path", opts.XLSXOutput).Msg("wrote xlsx export")
	}

	return result, nil
}
