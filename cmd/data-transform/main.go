package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tcossen/data-transform/internal/config"
	"github.com/tcossen/data-transform/internal/fetch"
	"github.com/tcossen/data-transform/internal/service"
	"github.com/tcossen/data-transform/internal/storage"
	"github.com/tcossen/data-transform/internal/table"
	"github.com/tcossen/data-transform/pkg/logger"
)

func main() {
	if err := newApp(config.Load()).Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("data-transform failed")
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:      "data-transform",
		Usage:     "Retrieves and transforms financial data from a public S3 bucket",
		Version:   "1.0.0",
		ArgsUsage: "<bucketUrl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "directory",
				Aliases: []string{"d"},
				Usage:   "the directory that data is downloaded to",
				Value:   cfg.App.DownloadDir,
			},
			&cli.StringFlag{
				Name:    "archive",
				Aliases: []string{"a"},
				Usage:   "name of the downloaded zip archive to extract",
				Value:   cfg.App.ArchiveName,
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "storage backend: http, s3 or minio",
				Value: cfg.Storage.Backend,
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "only list keys starting with this prefix",
				Value: cfg.Bucket.Prefix,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "HTTP client timeout for the http backend (0 disables)",
				Value: cfg.Bucket.HTTPTimeout,
			},
			&cli.StringFlag{Name: "s3-endpoint", Usage: "S3-compatible endpoint", Value: cfg.Storage.Endpoint},
			&cli.StringFlag{Name: "s3-access-key", Usage: "S3 access key", Value: cfg.Storage.AccessKey},
			&cli.StringFlag{Name: "s3-secret-key", Usage: "S3 secret key", Value: cfg.Storage.SecretKey},
			&cli.StringFlag{Name: "s3-bucket", Usage: "S3 bucket name", Value: cfg.Storage.Bucket},
			&cli.StringFlag{Name: "s3-region", Usage: "S3 region", Value: cfg.Storage.Region},
			&cli.BoolFlag{Name: "s3-use-ssl", Usage: "use https for endpoints without a scheme", Value: cfg.Storage.UseSSL},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "number of archive entries parsed concurrently",
				Value: cfg.App.ExtractWorkers,
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "reject the run if any record fails the id/scale schema",
				Value: cfg.App.Validate,
			},
			&cli.StringFlag{
				Name:  "row-key",
				Usage: "column whose value names each row of the lookup table",
				Value: cfg.App.RowKey,
			},
			&cli.StringSliceFlag{
				Name:  "lookup",
				Usage: "print the cell ROW:COLUMN (repeatable, needs --row-key)",
			},
			&cli.StringFlag{
				Name:  "xlsx-out",
				Usage: "also write the extracted sheets to this xlsx file",
				Value: cfg.App.XLSXOutput,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
				Value: cfg.App.LogLevel,
			},
		},
		Action: func(c *cli.Context) error {
			bucketURL := c.Args().First()
			if bucketURL == "" {
				bucketURL = cfg.Bucket.URL
			}
			if bucketURL == "" && storage.NormalizeBackend(c.String("backend")) == storage.BackendHTTP {
				_ = cli.ShowAppHelp(c)
				return cli.Exit("a bucket URL is required", 1)
			}
			return run(c, bucketURL)
		},
	}
}

func run(c *cli.Context, bucketURL string) error {
	logger.SetLevel(c.String("log-level"))
	log := logger.Log

	client, err := storage.New(c.String("backend"), bucketURL, storage.S3Config{
		Endpoint:  c.String("s3-endpoint"),
		AccessKey: c.String("s3-access-key"),
		SecretKey: c.String("s3-secret-key"),
		Bucket:    c.String("s3-bucket"),
		Region:    c.String("s3-region"),
		Prefix:    c.String("prefix"),
		UseSSL:    c.Bool("s3-use-ssl"),
	}, &http.Client{Timeout: c.Duration("timeout")})
	if err != nil {
		return err
	}

	lookups := make([]service.Lookup, 0, len(c.StringSlice("lookup")))
	for _, raw := range c.StringSlice("lookup") {
		l, err := service.ParseLookup(raw)
		if err != nil {
			return err
		}
		lookups = append(lookups, l)
	}

	// Object-store backends apply the prefix themselves.
	listPrefix := ""
	if storage.NormalizeBackend(c.String("backend")) == storage.BackendHTTP {
		listPrefix = c.String("prefix")
	}

	dir := c.String("directory")
	log.Info().Str("bucket", bucketURL).Str("directory", dir).Msg("fetching data")

	svc := service.NewTransformService(
		fetch.NewDownloader(client, log, listPrefix),
		table.NewExtractor(log, c.Int("workers")),
		log,
	)
	result, err := svc.Run(c.Context, service.Options{
		DownloadDir: dir,
		ArchiveName: c.String("archive"),
		Validate:    c.Bool("validate"),
		RowKey:      c.String("row-key"),
		Lookups:     lookups,
		XLSXOutput:  c.String("xlsx-out"),
	})
	if err != nil {
		return err
	}

	return printResult(c.App.Writer, result)
}

// printResult writes one JSON object per record, then the lookups.
func printResult(w io.Writer, result *service.Result) error {
	enc := json.NewEncoder(w)
	for _, rec := range result.Records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	for _, l := range result.Lookups {
		value := "<absent>"
		if l.Found {
			value = l.Value
		}
		if _, err := fmt.Fprintf(w, "%s/%s = %s\n", l.Row, l.Column, value); err != nil {
			return err
		}
	}
	return nil
}
