package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	logpkg "github.com/kailas-cloud/ragd/internal/logger"
	ingestuc "github.com/kailas-cloud/ragd/internal/usecase/ingest"
)

var (
	ingestBucket   string
	ingestPrefix   string
	ingestDocType  string
	ingestTags     []string
	ingestMaxFiles int
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest objects under a bucket prefix",
	Long: `Lists objects under --bucket/--prefix, extracts their text, splits it into
overlapping chunks, embeds every chunk and upserts the rows in one transaction.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestBucket, "bucket", "b", "", "bucket (S3) or directory under source.root (fs)")
	ingestCmd.Flags().StringVarP(&ingestPrefix, "prefix", "p", "", "key prefix to list")
	ingestCmd.Flags().StringVar(&ingestDocType, "doc-type", "", "document type recorded on every document")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "comma-separated tags recorded on every document")
	ingestCmd.Flags().IntVarP(&ingestMaxFiles, "max-files", "n", 0, "maximum objects to ingest (default from config)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	_ = ingestCmd.MarkFlagRequired("bucket")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ctx = logpkg.WithRequestID(ctx, a.logger, uuid.NewString())
	rep, err := a.ingest.Ingest(ctx, ingestuc.Request{
		Bucket:   ingestBucket,
		Prefix:   ingestPrefix,
		DocType:  ingestDocType,
		Tags:     ingestTags,
		MaxFiles: ingestMaxFiles,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(reportView(rep), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("bucket=%s prefix=%q found=%d ingested=%d list=%dms db=%dms\n",
		rep.Bucket, rep.Prefix, rep.FilesFound, rep.Ingested, rep.ListMs, rep.DBMs)
	for _, e := range rep.Errors() {
		if idx, ok := e.ChunkIndex(); ok {
			cmd.Printf("  error %s [%s chunk %d]: %s\n", e.Key(), e.Step(), idx, e.Message())
			continue
		}
		cmd.Printf("  error %s [%s]: %s\n", e.Key(), e.Step(), e.Message())
	}
	for _, s := range rep.Skipped {
		cmd.Printf("  skipped %s (%d bytes)\n", s.Key, s.Size)
	}
	return nil
}

type reportErrorView struct {
	Key        string `json:"key"`
	Step       string `json:"step"`
	ChunkIndex *int   `json:"chunkIndex,omitempty"`
	Error      string `json:"error"`
}

type reportJSON struct {
	Bucket     string            `json:"bucket"`
	Prefix     string            `json:"prefix"`
	FilesFound int               `json:"filesFound"`
	Ingested   int               `json:"ingested"`
	ListMs     int64             `json:"listMs"`
	DBMs       int64             `json:"dbMs"`
	Errors     []reportErrorView `json:"errors"`
	Skipped    []string          `json:"skipped"`
}

func reportView(rep ingestuc.Report) reportJSON {
	v := reportJSON{
		Bucket:     rep.Bucket,
		Prefix:     rep.Prefix,
		FilesFound: rep.FilesFound,
		Ingested:   rep.Ingested,
		ListMs:     rep.ListMs,
		DBMs:       rep.DBMs,
		Errors:     []reportErrorView{},
		Skipped:    []string{},
	}
	for _, e := range rep.Errors() {
		ev := reportErrorView{Key: e.Key(), Step: string(e.Step()), Error: e.Message()}
		if idx, ok := e.ChunkIndex(); ok {
			ev.ChunkIndex = &idx
		}
		v.Errors = append(v.Errors, ev)
	}
	for _, s := range rep.Skipped {
		v.Skipped = append(v.Skipped, s.Key)
	}
	return v
}
