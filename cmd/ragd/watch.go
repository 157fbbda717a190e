package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragd/internal/domain"
	"github.com/kailas-cloud/ragd/internal/extract"
	logpkg "github.com/kailas-cloud/ragd/internal/logger"
	fsTransport "github.com/kailas-cloud/ragd/internal/transport/fs"
	ingestuc "github.com/kailas-cloud/ragd/internal/usecase/ingest"
)

var watchBucket string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest files as they change under a local bucket directory",
	Long: `Watches source.root/<bucket> recursively and ingests every created or modified
file with a supported extension. Requires source.kind: fs.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchBucket, "bucket", "b", "", "directory under source.root to watch")
	_ = watchCmd.MarkFlagRequired("bucket")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.fsSource == nil {
		return errors.New("watch requires source.kind: fs")
	}

	accept := func(key string) bool { return extract.Supported(domain.ExtOfKey(key)) }
	w, err := fsTransport.NewWatcher(a.fsSource, watchBucket, accept, a.logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	keys, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Watching for changes", zap.String("bucket", watchBucket))

	for key := range keys {
		reqCtx := logpkg.WithRequestID(ctx, a.logger, uuid.NewString())
		rep, err := a.ingest.Ingest(reqCtx, ingestuc.Request{Bucket: watchBucket, Prefix: key, MaxFiles: 1})
		if err != nil {
			logpkg.FromContext(reqCtx).Error("Watch ingest failed", zap.String("key", key), zap.Error(err))
			continue
		}
		logpkg.FromContext(reqCtx).Info("Watch ingest",
			zap.String("key", key),
			zap.Int("ingested", rep.Ingested),
			zap.Int("errors", len(rep.Errors())),
		)
	}
	return nil
}
