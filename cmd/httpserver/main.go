package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/multisig-service/cmd/flags"
	"github.com/ruteri/multisig-service/common"
	"github.com/ruteri/multisig-service/datastore"
	"github.com/ruteri/multisig-service/httpserver"
	"github.com/ruteri/multisig-service/interfaces"
	"github.com/ruteri/multisig-service/metrics"
	"github.com/ruteri/multisig-service/service"
	"github.com/ruteri/multisig-service/storage"
	"github.com/urfave/cli/v2"
)

var serverFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "127.0.0.1:8080",
		EnvVars: []string{"MULTISIG_LISTEN_ADDR"},
		Usage:   "address to listen on for API",
	},
	&cli.StringFlag{
		Name:    "store-dsn",
		Value:   datastore.MemoryDSN,
		EnvVars: []string{"MULTISIG_STORE_DSN"},
		Usage:   "user and message store: 'memory', sqlite://path or postgres://...",
	},
	&cli.StringSliceFlag{
		Name:    "archive-uri",
		EnvVars: []string{"MULTISIG_ARCHIVE_URIS"},
		Usage:   "storage backend for message contents and receipts (file://, s3://, vault://, ipfs://); repeatable",
	},
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:    "multisig-server",
		Usage:   "Serve the multisig signing and verification API",
		Version: common.Version,
		Flags:   serverFlags,
		Action:  runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String("listen-addr"))

	store, err := datastore.Open(cCtx.String("store-dsn"), logger)
	if err != nil {
		logger.Error("Failed to open store", "err", err)
		return err
	}
	defer store.Close()

	var archive interfaces.StorageBackend
	if uris := cCtx.StringSlice("archive-uri"); len(uris) > 0 {
		archive, err = storage.NewStorageBackendFactory(logger).CreateMultiBackend(uris)
		if err != nil {
			logger.Error("Failed to create archive backends", "err", err)
			return err
		}
		logger.Info("Archiving enabled", "backend", archive.Name())
	} else {
		logger.Warn("No archive configured, receipts will not be stored")
	}

	var metricsSrv *metrics.MetricsServer
	var multisigMetrics *metrics.MultisigMetrics
	if cfg.MetricsAddr != "" {
		metricsSrv, err = metrics.New(common.PackageName, cfg.MetricsAddr)
		if err != nil {
			logger.Error("Failed to create metrics server", "err", err)
			return err
		}
		multisigMetrics = metrics.NewMultisigMetrics(common.PackageName, metricsSrv.Registry())
	}

	svc := service.New(store, archive, multisigMetrics, logger)
	handler := httpserver.NewHandler(svc, cfg.MaxBodyBytes, logger)

	server, err := httpserver.New(cfg, handler, metricsSrv)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return nil
}
