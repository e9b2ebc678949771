package main

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/aml-oracle-backend/assets"
	"github.com/ruteri/aml-oracle-backend/audit"
	"github.com/ruteri/aml-oracle-backend/common"
	"github.com/ruteri/aml-oracle-backend/httpserver"
	"github.com/ruteri/aml-oracle-backend/interfaces"
	"github.com/ruteri/aml-oracle-backend/metrics"
	"github.com/ruteri/aml-oracle-backend/oracle"
	"github.com/ruteri/aml-oracle-backend/storage"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "127.0.0.1:8090",
		Usage: "address to listen on for Prometheus metrics",
	},
	&cli.StringFlag{
		Name:  "variant",
		Value: "native",
		Usage: "oracle deployment variant: 'native' or 'token'",
	},
	&cli.StringFlag{
		Name:  "token-address",
		Value: "",
		Usage: "denomination token address (required if variant is 'token')",
	},
	&cli.StringFlag{
		Name:     "admin",
		Required: true,
		Usage:    "root admin address, seeded into all operational roles",
	},
	&cli.StringFlag{
		Name:     "oracle-account",
		Required: true,
		Usage:    "custody account the oracle holds escrow and fees under",
	},
	&cli.Int64Flag{
		Name:  "default-fee",
		Value: 0,
		Usage: "fallback query fee charged when a record's own fee is unset",
	},
	&cli.StringFlag{
		Name:  "fee-policy",
		Value: "fallback-on-zero",
		Usage: "fee resolution policy: 'fallback-on-zero' or 'always-stored'",
	},
	&cli.StringSliceFlag{
		Name:  "audit-sink",
		Usage: "audit trail backend URI (file:// or s3://), repeatable; logs only if unset",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: common.PackageName,
		Usage: "add 'service' tag to logs",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

func main() {
	app := &cli.App{
		Name:  "oracle-server",
		Usage: "Serve the AML compliance-status oracle API",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			metricsAddr := cCtx.String("metrics-addr")
			variant := cCtx.String("variant")
			tokenAddress := cCtx.String("token-address")
			adminHex := cCtx.String("admin")
			accountHex := cCtx.String("oracle-account")
			defaultFee := cCtx.Int64("default-fee")
			feePolicy := cCtx.String("fee-policy")
			auditSinks := cCtx.StringSlice("audit-sink")
			logJSON := cCtx.Bool("log-json")
			logDebug := cCtx.Bool("log-debug")
			logUID := cCtx.Bool("log-uid")
			logService := cCtx.String("log-service")
			enablePprof := cCtx.Bool("pprof")
			drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   logDebug,
				JSON:    logJSON,
				Service: logService,
				Version: common.Version,
			})

			if logUID {
				id := uuid.Must(uuid.NewRandom())
				logger = logger.With("uid", id.String())
			}

			if !ethcommon.IsHexAddress(adminHex) {
				return fmt.Errorf("invalid admin address: %s", adminHex)
			}
			if !ethcommon.IsHexAddress(accountHex) {
				return fmt.Errorf("invalid oracle-account address: %s", accountHex)
			}

			var policy oracle.FeePolicy
			switch feePolicy {
			case "fallback-on-zero":
				policy = oracle.FeeFallbackOnZero
			case "always-stored":
				policy = oracle.FeeAlwaysStored
			default:
				return fmt.Errorf("invalid fee-policy: %s", feePolicy)
			}

			// Audit trail: structured log always, durable backends when
			// configured.
			sinks := audit.Fanout{&audit.SlogSink{Log: logger}}
			if len(auditSinks) > 0 {
				trailFactory := storage.NewTrailFactory(logger)
				trail, err := trailFactory.CreateMultiBackend(auditSinks)
				if err != nil {
					logger.Error("Failed to create audit trail", "err", err)
					return err
				}
				logger.Info("Audit trail configured", "location", trail.LocationURI())
				sinks = append(sinks, trail)
			}

			vault := assets.NewVault()
			cfg := oracle.Config{
				Admin:      ethcommon.HexToAddress(adminHex),
				Account:    ethcommon.HexToAddress(accountHex),
				DefaultFee: big.NewInt(defaultFee),
				FeePolicy:  policy,
				Log:        logger,
				Audit:      sinks,
			}

			var (
				core   interfaces.AMLOracle
				direct interfaces.DirectFetcher
			)
			switch variant {
			case "native":
				o, err := oracle.NewNativeOracle(cfg, vault)
				if err != nil {
					logger.Error("Failed to create oracle", "err", err)
					return err
				}
				core = o
			case "token":
				if !ethcommon.IsHexAddress(tokenAddress) {
					return fmt.Errorf("token variant requires a valid token-address, got %q", tokenAddress)
				}
				o, err := oracle.NewTokenOracle(cfg, vault, interfaces.AssetID(ethcommon.HexToAddress(tokenAddress)))
				if err != nil {
					logger.Error("Failed to create oracle", "err", err)
					return err
				}
				core = o
				direct = o
			default:
				return fmt.Errorf("invalid variant: %s", variant)
			}

			logger.Info("Oracle initialized",
				"variant", variant,
				"admin", adminHex,
				"account", accountHex,
				"defaultFee", defaultFee)

			m := metrics.New(common.PackageName)
			handler := httpserver.NewHandler(core, direct, m, logger)

			server, err := httpserver.New(&httpserver.HTTPServerConfig{
				ListenAddr:               listenAddr,
				MetricsAddr:              metricsAddr,
				Log:                      logger,
				EnablePprof:              enablePprof,
				DrainDuration:            drainDuration,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}, handler, m)
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
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
