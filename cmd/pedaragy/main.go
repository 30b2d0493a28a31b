package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pedaragy/pedaragy"
	"github.com/pedaragy/pedaragy/embedding"
	"github.com/pedaragy/pedaragy/llm"
	"github.com/pedaragy/pedaragy/persistence/chromem"
	"github.com/pedaragy/pedaragy/persistence/memory"
	"github.com/pedaragy/pedaragy/vector"
	"github.com/pedaragy/pedaragy/watcher"

	httpT "github.com/pedaragy/pedaragy/transport/http"
	natsT "github.com/pedaragy/pedaragy/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "pedaragy",
		Usage: "PedaRAGy question answering service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the PedaRAGy working directory",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL (empty disables the NATS transport)",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "Enable HTTP transport",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8080",
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".pedaragy")
	}

	godotenv.Load(filepath.Join(path, ".env"))

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		return err
	}
	defer f.Close()

	var cfg pedaragy.Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return err
	}

	cfg.ApplyDefaults()

	var index vector.Index
	switch cfg.Vector.Backend {
	case "", "memory":
		index = memory.NewIndex(cfg.Dimension)

	case "chromem":
		if cfg.Vector.Path == "" {
			cfg.Vector.Path = filepath.Join(path, "vectors")
		}

		index, err = chromem.NewIndex(cfg.Vector, cfg.Dimension)
		if err != nil {
			return err
		}

	default:
		return vector.ErrUnsupportedBackend
	}

	embedder, err := embedding.New(cfg.Embedding, cfg.Dimension)
	if err != nil {
		return err
	}

	generator, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}

	svc, err := pedaragy.NewService(cfg, index, embedder, generator)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc = pedaragy.LoggingMiddleware(log)(svc)

	endpoints := pedaragy.EndpointSet{
		Ask:             pedaragy.AskEndpoint(svc),
		IngestDocuments: pedaragy.IngestDocumentsEndpoint(svc),
		CorpusStats:     pedaragy.CorpusStatsEndpoint(svc),
		ClearCorpus:     pedaragy.ClearCorpusEndpoint(svc),
		CacheStats:      pedaragy.CacheStatsEndpoint(svc),
		ClearCache:      pedaragy.ClearCacheEndpoint(svc),
		CompactCache:    pedaragy.CompactCacheEndpoint(svc),
	}

	// Add NATS Transport
	if natsURL := cmd.String("nats"); natsURL != "" {
		nc, err := nats.Connect(natsURL,
			nats.Name("PedaRAGy Server"),
		)

		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "pedaragy",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup("pedaragy")
		natsT.AddEndpoints(root, endpoints)
	}

	httpEnabled := cmd.Bool("http")
	if httpEnabled {
		r := gin.Default()
		httpT.AddRouters(r, endpoints, filepath.Join(path, "uploads"))

		httpAddr := cmd.String("http-addr")
		go r.Run(httpAddr)
	}

	if cfg.Watch.Enabled {
		dir := cfg.Watch.Dir
		if dir == "" {
			dir = filepath.Join(path, "documents")
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		w, err := watcher.New(svc, nil, log)
		if err != nil {
			return err
		}
		defer w.Close()

		go w.Watch(ctx, dir)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}
