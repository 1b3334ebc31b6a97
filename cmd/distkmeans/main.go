// Command distkmeans clusters a CSV point dataset with k-means.
//
// Local mode runs every worker as a goroutine of one process:
//
//	distkmeans -workers 4 -k 3 dataset/points.csv
//
// TCP mode runs one process per rank; rank 0 listens and coordinates:
//
//	distkmeans -transport tcp -world 3 -rank 0 -addr :7946 dataset/points.csv
//	distkmeans -transport tcp -world 3 -rank 1 -addr host0:7946
//	distkmeans -transport tcp -world 3 -rank 2 -addr host0:7946
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hupe1980/distkmeans"
	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/blobstore/minio"
	"github.com/hupe1980/distkmeans/blobstore/s3"
	"github.com/hupe1980/distkmeans/codec"
	"github.com/hupe1980/distkmeans/collective"
	"github.com/hupe1980/distkmeans/collective/local"
	"github.com/hupe1980/distkmeans/collective/tcp"
	"github.com/hupe1980/distkmeans/dataset"
	"github.com/hupe1980/distkmeans/internal/compress"
	"github.com/hupe1980/distkmeans/prommetrics"
	"github.com/hupe1980/distkmeans/report"
	"github.com/hupe1980/distkmeans/resource"
)

type config struct {
	input string

	k         int
	rounds    int
	seed      int64
	tolerance float64

	transport   string
	workers     int
	rank        int
	world       int
	addr        string
	codec       string
	compression string
	maxFrame    int

	store     string
	root      string
	bucket    string
	prefix    string
	region    string
	endpoint  string
	accessKey string
	secretKey string
	secure    bool

	report      string
	ioLimit     int64
	memLimit    int64
	logLevel    string
	logJSON     bool
	metricsAddr string
}

func parseFlags() *config {
	cfg := &config{}
	flag.IntVar(&cfg.k, "k", distkmeans.DefaultK, "number of clusters")
	flag.IntVar(&cfg.rounds, "rounds", distkmeans.DefaultMaxRounds, "max assignment+update rounds")
	flag.Int64Var(&cfg.seed, "seed", distkmeans.DefaultSeed, "seed for the coordinator's center sampling")
	flag.Float64Var(&cfg.tolerance, "tolerance", -1, "stop once no center moves farther than this (negative runs all rounds)")

	flag.StringVar(&cfg.transport, "transport", "local", "worker transport: local or tcp")
	flag.IntVar(&cfg.workers, "workers", 4, "number of in-process workers (local transport)")
	flag.IntVar(&cfg.rank, "rank", 0, "rank of this process (tcp transport)")
	flag.IntVar(&cfg.world, "world", 1, "number of processes (tcp transport)")
	flag.StringVar(&cfg.addr, "addr", "127.0.0.1:7946", "rank 0 listen address (tcp transport)")
	flag.StringVar(&cfg.codec, "codec", codec.Default.Name(), "wire codec: json or go-json (tcp transport)")
	flag.StringVar(&cfg.compression, "compression", "none", "frame compression: none, lz4 or zstd (tcp transport)")
	flag.IntVar(&cfg.maxFrame, "max-frame", tcp.DefaultOptions().MaxFrameSize, "largest frame in bytes a member accepts; the dataset broadcast is one frame, about 25 bytes per point with json (tcp transport)")

	flag.StringVar(&cfg.store, "store", "local", "input/report store: local, s3 or minio")
	flag.StringVar(&cfg.root, "root", ".", "root directory (local store)")
	flag.StringVar(&cfg.bucket, "bucket", "", "bucket (s3 and minio stores)")
	flag.StringVar(&cfg.prefix, "prefix", "", "key prefix (s3 and minio stores)")
	flag.StringVar(&cfg.region, "region", "", "AWS region (s3 store)")
	flag.StringVar(&cfg.endpoint, "endpoint", "", "endpoint (minio store)")
	flag.StringVar(&cfg.accessKey, "access-key", os.Getenv("MINIO_ACCESS_KEY"), "access key (minio store)")
	flag.StringVar(&cfg.secretKey, "secret-key", os.Getenv("MINIO_SECRET_KEY"), "secret key (minio store)")
	flag.BoolVar(&cfg.secure, "secure", true, "use TLS (minio store)")

	flag.StringVar(&cfg.report, "report", "", "store plot data under this name")
	flag.Int64Var(&cfg.ioLimit, "io-limit", 0, "input read limit in bytes per second (0 = unlimited)")
	flag.Int64Var(&cfg.memLimit, "mem-limit", 0, "memory budget for replicated datasets in bytes, 36 per point (0 = unlimited); tcp groups are also bounded by -max-frame")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flag.BoolVar(&cfg.logJSON, "log-json", false, "log as JSON")
	flag.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <input>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	cfg.input = flag.Arg(0)
	return cfg
}

func main() {
	cfg := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "distkmeans:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	if cfg.input == "" && (cfg.transport != "tcp" || cfg.rank == 0) {
		return errors.New("missing input")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.memLimit,
		IOLimitBytesPerSec: cfg.ioLimit,
	})

	opts := []distkmeans.Option{
		distkmeans.WithK(cfg.k),
		distkmeans.WithMaxRounds(cfg.rounds),
		distkmeans.WithSeed(cfg.seed),
		distkmeans.WithLogger(logger),
		distkmeans.WithResourceController(rc),
	}
	if cfg.tolerance >= 0 {
		opts = append(opts, distkmeans.WithTolerance(cfg.tolerance))
	}
	if cfg.metricsAddr != "" {
		pc := prommetrics.New()
		opts = append(opts, distkmeans.WithMetricsCollector(pc))
		go serveMetrics(cfg.metricsAddr, pc.Handler(), logger)
	}

	src := distkmeans.Dataset(store, cfg.input, dataset.WithResourceController(rc))

	work := func(ctx context.Context, comm collective.Comm) error {
		w, err := distkmeans.NewWorker(comm, opts...)
		if err != nil {
			return err
		}
		res, err := w.Run(ctx, src)
		if err != nil {
			return err
		}
		if !w.IsCoordinator() {
			return nil
		}
		return publish(ctx, cfg, store, res)
	}

	switch cfg.transport {
	case "local":
		return local.Run(ctx, cfg.workers, work)
	case "tcp":
		comm, err := connect(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer comm.Close()
		return work(ctx, comm)
	default:
		return fmt.Errorf("unknown transport %q", cfg.transport)
	}
}

func publish(ctx context.Context, cfg *config, store blobstore.BlobStore, res *distkmeans.Result) error {
	if cfg.report != "" {
		plotter := &report.BlobPlotter{Store: store, Name: cfg.report}
		if err := plotter.Plot(ctx, res.PlotData()); err != nil {
			return err
		}
	}
	return report.TextPrinter{W: os.Stdout}.Print(res.Centers, res.Elapsed)
}

func connect(ctx context.Context, cfg *config, logger *distkmeans.Logger) (*tcp.Comm, error) {
	c, ok := codec.ByName(cfg.codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.codec)
	}
	ct, err := compress.ParseType(cfg.compression)
	if err != nil {
		return nil, err
	}

	optFns := []func(*tcp.Options){
		tcp.WithCodec(c),
		tcp.WithCompression(ct),
		tcp.WithLogger(logger.Logger),
		tcp.WithMaxFrameSize(cfg.maxFrame),
	}
	if cfg.rank == 0 {
		return tcp.Listen(ctx, cfg.addr, cfg.world, optFns...)
	}
	return tcp.Dial(ctx, cfg.addr, cfg.rank, cfg.world, optFns...)
}

func openStore(ctx context.Context, cfg *config) (blobstore.BlobStore, error) {
	switch cfg.store {
	case "local":
		return blobstore.NewLocalStore(cfg.root), nil
	case "s3":
		return s3.New(ctx, cfg.bucket, cfg.prefix, cfg.region)
	case "minio":
		return minio.New(cfg.endpoint, cfg.accessKey, cfg.secretKey, cfg.secure, cfg.bucket, cfg.prefix)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.store)
	}
}

func newLogger(cfg *config) (*distkmeans.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return nil, err
	}
	if cfg.logJSON {
		return distkmeans.NewJSONLogger(level), nil
	}
	return distkmeans.NewTextLogger(level), nil
}

func serveMetrics(addr string, h http.Handler, logger *distkmeans.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}
