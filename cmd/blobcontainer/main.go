// Command blobcontainer makes sure the named blob containers exist.
//
//	blobcontainer -config ./blobcontainer.yaml -access blob assets images
//
// The connection string comes from the config file or from
// AZURE_STORAGE_BLOB_CONNECTIONSTRING.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/blobcontainer"
	"github.com/unkn0wn-root/blobcontainer/codec"
	"github.com/unkn0wn-root/blobcontainer/config/viperconfig"
	"github.com/unkn0wn-root/blobcontainer/dialer/azblob"
	"github.com/unkn0wn-root/blobcontainer/ledger"
	zaplog "github.com/unkn0wn-root/blobcontainer/log/zap"
	"github.com/unkn0wn-root/blobcontainer/provider"
	"github.com/unkn0wn-root/blobcontainer/provider/bigcache"
	"github.com/unkn0wn-root/blobcontainer/provider/redis"
	"github.com/unkn0wn-root/blobcontainer/provider/ristretto"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "blobcontainer:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath   = flag.String("config", "", "config file (default: ./blobcontainer.*)")
		envPrefix = flag.String("env-prefix", "", "environment variable prefix")
		access    = flag.String("access", "", "access policy for created containers: private, blob or container (default from config)")
		ledgerBy  = flag.String("ledger", "none", "ledger store: none, ristretto, bigcache or redis")
		ledgerNS  = flag.String("ledger-ns", "default", "ledger namespace, usually the storage account")
		ledgerEnc = flag.String("ledger-codec", "json", "ledger record encoding: json, msgpack, cbor or proto")
		ledgerMax = flag.Int("ledger-max-bytes", 4<<10, "largest ledger record accepted on read; 0 disables the check")
		redisAddr = flag.String("redis", "localhost:6379", "redis address for -ledger=redis")
		parallel  = flag.Int("parallel", 8, "containers checked at once")
		timeout   = flag.Duration("timeout", 2*time.Minute, "overall deadline")
		debug     = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()
	names := flag.Args()
	if len(names) == 0 {
		flag.Usage()
		return fmt.Errorf("no container names given")
	}

	zl, err := newZap(*debug)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := zaplog.New(zl)

	cfg, err := viperconfig.Load(viperconfig.Options{Path: *cfgPath, EnvPrefix: *envPrefix})
	if err != nil {
		return err
	}
	policy, err := cfg.Access()
	if *access != "" {
		policy, err = blobcontainer.ParseAccessPolicy(*access)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	rc, err := recordCodec(*ledgerEnc, *ledgerMax)
	if err != nil {
		return err
	}
	led, err := newLedger(ctx, *ledgerBy, *ledgerNS, *redisAddr, rc, logger)
	if err != nil {
		return err
	}

	util, err := blobcontainer.New(blobcontainer.Options{
		Dialer:    azblob.New(azblob.WithMetadata(map[string]string{"createdby": "blobcontainer"})),
		Config:    cfg,
		Transport: cfg.Transport(),
		Ledger:    led,
		Logger:    logger,
	})
	if err != nil {
		if led != nil {
			_ = led.Close(context.Background())
		}
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if err := util.Shutdown(sctx); err != nil {
			zl.Warn("shutdown", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*parallel)
	for _, name := range names {
		name := name
		g.Go(func() error {
			h, err := util.GetWithAccess(gctx, name, policy)
			if err != nil {
				return err
			}
			state := "exists"
			if h.Created() {
				state = "created"
			}
			fmt.Printf("%s\t%s\t%s\n", h.Name(), state, h.Access())
			return nil
		})
	}
	return g.Wait()
}

func newZap(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func recordCodec(name string, maxBytes int) (codec.Codec[ledger.Record], error) {
	var c codec.Codec[ledger.Record]
	switch name {
	case "", "json":
		c = codec.JSON[ledger.Record]{}
	case "msgpack":
		c = codec.Msgpack[ledger.Record]{}
	case "cbor":
		cb, err := codec.NewCBOR[ledger.Record](true)
		if err != nil {
			return nil, err
		}
		c = cb
	case "proto":
		c = ledger.ProtoCodec()
	default:
		return nil, fmt.Errorf("unknown ledger codec %q", name)
	}
	return codec.Limit[ledger.Record]{Inner: c, Max: maxBytes}, nil
}

// newLedger returns nil for "none", which the cache treats as no ledger.
func newLedger(ctx context.Context, kind, ns, redisAddr string, c codec.Codec[ledger.Record], l blobcontainer.Logger) (blobcontainer.Ledger, error) {
	var (
		p   provider.Provider
		err error
	)
	switch kind {
	case "", "none":
		return nil, nil
	case "ristretto":
		p, err = ristretto.New(ristretto.Small())
	case "bigcache":
		p, err = bigcache.New(ctx, bigcache.Config{LifeWindow: ledger.DefaultTTL})
	case "redis":
		p, err = redis.New(redis.Config{
			Client:      goredis.NewClient(&goredis.Options{Addr: redisAddr}),
			CloseClient: true,
		})
	default:
		return nil, fmt.Errorf("unknown ledger %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return openLedger(p, ns, c, l)
}

// openLedger takes ownership of p: it is closed when the ledger cannot be
// built.
func openLedger(p provider.Provider, ns string, c codec.Codec[ledger.Record], l blobcontainer.Logger) (blobcontainer.Ledger, error) {
	led, err := ledger.New(ledger.Options{Namespace: ns, Provider: p, Codec: c, Logger: l})
	if err != nil {
		_ = p.Close(context.Background())
		return nil, err
	}
	return led, nil
}
