package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/budlum/blockchain/app/services/node/handlers"
	"github.com/budlum/blockchain/foundation/blockchain/database/storage"
	"github.com/budlum/blockchain/foundation/blockchain/genesis"
	"github.com/budlum/blockchain/foundation/blockchain/gossip"
	"github.com/budlum/blockchain/foundation/blockchain/hashing"
	"github.com/budlum/blockchain/foundation/blockchain/state"
	"github.com/budlum/blockchain/foundation/blockchain/worker"
	"github.com/budlum/blockchain/foundation/events"
	"github.com/budlum/blockchain/foundation/logger"
	"github.com/budlum/blockchain/foundation/p2p"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		State struct {
			MinerName         string        `conf:"default:miner1"`
			DBPath            string        `conf:"default:zblock/budlum_db"`
			Storage           string        `conf:"default:bolt,help:bolt, disk or memory"`
			Difficulty        int           `conf:"default:-1,help:leading zero characters, -1 uses the genesis value"`
			GenesisPath       string        `conf:"help:optional genesis json file shared by the network"`
			AutoMine          bool          `conf:"default:true"`
			SyncInterval      time.Duration `conf:"default:1m"`
			MaxMiningAttempts uint64        `conf:"default:0,help:zero means no limit"`
		}
		P2P struct {
			Port       int    `conf:"default:4001"`
			Bootstrap  string `conf:"help:seed address used to join the dht"`
			Dial       string `conf:"help:address dialed right after startup"`
			KeyPath    string `conf:"default:zblock/identity.key"`
			EnableMDNS bool   `conf:"default:true"`
			Rendezvous string `conf:"default:budlum-blockchain"`
			LowWater   int    `conf:"default:16"`
			HighWater  int    `conf:"default:64"`
		}
		Console struct {
			Enabled bool `conf:"default:true"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "budlum proof of work node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`  ____  _   _ ____  _    _   _ __  __   _   _  ___  ____  _____ `)
	fmt.Println(` | __ )| | | |  _ \| |  | | | |  \/  | | \ | |/ _ \|  _ \| ____|`)
	fmt.Println(` |  _ \| | | | | | | |  | | | | |\/| | |  \| | | | | | | |  _|  `)
	fmt.Println(` | |_) | |_| | |_| | |__| |_| | |  | | | |\  | |_| | |_| | |___ `)
	fmt.Println(` |____/ \___/|____/|_____\___/|_|  |_| |_| \_|\___/|____/|_____|`)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		gen, err = genesis.Load(cfg.State.GenesisPath)
		if err != nil {
			return fmt.Errorf("unable to load genesis file: %w", err)
		}
	}

	difficulty := uint(gen.Difficulty)
	if cfg.State.Difficulty >= 0 {
		difficulty = uint(cfg.State.Difficulty)
	}
	if err := hashing.CheckDifficulty(difficulty); err != nil {
		return fmt.Errorf("checking difficulty: %w", err)
	}

	// Storage is optional. The node keeps running in memory when the
	// database can't be opened.
	strg, err := storage.Open(cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		log.Errorw("startup", "status", "storage unavailable, running in memory only", "ERROR", err)
		strg = nil
	}

	// The state value represents the blockchain node and manages the blockchain
	// database and provides an API for application support.
	st := state.New(state.Config{
		Genesis:           gen,
		Difficulty:        difficulty,
		Storage:           strg,
		MaxMiningAttempts: cfg.State.MaxMiningAttempts,
		EvHandler:         ev,
	})
	defer st.Shutdown()

	log.Infow("startup", "status", "chain loaded", "load", st.LoadStatus(), "blocks", st.Length(), "difficulty", difficulty)

	// =========================================================================
	// Peer to Peer Support

	node, err := p2p.New(p2p.Config{
		KeyPath:    cfg.P2P.KeyPath,
		Topics:     gossip.Topics,
		Validator:  gossip.Validate,
		Rendezvous: cfg.P2P.Rendezvous,
		EnableMDNS: cfg.P2P.EnableMDNS,
		LowWater:   cfg.P2P.LowWater,
		HighWater:  cfg.P2P.HighWater,
		EvHandler:  ev,
	})
	if err != nil {
		return fmt.Errorf("unable to start p2p node: %w", err)
	}
	defer node.Close()

	if err := node.Listen(cfg.P2P.Port); err != nil {
		return err
	}

	for _, topic := range gossip.Topics {
		if err := node.Subscribe(topic); err != nil {
			return err
		}
	}

	log.Infow("startup", "status", "p2p started", "peerid", node.PeerID(), "addrs", node.Addrs())

	bcast := gossip.NewBroadcaster(node)
	handler := gossip.NewHandler(st, bcast, ev)

	// The worker package implements the different workflows such as mining,
	// transaction sharing, and chain sync. The worker will register itself
	// with the state.
	w := worker.Run(worker.Config{
		State:        st,
		Broadcaster:  bcast,
		MinerName:    cfg.State.MinerName,
		AutoMine:     cfg.State.AutoMine,
		SyncInterval: cfg.State.SyncInterval,
		EvHandler:    ev,
	})

	// Inbound messages are only processed once the worker is registered
	// with the state.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go node.Run(ctx, handler.HandleMessage)

	// Network failures at startup leave the node running degraded.
	if cfg.P2P.Bootstrap != "" {
		if err := node.Bootstrap(ctx, cfg.P2P.Bootstrap); err != nil {
			log.Errorw("startup", "status", "bootstrap failed", "seed", cfg.P2P.Bootstrap, "ERROR", err)
		}
	}

	if cfg.P2P.Dial != "" {
		if err := node.Dial(ctx, cfg.P2P.Dial); err != nil {
			log.Errorw("startup", "status", "dial failed", "addr", cfg.P2P.Dial, "ERROR", err)
		} else {
			w.SignalSync()
		}
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Miner:    w,
		Net:      node,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Console

	if cfg.Console.Enabled {
		con := console{
			state:     st,
			worker:    w,
			bcast:     bcast,
			net:       node,
			minerName: cfg.State.MinerName,
			out:       os.Stdout,
		}

		go func() {
			con.run(ctx, os.Stdin)
			log.Infow("console", "status", "input closed")
		}()
	}

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
