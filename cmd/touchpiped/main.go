package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("touchpiped v%s\n", version)
	fmt.Println("Multitouch capture daemon: normalizes evdev touch batches into a sample stream")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  touchpiped [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Captures multitouch frames from a Linux input device, normalizes them")
	fmt.Println("  into single-point/multi-point samples, and broadcasts each non-empty")
	fmt.Println("  pipeline tick over a WebSocket stream.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (optional; flags override file values)")
	fmt.Println()
	fmt.Println("  -device string")
	fmt.Printf("        Multitouch evdev device (default %q)\n", defaultDevice)
	fmt.Println()
	fmt.Println("  -params string")
	fmt.Println("        Module option string, e.g. \"grab_events=1\" (default \"\")")
	fmt.Println()
	fmt.Println("  -read-hz int")
	fmt.Printf("        Pipeline read frequency in Hz (default %d)\n", defaultReadHz)
	fmt.Println()
	fmt.Println("  -max-slots int")
	fmt.Printf("        Output slots per multi-point read (default %d)\n", defaultMaxSlots)
	fmt.Println()
	fmt.Println("  -listen string")
	fmt.Printf("        Sample stream listen address (default %q)\n", defaultListenAddr)
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Capture from a specific touchscreen with exclusive access")
	fmt.Println("  touchpiped -device /dev/input/event4 -params grab_events=1")
	fmt.Println()
	fmt.Println("  # Listen for samples")
	fmt.Println("  touch-listen -ws ws://127.0.0.1:3080/v1/samples")
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		device      = flag.String("device", defaultDevice, "multitouch evdev device")
		params      = flag.String("params", "", "module option string")
		readHz      = flag.Int("read-hz", defaultReadHz, "pipeline read frequency in Hz")
		maxSlots    = flag.Int("max-slots", defaultMaxSlots, "output slots per multi-point read")
		listenAddr  = flag.String("listen", defaultListenAddr, "sample stream listen address")
		logLevel    = flag.String("log-level", "info", "log level")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags override file values, but only the ones actually set.
	overrides := FlagOverrides{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			overrides.Device = device
		case "params":
			overrides.Params = params
		case "read-hz":
			overrides.ReadHz = readHz
		case "max-slots":
			overrides.MaxSlots = maxSlots
		case "listen":
			overrides.ListenAddr = listenAddr
		case "log-level":
			overrides.LogLevel = logLevel
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	level, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := setupLogger(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	win := NewWindow()
	adapter, err := NewAdapter(win, cfg.Input.Params, logger)
	if err != nil {
		logger.Error("adapter init failed", "error", err)
		os.Exit(1)
	}
	defer adapter.Close()

	server := NewServer(logger, HubConfig{})
	mux := http.NewServeMux()
	server.Register(mux, "/v1/samples")

	httpSrv := &http.Server{
		Addr:    cfg.Stream.ListenAddr,
		Handler: mux,
	}

	msgs := make(chan Message, msgQueueLen)

	logger.Info("touchpiped starting",
		"version", version,
		"device", cfg.Input.Device,
		"grab_events", adapter.GrabEvents(),
		"read_hz", cfg.Pipeline.ReadHz,
		"listen", cfg.Stream.ListenAddr)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server.Hub().Run(ctx)
		return nil
	})

	g.Go(func() error {
		return runEvdevSource(ctx, cfg.Input.Device, adapter.GrabEvents(), msgs, logger)
	})

	g.Go(func() error {
		runDaemon(ctx, win, adapter, msgs, server.Hub(), cfg.Pipeline.ReadHz, cfg.Pipeline.MaxSlots, logger)
		return nil
	})

	g.Go(func() error {
		err := httpSrv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("touchpiped stopped")
}
