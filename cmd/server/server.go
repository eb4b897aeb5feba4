// Command zeroconfigdlna runs a zero-configuration DLNA/UPnP media server:
// point it at a directory and it becomes browsable and streamable to any
// DLNA control point on the local network, no further setup required.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richstokes/ZeroConfigDLNA/internal/api"
	"github.com/richstokes/ZeroConfigDLNA/internal/config"
	"github.com/richstokes/ZeroConfigDLNA/internal/discovery"
	"github.com/richstokes/ZeroConfigDLNA/internal/identity"
	"github.com/richstokes/ZeroConfigDLNA/internal/media"
	"github.com/richstokes/ZeroConfigDLNA/internal/middleware"
)

func main() {
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	bootLogger := slog.New(logHandler).With("app", "zeroconfigdlna")

	cmd := config.Command(func(ctx context.Context, cfg *config.Config) error {
		return run(ctx, cfg, bootLogger)
	})

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		bootLogger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run wires up the Library, identity Tracker and HTTP handler, resolves a
// free port and the outbound IP, then drives the whole process as an
// oklog/run.Group of five actors: the signal handler, the HTTP acceptor,
// the SSDP M-SEARCH listener loop, the SSDP periodic-announce loop, and the
// overall lifecycle actor that ties their shutdown together.
func run(rootCtx context.Context, cfg *config.Config, bootLogger *slog.Logger) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})).With("app", "zeroconfigdlna")

	library, err := media.NewLibrary(cfg.Directory, cfg.MimeTypesPath, cfg.Mode, cfg.BufferSize, cfg.MaxConcurrentIO)
	if err != nil {
		return fmt.Errorf("media library: %w", err)
	}

	idTracker, err := identity.New(cfg.Directory)
	if err != nil {
		return fmt.Errorf("identity tracker: %w", err)
	}

	handler := api.NewHandler(library, idTracker, api.Config{
		FriendlyName: cfg.ServerName,
		Manufacturer: "ZeroConfigDLNA",
		ModelNumber:  "1.0",
	}, logger)

	hostIP, err := outboundIP()
	if err != nil {
		return fmt.Errorf("determine outbound IP: %w", err)
	}

	listener, port, err := bindAvailablePort(cfg.Port)
	if err != nil {
		return fmt.Errorf("bind HTTP port: %w", err)
	}

	if cfg.Hostname != "" {
		hostIP = cfg.Hostname
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /description.xml", handler.HandleDescription)
	mux.HandleFunc("GET /cd_scpd.xml", handler.HandleCDSCPD)
	mux.HandleFunc("GET /cm_scpd.xml", handler.HandleCMSCPD)
	mux.HandleFunc("GET /browse", handler.HandleBrowsePage)
	mux.HandleFunc("GET /media/", handler.HandleMedia)
	mux.HandleFunc("HEAD /media/", handler.HandleMedia)
	mux.HandleFunc("POST /control", handler.HandleControl)
	mux.HandleFunc("SUBSCRIBE /events", handler.HandleEvents)
	mux.HandleFunc("UNSUBSCRIBE /events", handler.HandleEvents)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS, SUBSCRIBE, UNSUBSCRIBE")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	})

	rateLimiter := middleware.NewIPRateLimiter(rootCtx, 20, 40, false)

	chain := middleware.Chain(mux,
		recoverMiddleware(logger),
		rateLimiter.Middleware,
		middleware.WithLogging(logger, nil),
		middleware.WithObservability(),
	)

	httpServer := &http.Server{
		Handler:      chain,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Hour,
		IdleTimeout:  2 * time.Minute,
	}

	ssdp, err := discovery.New(rootCtx, logger, hostIP, port, idTracker.UUID())
	if err != nil {
		listener.Close()
		return fmt.Errorf("ssdp responder: %w", err)
	}

	logger.Info("starting",
		"directory", cfg.Directory,
		"host", hostIP,
		"port", port,
		"uuid", idTracker.UUID(),
		"friendly_name", cfg.ServerName,
	)

	var g run.Group

	signalCtx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	g.Add(func() error {
		<-signalCtx.Done()
		return signalCtx.Err()
	}, func(error) {
		stop()
	})

	g.Add(func() error {
		err := httpServer.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	})

	listenCtx, cancelListen := context.WithCancel(rootCtx)
	g.Add(func() error {
		ssdp.RunListen(listenCtx)
		return nil
	}, func(error) {
		cancelListen()
	})

	announceCtx, cancelAnnounce := context.WithCancel(rootCtx)
	g.Add(func() error {
		ssdp.RunAnnounce(announceCtx)
		return nil
	}, func(error) {
		cancelAnnounce()
		ssdp.Close()
	})

	lifecycleCtx, cancelLifecycle := context.WithCancel(rootCtx)
	g.Add(func() error {
		<-lifecycleCtx.Done()
		return nil
	}, func(error) {
		cancelLifecycle()
	})

	err = g.Run()
	logger.Info("server stopped", "err", err)
	return nil
}

// outboundIP mirrors the teacher's getLocalIP: dialing a UDP socket never
// actually sends a packet, but the kernel still picks the interface/source
// address a real packet to that destination would use.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1", nil
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

// bindAvailablePort tries the requested port and then increments past any
// EADDRINUSE, matching §4.11's auto-increment requirement.
func bindAvailablePort(start int) (net.Listener, int, error) {
	port := start
	for tries := 0; tries < 20; tries++ {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			return l, port, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, err
		}
		port++
	}
	return nil, 0, fmt.Errorf("no available port found starting at %d", start)
}

func recoverMiddleware(logger *slog.Logger) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", "panic", rec, "path", r.URL.Path)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
