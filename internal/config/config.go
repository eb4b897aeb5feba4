// Package config resolves the server's single-process configuration from
// CLI flags and an optional .env file, using urfave/cli/v3 and
// joho/godotenv the way the pack's other CLI-fronted server uses them.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/richstokes/ZeroConfigDLNA/internal/media"
	"github.com/urfave/cli/v3"
)

const defaultBufferSize = 1 * 1024 * 1024

// Config is the fully-resolved, validated configuration for one server run.
type Config struct {
	Directory       string
	Port            int
	Verbose         bool
	ServerName      string
	Mode            media.ResourceMode
	BufferSize      int
	MaxConcurrentIO int
	MimeTypesPath   string
	Hostname        string // override for the advertised LOCATION host, from DLNA_HOSTNAME
}

// Command builds the single-command CLI surface (§4.13): -d/--directory,
// -p/--port, -v/--verbose, -n/--server_name. run is invoked once flags are
// parsed and validated, with the resolved Config.
func Command(run func(ctx context.Context, cfg *Config) error) *cli.Command {
	return &cli.Command{
		Name:  "zeroconfigdlna",
		Usage: "A zero-configuration DLNA/UPnP media server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "directory",
				Aliases: []string{"d"},
				Value:   ".",
				Usage:   "media root directory to serve",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8200,
				Usage:   "HTTP port to listen on (auto-increments if already in use)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Value:   false,
				Usage:   "enable debug-level logging",
			},
			&cli.StringFlag{
				Name:    "server_name",
				Aliases: []string{"n"},
				Usage:   "friendly name advertised to DLNA clients (default: ZeroConfigDLNA_<hostname>)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			loadDotEnv()

			cfg, err := resolve(cmd)
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}
}

// loadDotEnv loads a .env file from the working directory if present. A
// missing file is not an error: godotenv.Load's error is ignored the same
// way the pack's .env-aware services treat it as purely optional.
func loadDotEnv() {
	_ = godotenv.Load()
}

func resolve(cmd *cli.Command) (*Config, error) {
	cfg := &Config{
		Directory:       cmd.String("directory"),
		Port:            int(cmd.Int("port")),
		Verbose:         cmd.Bool("verbose"),
		ServerName:      cmd.String("server_name"),
		Mode:            media.ModeFileBuffered,
		BufferSize:      defaultBufferSize,
		MaxConcurrentIO: 8,
	}

	info, err := os.Stat(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("media directory %q: %w", cfg.Directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media directory %q is not a directory", cfg.Directory)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}

	cfg.Hostname = os.Getenv("DLNA_HOSTNAME")

	if cfg.ServerName == "" {
		cfg.ServerName = defaultServerName()
	}

	return cfg, nil
}

// defaultServerName matches the data model's fallback: "ZeroConfigDLNA_"
// plus the first 16 characters of the machine hostname.
func defaultServerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "server"
	}
	if len(host) > 16 {
		host = host[:16]
	}
	host = strings.TrimSpace(host)
	return "ZeroConfigDLNA_" + host
}

// LogLevel maps Verbose to the slog level the application logger uses.
func (c *Config) LogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
