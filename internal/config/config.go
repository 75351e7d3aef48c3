// Package config handles the parsing and validation of application configuration
// from command-line arguments, environment variables and an optional .env file.
package config

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/woozymasta/vsrelay/internal/logger"
	"github.com/woozymasta/vsrelay/internal/vars"
)

// Status source kinds.
const (
	SourceHTTP = "http"
	SourceA2S  = "a2s"
)

// unsetRoleID is the placeholder role ID shipped in example configs.
const unsetRoleID = "000000000000000000"

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	General General       `group:"General Options" env-namespace:"VSRELAY"`
	Discord Discord       `group:"Discord Options" namespace:"discord" env-namespace:"VSRELAY_DISCORD"`
	Source  Source        `group:"Status Source Options" namespace:"source" env-namespace:"VSRELAY_SOURCE"`
	Gateway Gateway       `group:"Notification Gateway Options" namespace:"gateway" env-namespace:"VSRELAY_GATEWAY"`
	Notify  Notify        `group:"Notification Options" namespace:"notify" env-namespace:"VSRELAY_NOTIFY"`
	Poller  Poller        `group:"Poller Options" namespace:"poll" env-namespace:"VSRELAY_POLL"`
	State   State         `group:"State Options" namespace:"state" env-namespace:"VSRELAY_STATE"`
	Storage Storage       `group:"Journal Options" namespace:"db" env-namespace:"VSRELAY_DB"`
	Guides  Guides        `group:"Guides Options" namespace:"guides" env-namespace:"VSRELAY_GUIDES"`
	Logger  logger.Config `group:"Logger Options" namespace:"log" env-namespace:"VSRELAY_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// General holds options shared by several components.
type General struct {
	ServerName string `short:"n" long:"server-name" env:"SERVER_NAME" description:"Server display name used in presence and embeds" default:"Vintage Story"`
}

// Discord holds chat platform configuration.
type Discord struct {
	// betteralign:ignore

	Token               string `short:"t" long:"token" env:"TOKEN" description:"Discord bot token"`
	NotificationChannel string `long:"notification-channel" env:"NOTIFICATION_CHANNEL" description:"Channel ID for storm and season notifications"`
	StatusChannel       string `long:"status-channel" env:"STATUS_CHANNEL" description:"Channel ID for the live status board message"`
	AdminRole           string `long:"admin-role" env:"ADMIN_ROLE" description:"Role ID allowed to run admin commands"`
	Prefix              string `long:"prefix" env:"PREFIX" description:"Text command prefix" default:"!"`
}

// Source holds upstream game server status configuration.
type Source struct {
	// betteralign:ignore

	Kind          string        `long:"kind" env:"KIND" description:"Status source kind" choice:"http" choice:"a2s" default:"http"`
	URL           string        `short:"u" long:"url" env:"URL" description:"Status endpoint URL" default:"http://localhost:8080/status/"`
	Address       string        `long:"a2s-address" env:"A2S_ADDRESS" description:"host:port for A2S queries" default:"127.0.0.1:27016"`
	Timeout       time.Duration `long:"timeout" env:"TIMEOUT" description:"Request timeout" default:"30s"`
	MaxPlayers    int           `long:"max-players" env:"MAX_PLAYERS" description:"Default max players when upstream does not report it" default:"32"`
	InactiveStorm string        `long:"inactive-storm" env:"INACTIVE_STORM" description:"Storm label meaning no storm" default:"Inactive"`
}

// Gateway holds the inbound notification listener configuration.
type Gateway struct {
	// betteralign:ignore

	Address         string        `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Notification listener address" default:":8081"`
	Path            string        `long:"path" env:"PATH" description:"Notification endpoint path" default:"/status/notification"`
	DispatchTimeout time.Duration `long:"dispatch-timeout" env:"DISPATCH_TIMEOUT" description:"Max wait for chat delivery before answering" default:"10s"`
	MaxBodySize     int64         `long:"max-body-size" env:"MAX_BODY_SIZE" description:"Max body size for incoming requests" default:"65536"`
	TrustProxy      bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	HardLimitCount  int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"120"`
	HardLimitWin    time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
}

// Notify holds dispatcher and message catalog configuration.
type Notify struct {
	// betteralign:ignore

	Extended       bool          `short:"x" long:"extended" env:"EXTENDED" description:"Pick notification texts from message pools"`
	Cooldown       time.Duration `long:"cooldown" env:"COOLDOWN" description:"Minimum interval between notifications of the same kind" default:"5s"`
	StormMessages  string        `long:"storm-messages" env:"STORM_MESSAGES" description:"Storm message pool file (json or yaml)" default:"data/storm_messages.json"`
	SeasonMessages string        `long:"season-messages" env:"SEASON_MESSAGES" description:"Season message pool file (json or yaml)" default:"data/season_messages.json"`
	Watch          bool          `long:"watch" env:"WATCH" description:"Reload message pools when files change"`
}

// Poller holds status polling configuration.
type Poller struct {
	Interval       time.Duration `long:"interval" env:"INTERVAL" description:"Status poll interval" default:"15s"`
	ReconnectDelay time.Duration `long:"reconnect-delay" env:"RECONNECT_DELAY" description:"Delay between chat connection attempts" default:"10s"`
}

// State holds the status record file configuration and one-shot toggles.
type State struct {
	// betteralign:ignore

	Path             string `short:"s" long:"path" env:"PATH" description:"Path to the server status JSON file" default:"data/server_status.json"`
	SetMaintenance   string `long:"set-maintenance" description:"Enable maintenance mode with the given reason and exit"`
	ClearMaintenance bool   `long:"clear-maintenance" description:"Disable maintenance mode and exit"`
}

// Storage holds notification journal configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite journal database" default:"data/vsrelay.db"`
	Prune         time.Duration `long:"prune" description:"Delete journal entries older than duration and exit"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// Guides holds the player guides file configuration.
type Guides struct {
	Path string `long:"path" env:"PATH" description:"Path to the guides JSON file" default:"data/guides.json"`
}

// Parse reads the configuration from a .env file, flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	// Missing .env is the normal case
	_ = godotenv.Load()

	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return cfg
}

// ParseArgs parses the given arguments without touching the process state.
func ParseArgs(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Warnings lists configuration gaps that degrade features without being fatal.
func (c *Config) Warnings() []string {
	var warns []string

	if c.Discord.Token == "" {
		warns = append(warns, "Discord token is not set, chat output goes to the log only")
	}
	if c.Discord.NotificationChannel == "" {
		warns = append(warns, "Notification channel is not set, notifications will be dropped")
	}
	if !c.AdminConfigured() {
		warns = append(warns, "Admin role is not set, admin commands are disabled")
	}
	if c.Source.MaxPlayers <= 0 {
		warns = append(warns, "Default max players must be positive, using 1")
		c.Source.MaxPlayers = 1
	}

	return warns
}

// AdminConfigured reports whether a usable admin role ID is configured.
func (c *Config) AdminConfigured() bool {
	return c.Discord.AdminRole != "" && c.Discord.AdminRole != unsetRoleID
}
