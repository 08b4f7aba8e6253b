package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/api"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/flow"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/genai"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/lockfile"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/messaging"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/store"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/util"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for chatbot state data
	DefaultStateDir = "/var/lib/chatbot-spiritosanto"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "chatbot.db"
	// DefaultMessenger is the transport used when none is configured
	DefaultMessenger = "waha"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if *flags.openaiKey == "" {
		slog.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}
	if *flags.dbDSN == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if *flags.messenger == "waha" && *flags.wahaURL == "" {
		slog.Error("WAHA_URL is required for the waha messenger")
		os.Exit(1)
	}

	if err := run(flags); err != nil {
		slog.Error("Chatbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Chatbot exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL  string
	StateDir     string
	OpenAIKey    string
	APIAddr      string
	Messenger    string
	WAHAURL      string
	WAHASession  string
	HistoryLimit int
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	openaiKey    *string
	apiAddr      *string
	messenger    *string
	wahaURL      *string
	wahaSession  *string
	historyLimit *int
	qrOutput     *string
	numeric      *bool
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		StateDir:     os.Getenv("CHATBOT_STATE_DIR"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		APIAddr:      os.Getenv("API_ADDR"),
		Messenger:    os.Getenv("MESSENGER"),
		WAHAURL:      os.Getenv("WAHA_URL"),
		WAHASession:  os.Getenv("WAHA_SESSION"),
		HistoryLimit: util.ParseIntEnv("HISTORY_LIMIT", models.DefaultHistoryLimit),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CHATBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.Messenger == "" {
		config.Messenger = DefaultMessenger
	}
	if config.WAHASession == "" {
		config.WAHASession = messaging.DefaultWAHASession
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CHATBOT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"MESSENGER", config.Messenger,
		"WAHA_URL_SET", config.WAHAURL != "",
		"WAHA_SESSION", config.WAHASession,
		"HISTORY_LIMIT", config.HistoryLimit)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for chatbot data (overrides $CHATBOT_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN for conversation storage (overrides $DATABASE_URL)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		messenger:    flag.String("messenger", config.Messenger, "messenger backend: waha, whatsmeow or twilio (overrides $MESSENGER)"),
		wahaURL:      flag.String("waha-url", config.WAHAURL, "WAHA gateway base URL (overrides $WAHA_URL)"),
		wahaSession:  flag.String("waha-session", config.WAHASession, "WAHA session name (overrides $WAHA_SESSION)"),
		historyLimit: flag.Int("history-limit", config.HistoryLimit, "bounded history window for AI grounding (overrides $HISTORY_LIMIT)"),
		qrOutput:     flag.String("qr-output", "", "path to write login QR code (whatsmeow messenger only)"),
		numeric:      flag.Bool("numeric-code", false, "use numeric login code instead of QR code (whatsmeow messenger only)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"messenger", *flags.messenger,
		"wahaURL_set", *flags.wahaURL != "",
		"wahaSession", *flags.wahaSession,
		"historyLimit", *flags.historyLimit)

	return flags
}

// buildStoreOptions constructs store configuration options from the DSN
func buildStoreOptions(flags Flags) []store.Option {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return []store.Option{store.WithPostgresDSN(*flags.dbDSN)}
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
	return []store.Option{store.WithSQLiteDSN(*flags.dbDSN)}
}

// buildMessenger constructs the configured messenger backend
func buildMessenger(flags Flags) (messaging.Service, error) {
	switch *flags.messenger {
	case "whatsmeow":
		waOpts := []whatsapp.Option{
			whatsapp.WithDBDSN(filepath.Join(*flags.stateDir, "whatsmeow.db")),
		}
		if *flags.qrOutput != "" {
			waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			waOpts = append(waOpts, whatsapp.WithNumericCode())
		}
		client, err := whatsapp.NewClient(waOpts...)
		if err != nil {
			return nil, err
		}
		return messaging.NewWhatsAppService(client), nil
	case "twilio":
		return messaging.NewTwilioService()
	default:
		return messaging.NewWAHAService(
			messaging.WithWAHABaseURL(*flags.wahaURL),
			messaging.WithWAHASession(*flags.wahaSession),
		)
	}
}

// run assembles the modules and serves until interrupted.
func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	st, err := store.NewStore(buildStoreOptions(flags)...)
	if err != nil {
		return err
	}
	defer st.Close()

	responder, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
	if err != nil {
		return err
	}

	msgService, err := buildMessenger(flags)
	if err != nil {
		return err
	}
	defer msgService.Stop()

	router := flow.NewRouter(st, msgService, responder,
		flow.WithHistoryLimit(*flags.historyLimit))

	if err := msgService.Start(ctx); err != nil {
		return err
	}
	listener := messaging.NewListener(msgService, router)
	go listener.Run(ctx)

	apiOpts := []api.Option{}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if twilioService, ok := msgService.(*messaging.TwilioService); ok {
		apiOpts = append(apiOpts, api.WithTwilioWebhook(twilioService.InboundWebhookHandler))
	}

	server := api.NewServer(router, apiOpts...)
	slog.Info("Bootstrapping chatbot", "messenger", *flags.messenger, "api_addr", *flags.apiAddr)
	return server.Run(ctx)
}
