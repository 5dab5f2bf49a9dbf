package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	str2duration "github.com/xhit/go-str2duration/v2"

	"poolwatch"
	"poolwatch/pkg/core"
)

const (
	defaultNetwork  = "hyperevm"
	defaultPool     = "0xe9c02ca07931f9670fa87217372b3c9aa5a8a934"
	defaultInterval = time.Minute
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "poolwatch",
		Short:   "GeckoTerminal pool FDV monitoring bot for Telegram",
		Version: "1.0.0",
		RunE:    runWatch,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	// A local .env is a convenience, not a requirement.
	_ = godotenv.Load()

	settings, ok, err := settingsFromEnv()
	if err != nil {
		return err
	}
	if !ok {
		printOperatorGuidance()
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := poolwatch.NewBot(ctx, settings,
		poolwatch.WithLogLevel(envOr("LOG_LEVEL", "info")),
	)
	if err != nil {
		return err
	}

	if err := bot.Run(ctx); err != nil {
		return err
	}

	bot.Summary()
	return nil
}

// settingsFromEnv builds the settings from environment variables. A missing
// bot token is not an error; it flips ok to false so the caller can print
// operator guidance and exit cleanly.
func settingsFromEnv() (core.Settings, bool, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return core.Settings{}, false, nil
	}

	settings := core.Settings{
		Network:     envOr("POOL_NETWORK", defaultNetwork),
		PoolAddress: envOr("POOL_ADDRESS", defaultPool),
		Interval:    defaultInterval,
		Telegram:    core.TelegramSettings{Token: token},
	}

	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		interval, err := str2duration.ParseDuration(raw)
		if err != nil {
			return core.Settings{}, false, fmt.Errorf("invalid POLL_INTERVAL %q: %w", raw, err)
		}
		settings.Interval = interval
	}

	if raw := os.Getenv("CHAT_ID"); raw != "" {
		chat, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return core.Settings{}, false, fmt.Errorf("invalid CHAT_ID %q: %w", raw, err)
		}
		settings.Telegram.DefaultChat = chat
	}

	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return core.Settings{}, false, fmt.Errorf("invalid ALLOWED_USERS entry %q: %w", field, err)
			}
			settings.Telegram.Users = append(settings.Telegram.Users, id)
		}
	}

	if raw := os.Getenv("LISTING_TARGET_FDV"); raw != "" {
		target, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.Settings{}, false, fmt.Errorf("invalid LISTING_TARGET_FDV %q: %w", raw, err)
		}
		settings.ListingTargetFDV = target
	}

	return settings, true, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func printOperatorGuidance() {
	fmt.Println("Missing required configuration.")
	fmt.Println()
	fmt.Println("Required environment variables:")
	fmt.Println("  TELEGRAM_BOT_TOKEN  bot token issued by @BotFather")
	fmt.Println()
	fmt.Println("Optional environment variables:")
	fmt.Println("  CHAT_ID             chat subscribed at startup")
	fmt.Println("  ALLOWED_USERS       comma-separated user ids allowed to /start")
	fmt.Println("  POOL_NETWORK        GeckoTerminal network slug (default hyperevm)")
	fmt.Println("  POOL_ADDRESS        pool address to monitor")
	fmt.Println("  POLL_INTERVAL       update interval, e.g. 60s or 5m (default 60s)")
	fmt.Println("  LISTING_TARGET_FDV  FDV target for the listing progress line")
	fmt.Println("  LOG_LEVEL           trace|debug|info|warn|error (default info)")
}
