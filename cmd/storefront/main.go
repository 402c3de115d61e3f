// Command storefront drives the storefront from the terminal: browse the
// catalog, keep a cart and wishlist, check out and administer products.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"goflare.io/storefront/config"
	"goflare.io/storefront/logger"
)

var (
	configPath string
	logLevel   string
	jsonOutput bool

	app *application
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewLoader().Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logger.Level = logLevel
		}

		log, err := logger.New(cfg.Logger)
		if err != nil {
			return err
		}

		app, err = newApplication(cmd.Context(), cfg, log)
		if err != nil {
			_ = log.Sync()
			return err
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		defer func() { _ = app.logger.Sync() }()
		defer app.Close()

		if app.recorder != nil {
			return app.recorder.WriteText(os.Stderr)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $"+config.EnvPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(seedCmd, homeCmd, productsCmd, productCmd, searchCmd, categoriesCmd)
	rootCmd.AddCommand(cartCmd, wishlistCmd, checkoutCmd, lastOrderCmd, ordersCmd, notificationsCmd)
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, profileCmd)
	rootCmd.AddCommand(adminCmd, listenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if app != nil {
			app.logger.Debug("Command failed", zap.Error(err))
			app.Close()
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// printJSON writes v as indented JSON and reports whether --json was set.
func printJSON(v any) (bool, error) {
	if !jsonOutput {
		return false, nil
	}

	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return true, fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return true, nil
}

func stripeCurrency(code string) stripe.Currency {
	return stripe.Currency(strings.ToLower(code))
}
