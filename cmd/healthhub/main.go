package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/bmi"
	"github.com/yusufkecer/healthhub/internal/cache"
	"github.com/yusufkecer/healthhub/internal/config"
	"github.com/yusufkecer/healthhub/internal/db"
	"github.com/yusufkecer/healthhub/internal/logger"
	"github.com/yusufkecer/healthhub/internal/server"
	"github.com/yusufkecer/healthhub/internal/stats"
)

var (
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "healthhub",
	Short: "HealthHub health information service",
	Long: `HealthHub serves the health information site and its JSON API:
BMI assessment with per-account history, country health statistics,
an AI symptom chat and email/password accounts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to healthhub.yaml config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bmiCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		startCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		app, err := server.New(startCtx, cfg, log)
		cancel()
		if err != nil {
			return err
		}
		defer app.Close()

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           app.Handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case sig := <-quit:
			log.Info("shutting down", zap.String("signal", sig.String()))
		}

		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		database, err := db.Connect(cmd.Context(), cfg.DSN(), log)
		if err != nil {
			return err
		}
		defer database.Close()
		return db.RunMigrations(cmd.Context(), database, log)
	},
}

var bmiCmd = &cobra.Command{
	Use:   "bmi <weight-kg> <height-cm> <male|female>",
	Short: "Assess a BMI from the command line",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bmi.Assess(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "BMI %.1f (%s)\n", a.BMI, a.Category)
		fmt.Fprintln(out, a.Tips.Title)
		for _, item := range a.Tips.Items {
			fmt.Fprintf(out, "  - %s\n", item)
		}
		if a.Tips.Note != "" {
			fmt.Fprintln(out, a.Tips.Note)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <country>",
	Short: "Look up health statistics for a country",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		mem := cache.New(cfg.StatsCacheTTL, 0)
		defer mem.Stop()
		svc := server.NewStatsService(cfg, stats.NewMemoryCache(mem), log)

		query := strings.Join(args, " ")
		res, err := svc.Search(cmd.Context(), query)
		if err != nil {
			return errors.New(stats.FailureMessage(query))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (population %s)\n", res.Country.Country, stats.FormatNumber(res.Country.Population))
		for _, s := range res.HealthStats {
			fmt.Fprintln(out, statLine(s))
		}
		return nil
	},
}

// statLine prints a rate when the source reports one and the population
// percentage otherwise.
func statLine(s stats.HealthStat) string {
	line := fmt.Sprintf("  %-28s %10s", s.Illness, stats.FormatNumber(s.Cases))
	if s.Rate != "" && s.Rate != stats.NoRate {
		line += " " + s.Rate
	} else {
		line += "  " + stats.FormatPercentage(s.Percentage)
	}
	if s.Trend != "" {
		line += "  " + string(s.Trend)
	}
	return fmt.Sprintf("%s  [%s]", line, s.DataSource)
}
