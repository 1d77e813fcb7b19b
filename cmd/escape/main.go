// Command escape renders and explores rational escape-time fractals.
//
// Usage:
//
//	escape render --out julia.png --scale 2 --hud
//	escape explore --config escape.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/fractal"
	"github.com/gogpu/fractal/config"
	"github.com/gogpu/fractal/gpu"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "escape",
	Short:         "Interactive escape-time fractal explorer",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(logLevel)
		if err != nil {
			return err
		}
		fractal.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.AddCommand(renderCmd, exploreCmd)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// newRenderer creates a renderer for cfg at the given viewport. In GPU mode
// the evaluator is bound only when it could be created; otherwise the first
// tick falls back to the CPU.
func newRenderer(cfg config.Config, width, height int, extra ...fractal.Option) (*fractal.Renderer, error) {
	cfg.Width, cfg.Height = width, height
	opts := extra
	if strings.EqualFold(cfg.Mode, fractal.ModeGPU.String()) {
		if eval, err := gpu.NewEvaluator(); err == nil {
			opts = append(opts, fractal.WithEvaluator(eval))
		} else {
			fractal.Logger().Warn("escape: GPU evaluator unavailable", "err", err)
		}
	}
	return cfg.NewRenderer(opts...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "escape:", err)
		stop()
		os.Exit(1)
	}
}
