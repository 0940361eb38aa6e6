package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fauxgnome/fauxscreensaver/internal/config"
	"github.com/fauxgnome/fauxscreensaver/internal/dpms"
	"github.com/fauxgnome/fauxscreensaver/internal/gsettings"
	"github.com/fauxgnome/fauxscreensaver/internal/gsm"
	"github.com/fauxgnome/fauxscreensaver/internal/ipc"
	"github.com/fauxgnome/fauxscreensaver/internal/logind"
	"github.com/fauxgnome/fauxscreensaver/internal/proc"
	"github.com/fauxgnome/fauxscreensaver/internal/screensaver"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagDebug  bool
	flagNoDPMS bool
)

var rootCmd = &cobra.Command{
	Use:   "fauxscreensaverd",
	Short: "org.gnome.ScreenSaver compatibility service backed by xscreensaver",
	Long: `fauxscreensaverd supervises an xscreensaver daemon and exposes its
state as the org.gnome.ScreenSaver session service, so GNOME-aware
applications can query, lock and inhibit the screensaver.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to the config file")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagNoDPMS, "no-dpms", false, "don't manage DPMS (Energy Star) features")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(flagConfig)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if flagDebug {
		enabled := true
		cfg.Debug = &enabled
	}
	if flagNoDPMS {
		disabled := false
		cfg.ManageDPMS = &disabled
	}

	level := slog.LevelInfo
	if *cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sig
		cancel()
	}()

	runner := proc.NewRunner(logger)
	display := dpms.NewControl(runner, cfg.XsetBin, *cfg.ManageDPMS, logger)
	manager := screensaver.NewManager(runner, display, screensaver.Options{
		ScreensaverBin: cfg.ScreensaverBin,
		CommandBin:     cfg.CommandBin,
		OptionsPath:    cfg.ExpandedOptionsPath(),
	}, logger)

	policy := gsettings.New(runner, cfg.GsettingsBin, logger)
	policy.Activate()
	defer policy.Restore()

	if err := manager.Activate(); err != nil {
		return err
	}
	defer manager.Deactivate()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Serving org.gnome.ScreenSaver...")
		if err := ipc.Serve(ctx, manager, cancel, logger); err != nil {
			logger.Error("screensaver service error", "error", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Monitoring session manager inhibitors...")
		if err := gsm.Listen(ctx, manager, logger); err != nil {
			logger.Error("session manager listener error", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Monitoring logind session signals...")
		if err := logind.Watch(ctx, manager, logger); err != nil {
			logger.Error("logind watcher error", "error", err)
		}
	}()

	// Timeout changes have no remote consumer; drain them so the
	// tracker's channel never backs up.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-manager.TimeoutChanged():
				logger.Debug("idle timeout is now", "seconds", t)
			}
		}
	}()

	<-ctx.Done()
	wg.Wait()
	fmt.Println("Shutdown complete")
	return nil
}
