package useful

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

var buildVersion = "dev"

func Main() int {
	options, err := parseCliOptions(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		return 1
	}

	switch options.intent {
	case cliIntentVersionPrint:
		fmt.Println(buildVersion)
	case cliIntentConfigValidate:
		if _, err := parseConfigFile(options.configPath); err != nil {
			fmt.Println(err)
			return 1
		}

		fmt.Println("Config is valid")
	case cliIntentGridPrint:
		if err := cliPrintGrid(os.Stdout, options, time.Now()); err != nil {
			fmt.Println(err)
			return 1
		}
	case cliIntentServe:
		if err := serveApp(options.configPath); err != nil {
			fmt.Println(err)
			return 1
		}
	}

	return 0
}

// appRunner swaps the running application whenever a new config revision
// produces a working one; failures keep the previous application serving.
type appRunner struct {
	mu     sync.Mutex
	stop   func() error
	errors chan error
}

func (r *appRunner) run(c *config) error {
	app, err := newApplication(c, time.Now)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		if err := r.stop(); err != nil {
			slog.Error("Failed to stop previous server", "error", err)
		}
	}

	start, stop := app.server()
	r.stop = stop

	go func() {
		if err := start(); err != nil {
			select {
			case r.errors <- err:
			default:
				slog.Error("Server error", "error", err)
			}
		}
	}()

	return nil
}

func (r *appRunner) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		if err := r.stop(); err != nil {
			slog.Error("Failed to stop server", "error", err)
		}
		r.stop = nil
	}
}

func serveApp(configPath string) error {
	c, err := parseConfigFile(configPath)
	if err != nil {
		return err
	}

	runner := &appRunner{errors: make(chan error, 1)}

	if err := runner.run(c); err != nil {
		return fmt.Errorf("creating application: %w", err)
	}
	defer runner.shutdown()

	stopWatching, err := watchConfigFile(configPath, func(c *config) {
		slog.Info("Config file changed, restarting application")

		if err := runner.run(c); err != nil {
			slog.Error("Failed to restart application, keeping the previous one", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer stopWatching()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
		return nil
	case err := <-runner.errors:
		return fmt.Errorf("http server error: %w", err)
	}
}
