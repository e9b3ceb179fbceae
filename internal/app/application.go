package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raysh454/vulnx/internal/history"
	"github.com/raysh454/vulnx/internal/logging"
	"github.com/raysh454/vulnx/internal/scan"
	"github.com/raysh454/vulnx/internal/session"
	"github.com/raysh454/vulnx/internal/webclient"
)

// Application is the runtime state container shared by the HTTP layer.
// It owns the Scan Service client, the optional history store and the
// session store.
type Application struct {
	Config *Config
	Logger logging.Logger

	WebClient *webclient.NetHTTPClient
	Service   scan.Service
	History   *history.Store // nil when history is disabled
	Sessions  *session.Store

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication builds every component from cfg. service may be nil, in
// which case an HTTP client for cfg.ScanServiceURL is used.
func NewApplication(cfg *Config, logger logging.Logger, service scan.Service) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("vulnx")
	}

	a := &Application{Config: cfg, Logger: logger}

	if service == nil {
		if cfg.ScanServiceURL == "" {
			return nil, errors.New("scan service url is required")
		}
		wc, err := webclient.NewNetHTTPClient(cfg.WebClientCfg, logger, nil)
		if err != nil {
			return nil, fmt.Errorf("new webclient: %w", err)
		}
		a.WebClient = wc
		service = scan.NewHTTPService(cfg.ScanServiceURL, wc, logger)
	}
	a.Service = service

	var recorder session.Recorder
	if cfg.HistoryPath != "" {
		path, err := expandPath(cfg.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("expanding history path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			logger.Warn("creating history directory", logging.Field{Key: "path", Value: path}, logging.Field{Key: "error", Value: err.Error()})
		}
		h, err := history.Open(path, logger)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		a.History = h
		recorder = h
	}

	a.Sessions = session.NewStore(cfg.SessionCfg, service, recorder, logger)
	return a, nil
}

// Start launches background work: the idle-session sweeper.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Config.PruneInterval > 0 && a.Config.SessionCfg.IdleTTL > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			ticker := time.NewTicker(a.Config.PruneInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					a.Sessions.Prune()
				}
			}
		}()
	}

	a.Logger.Info("application started",
		logging.Field{Key: "scan_service", Value: a.Config.ScanServiceURL},
		logging.Field{Key: "history", Value: a.History != nil})
	return nil
}

// Shutdown stops background work and waits for in-flight scans until ctx is
// done, then releases the history database and HTTP client.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	done := make(chan struct{})
	go func() {
		a.Sessions.Close()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for in-flight scans: %w", ctx.Err())
		a.Logger.Warn("shutdown timed out with scans in flight")
	}

	if a.History != nil {
		// History writes still running after a timeout fail harmlessly.
		if cerr := a.History.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing history: %w", cerr)
		}
	}
	if a.WebClient != nil {
		_ = a.WebClient.Close()
	}
	return err
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
