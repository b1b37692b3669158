// Package command define los comandos de checkpay, el cliente de terminal
// del registro de pagos con cheque.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"checkpay/internal/backend"
	"checkpay/internal/capture"
	"checkpay/internal/cli/output"
	"checkpay/internal/config"
	"checkpay/internal/localstore"
	"checkpay/internal/notify"
	"checkpay/internal/session"
	"checkpay/internal/submission"
)

// Datos de build, via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// ErrReported indica que el error ya se mostro como aviso; main solo sale con 1.
var ErrReported = errors.New("error already reported")

const envKey = "checkpay.env"

// StoreOpener abre el almacenamiento local del dispositivo.
type StoreOpener func(dir string, logger *zap.Logger) (localstore.Store, error)

type options struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	openStore StoreOpener
}

type Option func(*options)

// WithIO reemplaza la terminal; se usa en tests.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(o *options) {
		o.stdin, o.stdout, o.stderr = in, out, errOut
	}
}

func WithStoreOpener(fn StoreOpener) Option {
	return func(o *options) {
		o.openStore = fn
	}
}

func openBadger(dir string, logger *zap.Logger) (localstore.Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return localstore.NewBadgerStore(dir, logger)
}

// App arma la aplicacion de linea de comandos.
func App(opts ...Option) *cli.App {
	o := &options{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		openStore: openBadger,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &cli.App{
		Name:      "checkpay",
		Usage:     "Log check payments with the Check Payment Logger backend",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:     globalFlags(),
		Reader:    o.stdin,
		Writer:    o.stdout,
		ErrWriter: o.stderr,
		Metadata:  map[string]any{"options": o},
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			StatusCommand(),
			SubmitCommand(),
			HistoryCommand(),
			PingCommand(),
			ShellCommand(),
		},
		After: func(c *cli.Context) error {
			if e, ok := c.App.Metadata[envKey].(*env); ok {
				delete(c.App.Metadata, envKey)
				return e.close()
			}
			return nil
		},
		// Los errores vuelven a main; la libreria no debe llamar a os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.checkpay/config.yaml)",
			EnvVars: []string{"CHECKPAY_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Backend base URL (e.g., http://localhost:8080)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Backend request timeout",
		},
		&cli.StringFlag{
			Name:  "storage-dir",
			Usage: "Directory for the local session store",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

type env struct {
	cfg      *config.ClientConfig
	logger   *zap.Logger
	store    localstore.Store
	api      *backend.Client
	sessions *session.Manager
	flow     *submission.Flow
	prompt   *Prompter
	notifier notify.Notifier
	out      io.Writer
	format   output.Format
}

// loadEnv construye las dependencias una sola vez por ejecucion y restaura
// la sesion guardada.
func loadEnv(c *cli.Context) (*env, error) {
	if e, ok := c.App.Metadata[envKey].(*env); ok {
		return e, nil
	}
	o, _ := c.App.Metadata["options"].(*options)
	if o == nil {
		return nil, errors.New("app not initialised")
	}

	cfg, err := config.LoadClientConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("server") {
		cfg.Backend.URL = c.String("server")
	}
	if c.IsSet("timeout") {
		cfg.Backend.Timeout = c.Duration("timeout")
	}
	if c.IsSet("storage-dir") {
		cfg.Storage.Dir = c.String("storage-dir")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if c.Bool("verbose") {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	store, err := o.openStore(filepath.Clean(cfg.Storage.Dir), logger)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}

	prompt := NewPrompter(o.stdin, o.stdout)
	api := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	sessions := session.NewManager(store, api, logger)
	picker := capture.NewFilePicker(prompt.ImagePath, cfg.Capture.MaxBytes, logger)

	e := &env{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		api:      api,
		sessions: sessions,
		flow:     submission.NewFlow(sessions, api, picker, logger),
		prompt:   prompt,
		notifier: terminalNotifier(o.stdout, o.stderr),
		out:      o.stdout,
		format:   output.Format(cfg.Output),
	}
	c.App.Metadata[envKey] = e

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
	defer cancel()
	state := sessions.Restore(ctx)
	logger.Debug("session restored", zap.Stringer("state", state))
	return e, nil
}

func (e *env) close() error {
	_ = e.logger.Sync()
	return e.store.Close()
}

// terminalNotifier muestra avisos: errores por stderr, el resto por stdout.
func terminalNotifier(out, errOut io.Writer) notify.Notifier {
	return notify.Func(func(_ context.Context, n notify.Notice) error {
		w := out
		if n.Level == notify.LevelError {
			w = errOut
		}
		_, err := fmt.Fprintf(w, "%s\n%s\n", n.Title, n.Message)
		return err
	})
}

func (e *env) notify(ctx context.Context, n notify.Notice) {
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Warn("notice not delivered", zap.Error(err))
	}
}

// fail muestra el aviso del error y devuelve ErrReported.
func (e *env) fail(ctx context.Context, op notify.Op, err error) error {
	n := notify.FromError(op, err)
	e.notify(ctx, n)
	e.logger.Debug("operation failed", zap.String("op", string(op)), zap.Error(err))
	return fmt.Errorf("%w: %s", ErrReported, n.Title)
}

func (e *env) render(data any) error {
	return output.NewFormatter(e.format).Format(e.out, data)
}
