package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ai-spm/internal/bootstrap"
	"ai-spm/internal/config"
	"ai-spm/internal/domain"
	"ai-spm/internal/notify"
	"ai-spm/internal/policy"
	"ai-spm/internal/service"
)

// app agrupa lo que cada subcomando necesita; se arma en PersistentPreRunE.
type app struct {
	logger   *zap.Logger
	sessions *service.SessionManager
	views    *policy.Policy
	notices  *notify.Recorder
	close    func()
}

type rootOptions struct {
	verbose bool
	timeout time.Duration
	app     *app
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Inspect and drive the AI-SPM dashboard session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts.verbose)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log session events to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum time to wait for an operation")

	root.AddCommand(
		newWhoamiCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newRegisterCmd(opts),
		newViewsCmd(opts),
	)
	return root
}

// shutdown libera el almacenamiento; cobra no ejecuta PostRun cuando RunE falla.
func (o *rootOptions) shutdown() {
	if o.app != nil {
		o.app.close()
		o.app = nil
	}
}

func openApp(ctx context.Context, verbose bool) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := zap.NewNop()
	if verbose {
		logger = zap.NewExample()
	}

	store, closeStore, err := bootstrap.OpenSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	transport, err := bootstrap.NewTransport(cfg, logger)
	if err != nil {
		closeStore()
		return nil, err
	}
	views, err := bootstrap.LoadPolicy(cfg)
	if err != nil {
		closeStore()
		return nil, err
	}

	notices := &notify.Recorder{}
	sessions := service.NewSessionManager(logger, store, transport, notify.Multi(notify.NewLogNotifier(logger), notices))

	return &app{
		logger:   logger,
		sessions: sessions,
		views:    views,
		notices:  notices,
		close: func() {
			sessions.Wait()
			_ = logger.Sync()
			closeStore()
		},
	}, nil
}

// waitReady bloquea hasta que la sesion persistida se haya restaurado.
func (a *app) waitReady(ctx context.Context) (domain.Snapshot, error) {
	select {
	case <-a.sessions.Ready():
		return a.sessions.Snapshot(), nil
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

func (a *app) printNotices(w io.Writer) {
	for _, n := range a.notices.All() {
		if n.Variant == domain.VariantDestructive {
			fmt.Fprintf(w, "! %s: %s\n", n.Title, n.Description)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", n.Title, n.Description)
	}
}

// settle reporta los avisos de la operacion. Si el llamador dejo de esperar,
// primero aguarda a que la operacion termine y se aplique.
func (o *rootOptions) settle(cmd *cobra.Command, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "stopped waiting; the operation is still being applied")
		o.app.sessions.Wait()
	}
	o.app.printNotices(cmd.OutOrStdout())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, o.timeout)
}
