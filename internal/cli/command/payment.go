package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"checkpay/internal/backend"
	"checkpay/internal/capture"
	"checkpay/internal/cli/output"
	"checkpay/internal/domain"
	"checkpay/internal/notify"
	"checkpay/internal/session"
)

func SubmitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Log a check payment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "business",
				Aliases: []string{"b"},
				Usage:   "Business name (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:    "quantity",
				Aliases: []string{"q"},
				Usage:   "Quantity sold (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "Path to the check image",
			},
			&cli.StringFlag{
				Name:  "source",
				Value: string(capture.SourceGallery),
				Usage: "Image source when --image is omitted: camera, gallery",
			},
		},
		Action: runSubmit,
	}
}

func runSubmit(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	if e.sessions.State() != session.StateAuthenticated {
		return e.fail(c.Context, notify.OpSubmit, &domain.AuthenticationError{Reason: "not logged in"})
	}

	business := c.String("business")
	if !c.IsSet("business") {
		if business, err = e.prompt.Line("Business name: "); err != nil {
			return err
		}
	}
	quantity := c.String("quantity")
	if !c.IsSet("quantity") {
		if quantity, err = e.prompt.Line("Quantity sold: "); err != nil {
			return err
		}
	}
	e.flow.SetBusinessName(business)
	e.flow.SetQuantitySold(quantity)

	if path := c.String("image"); path != "" {
		img, err := capture.LoadFile(path, e.cfg.Capture.MaxBytes)
		if err != nil {
			return e.fail(c.Context, notify.OpGallery, err)
		}
		e.flow.SetCheckImage(img)
	} else {
		source, err := capture.ParseSource(c.String("source"))
		if err != nil {
			return err
		}
		if err := e.captureInto(c.Context, source); err != nil {
			return err
		}
	}

	receipt, err := e.flow.Submit(c.Context)
	if err != nil {
		return e.fail(c.Context, notify.OpSubmit, err)
	}
	e.notify(c.Context, notify.PaymentLogged(receipt))
	if e.format != output.FormatTable {
		return e.render(newReceiptView(receipt))
	}
	return nil
}

// captureInto pide la imagen al selector; cancelar no es un error.
func (e *env) captureInto(ctx context.Context, source capture.Source) error {
	op := notify.OpGallery
	if source == capture.SourceCamera {
		op = notify.OpCamera
	}
	ok, err := e.flow.Capture(ctx, source)
	if err != nil {
		return e.fail(ctx, op, err)
	}
	if !ok {
		e.notify(ctx, notify.Notice{Level: notify.LevelInfo, Title: "No Image", Message: "No image selected"})
	}
	return nil
}

func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List the payments you logged, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   20,
				Usage:   "Maximum number of entries",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			receipts, err := e.history(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			return e.render(newHistoryView(receipts))
		},
	}
}

// history trae los pagos del usuario. Un token ausente o rechazado cierra la
// sesion igual que en el envio.
func (e *env) history(ctx context.Context, limit int) ([]domain.PaymentReceipt, error) {
	if limit <= 0 {
		return nil, e.fail(ctx, notify.OpHistory, &domain.ValidationError{Field: "limit", Message: "limit must be positive"})
	}
	token, err := e.sessions.Token(ctx)
	if err != nil {
		if e.sessions.State() == session.StateAuthenticated {
			e.invalidate(ctx, "missing token")
		}
		return nil, e.fail(ctx, notify.OpHistory, err)
	}

	receipts, err := e.api.ListPayments(ctx, token, limit)
	if backend.IsUnauthorized(err) {
		e.invalidate(ctx, "token rejected by backend")
		return nil, e.fail(ctx, notify.OpHistory, &domain.AuthenticationError{Reason: "token rejected", Cause: err})
	}
	if err != nil {
		return nil, e.fail(ctx, notify.OpHistory, err)
	}
	return receipts, nil
}

// invalidate cierra la sesion; si el almacenamiento falla solo queda en el log.
func (e *env) invalidate(ctx context.Context, reason string) {
	if err := e.sessions.Invalidate(ctx, reason); err != nil {
		e.logger.Warn("forced logout incomplete", zap.String("reason", reason), zap.Error(err))
	}
}

func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the backend is reachable",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			status, err := e.api.Health(c.Context)
			if err != nil {
				var netErr *domain.NetworkError
				if errors.As(err, &netErr) {
					return fmt.Errorf("backend %s unreachable: %w", e.api.BaseURL(), err)
				}
				return fmt.Errorf("backend %s unhealthy: %w", e.api.BaseURL(), err)
			}
			view := healthView{Backend: e.api.BaseURL(), Status: status.Status}
			if !status.Timestamp.IsZero() {
				view.Timestamp = status.Timestamp.UTC().Format(time.RFC3339)
			}
			return e.render(view)
		},
	}
}
