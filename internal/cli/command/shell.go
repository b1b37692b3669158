package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"checkpay/internal/capture"
	"checkpay/internal/notify"
	"checkpay/internal/session"
)

func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:    "shell",
		Aliases: []string{"interactive"},
		Usage:   "Interactive login and payment form",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			err = e.shell(c.Context)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		},
	}
}

// shell alterna entre la pantalla de login y el formulario segun el estado
// de la sesion. Los errores se muestran como avisos y el bucle sigue.
func (e *env) shell(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.sessions.State() != session.StateAuthenticated {
			done, err := e.loginScreen(ctx)
			if err != nil || done {
				return err
			}
			continue
		}
		done, err := e.formScreen(ctx)
		if err != nil || done {
			return err
		}
	}
}

func (e *env) loginScreen(ctx context.Context) (bool, error) {
	fmt.Fprintln(e.out, "\nCheck Payment Logger")
	fmt.Fprintln(e.out, "Sign in to continue (blank username to quit)")
	username, err := e.prompt.Line("Username: ")
	if err != nil {
		return true, err
	}
	if strings.TrimSpace(username) == "" {
		return true, nil
	}
	password, err := e.prompt.Password("Password: ")
	if err != nil {
		return true, err
	}
	sess, err := e.sessions.Login(ctx, username, password)
	if err != nil {
		_ = e.fail(ctx, notify.OpLogin, err)
		return false, nil
	}
	e.notify(ctx, notify.Welcome(sess.Profile))
	return false, nil
}

func (e *env) printForm() {
	form := e.flow.Form()
	name := "-"
	if sess, ok := e.sessions.Current(); ok {
		name = sess.Username
	}
	image := "none"
	if !form.CheckImage.Empty() {
		image = fmt.Sprintf("%s, %d bytes", form.CheckImage.MIME, form.CheckImage.Size)
	}

	fmt.Fprintf(e.out, "\nLog Check Payment (signed in as %s)\n", name)
	fmt.Fprintf(e.out, "  Business name: %s\n", orDash(form.BusinessName))
	fmt.Fprintf(e.out, "  Quantity sold: %s\n", orDash(form.QuantitySold))
	fmt.Fprintf(e.out, "  Check image:   %s\n", image)
	fmt.Fprintln(e.out, "[1] business name  [2] quantity  [3] camera  [4] gallery")
	fmt.Fprintln(e.out, "[5] submit  [6] clear  [7] history  [8] logout  [9] quit")
}

func (e *env) formScreen(ctx context.Context) (bool, error) {
	e.printForm()
	choice, err := e.prompt.Line("> ")
	if err != nil {
		return true, err
	}

	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "1", "business":
		v, err := e.prompt.Line("Business name: ")
		if err != nil {
			return true, err
		}
		e.flow.SetBusinessName(v)
	case "2", "quantity":
		v, err := e.prompt.Line("Quantity sold: ")
		if err != nil {
			return true, err
		}
		e.flow.SetQuantitySold(v)
	case "3", "camera":
		_ = e.captureInto(ctx, capture.SourceCamera)
	case "4", "gallery":
		_ = e.captureInto(ctx, capture.SourceGallery)
	case "5", "submit":
		receipt, err := e.flow.Submit(ctx)
		if err != nil {
			_ = e.fail(ctx, notify.OpSubmit, err)
			break
		}
		e.notify(ctx, notify.PaymentLogged(receipt))
	case "6", "clear":
		if e.flow.Form().Empty() || e.prompt.Confirm("Clear all entered data?") {
			e.flow.Clear()
		}
	case "7", "history":
		receipts, err := e.history(ctx, 10)
		if err == nil {
			_ = e.render(newHistoryView(receipts))
		}
	case "8", "logout":
		if e.prompt.Confirm("Are you sure you want to logout?") {
			if err := e.sessions.Logout(ctx); err != nil {
				_ = e.fail(ctx, notify.OpLogout, err)
			}
			e.flow.Clear()
		}
	case "9", "q", "quit", "exit":
		return true, nil
	case "":
	default:
		fmt.Fprintf(e.out, "Unknown option %q\n", choice)
	}
	return false, nil
}
