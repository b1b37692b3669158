package command

import (
	"github.com/urfave/cli/v2"

	"checkpay/internal/notify"
)

func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session on this device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Username (prompted when omitted)",
			},
		},
		Action: runLogin,
	}
}

func runLogin(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	username := c.String("username")
	if username == "" {
		if username, err = e.prompt.Line("Username: "); err != nil {
			return err
		}
	}
	password, err := e.prompt.Password("Password: ")
	if err != nil {
		return err
	}

	sess, err := e.sessions.Login(c.Context, username, password)
	if err != nil {
		return e.fail(c.Context, notify.OpLogin, err)
	}
	e.notify(c.Context, notify.Welcome(sess.Profile))
	return nil
}

func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			if err := e.sessions.Logout(c.Context); err != nil {
				return e.fail(c.Context, notify.OpLogout, err)
			}
			e.notify(c.Context, notify.Notice{Level: notify.LevelInfo, Title: "Logged Out", Message: "Session removed from this device"})
			return nil
		},
	}
}

func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the stored session",
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			return e.render(newStatusView(e.sessions, e.api.BaseURL()))
		},
	}
}
