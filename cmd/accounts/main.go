package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/M0byNick/bookandacoffee/internal/account"
	accountrepo "github.com/M0byNick/bookandacoffee/internal/account/repo"
	"github.com/M0byNick/bookandacoffee/pkg/database"
	"github.com/M0byNick/bookandacoffee/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(&runtime{logger: lg.Sugar()})
	if err := app.RunContext(ctx, os.Args); err != nil {
		lg.Sugar().Errorw("command failed", "err", err)
		fmt.Fprintln(os.Stderr, userMessage(err))
		stop()
		lg.Sync()
		os.Exit(1)
	}
}

func newApp(rt *runtime) *cli.App {
	return &cli.App{
		Name:  "accounts",
		Usage: "manage book-and-a-coffee reader accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "database-url", EnvVars: []string{"DATABASE_URL"}, Usage: "postgres DSN"},
			&cli.IntFlag{Name: "hash-cost", EnvVars: []string{"HASH_COST"}, Value: account.DefaultHashCost, Usage: "bcrypt cost factor"},
		},
		Before: rt.open,
		After:  rt.close,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create the accounts table",
				Action: rt.migrate,
			},
			{
				Name:  "signup",
				Usage: "create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ACCOUNT_PASSWORD"}},
				},
				Action: rt.signup,
			},
			{
				Name:  "login",
				Usage: "check a password against an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "identifier", Required: true, Usage: "username or email"},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ACCOUNT_PASSWORD"}},
				},
				Action: rt.login,
			},
			{
				Name:  "passwd",
				Usage: "change an account password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "current", Required: true},
					&cli.StringFlag{Name: "new", Required: true},
				},
				Action: rt.passwd,
			},
			{
				Name:  "profile",
				Usage: "update biography, favourite subjects and picture",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "bio"},
					&cli.StringSliceFlag{Name: "subject"},
					&cli.StringFlag{Name: "picture"},
				},
				Action: rt.profile,
			},
			{
				Name:  "confirm-request",
				Usage: "derive an email confirmation token and print it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
				},
				Action: rt.confirmRequest,
			},
			{
				Name:  "confirm",
				Usage: "confirm an email address with a token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "token", Required: true},
				},
				Action: rt.confirm,
			},
			{
				Name:   "show",
				Usage:  "print an account",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: rt.show,
			},
			{
				Name:   "delete",
				Usage:  "delete an account",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: rt.remove,
			},
		},
	}
}

// runtime owns the connections shared by every command. A runtime whose svc is
// already set skips opening the database.
type runtime struct {
	logger *zap.SugaredLogger
	closer func() error
	repo   *accountrepo.AccountRepo
	svc    *account.Service
}

func (rt *runtime) open(c *cli.Context) error {
	switch c.Args().First() {
	case "", "help", "h":
		return nil
	}
	if rt.svc != nil {
		return nil
	}
	dbCfg := database.ConfigFromEnv()
	if v := c.String("database-url"); v != "" {
		dbCfg.DSN = v
	}
	db, err := database.Connect(c.Context, dbCfg)
	if err != nil {
		return err
	}
	rt.closer = db.Close

	cfg := account.ConfigFromEnv()
	if c.IsSet("hash-cost") {
		cfg.HashCost = c.Int("hash-cost")
	}
	rt.repo = accountrepo.NewAccountRepo(db)
	ids := utilities.NewIDGenerator(utilities.IDConfigFromEnv())
	rt.svc, err = account.NewService(rt.repo, ids, cfg, rt.logger)
	return err
}

func (rt *runtime) close(*cli.Context) error {
	if rt.closer == nil {
		return nil
	}
	return rt.closer()
}
