// Command lawfirmctl runs operational tasks against the firm's database:
// schema migrations, account bootstrap and the reminder dispatcher.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/diewo77/go-lawfirm/internal/ai"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/diewo77/go-lawfirm/internal/db"
	"github.com/diewo77/go-lawfirm/internal/logger"
	"github.com/diewo77/go-lawfirm/internal/mail"
	"github.com/diewo77/go-lawfirm/internal/services"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "lawfirmctl",
		Usage: "Law firm practice management operations",
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			usersCommand(),
			remindersCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

// env is the shared runtime of a subcommand.
type env struct {
	cfg  *config.Config
	log  *zap.Logger
	conn *gorm.DB
}

func openEnv(ctx context.Context) (*env, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lg, err := logger.Init(logger.Config{Level: cfg.Log.Level, Environment: cfg.Log.Environment, Service: cfg.Log.Service + "-ctl"})
	if err != nil {
		return nil, err
	}
	conn, err := db.Connect(ctx, cfg.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &env{cfg: cfg, log: lg, conn: conn}, nil
}

func (e *env) close() {
	_ = db.Close(e.conn)
	_ = e.log.Sync()
}

// services builds the use-case layer without file storage; none of the
// commands touch documents.
func (e *env) services(ctx context.Context) *services.Services {
	gen, err := ai.New(ctx, e.cfg.Gemini)
	if err != nil {
		gen = ai.Disabled{}
	}
	return services.New(services.Deps{
		DB:     e.conn,
		Mailer: mail.New(e.cfg.Mail, e.log),
		AI:     gen,
		Config: e.cfg,
		Log:    e.log,
	})
}

func withEnv(fn func(ctx context.Context, c *cli.Command, e *env) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(ctx, c, e)
	}
}

func migrateCommand() *cli.Command {
	dirFlag := &cli.StringFlag{Name: "dir", Usage: "migrations directory (defaults to MIGRATIONS_DIR)"}
	dir := func(c *cli.Command, e *env) string {
		if d := c.String("dir"); d != "" {
			return d
		}
		return e.cfg.App.MigrationsDir
	}
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations (auto-migrates on SQLite)",
				Flags: []cli.Flag{dirFlag},
				Action: withEnv(func(ctx context.Context, c *cli.Command, e *env) error {
					opts := db.MigrateOptions{SQL: e.cfg.Database.Driver == "postgres", Dir: dir(c, e), URL: e.cfg.Database.URL()}
					if err := db.Migrate(e.conn, opts); err != nil {
						return err
					}
					e.log.Info("migrations completed")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Revert the most recent migrations",
				Flags: []cli.Flag{dirFlag, &cli.IntFlag{Name: "steps", Value: 1}},
				Action: withEnv(func(ctx context.Context, c *cli.Command, e *env) error {
					if err := db.RollbackSQLMigrations(e.cfg.Database.URL(), dir(c, e), int(c.Int("steps"))); err != nil {
						return err
					}
					e.log.Info("migrations reverted", zap.Int64("steps", int64(c.Int("steps"))))
					return nil
				}),
			},
			{
				Name:  "version",
				Usage: "Print the applied migration version",
				Flags: []cli.Flag{dirFlag},
				Action: withEnv(func(ctx context.Context, c *cli.Command, e *env) error {
					v, dirty, err := db.SQLMigrationVersion(e.cfg.Database.URL(), dir(c, e))
					if err != nil {
						return err
					}
					fmt.Printf("version %d dirty=%v\n", v, dirty)
					return nil
				}),
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-admin",
		Usage: "Create the administrator from ADMIN_EMAIL / ADMIN_PASSWORD when missing",
		Action: withEnv(func(ctx context.Context, c *cli.Command, e *env) error {
			created, err := db.EnsureAdmin(ctx, e.conn, e.cfg.Admin)
			if err != nil {
				return err
			}
			if created {
				fmt.Println("administrator created")
			} else {
				fmt.Println("administrator already exists")
			}
			return nil
		}),
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Staff accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a staff account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "role", Value: "Associate", Usage: "Admin, Partner or Associate"},
				},
				Action: withEnv(func(ctx context.Context, c *cli.Command, e *env) error {
					u, err := e.services(ctx).Users.Create(ctx, services.UserInput{
						Email:    c.String("email"),
						Name:     c.String("name"),
						Password: c.String("password"),
						Role:     c.String("role"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
					return nil
				}),
			},
		},
	}
}

func remindersCommand() *cli.Command {
	langFlag := &cli.StringFlag{Name: "lang", Value: "tr", Usage: "language of reminder mails"}
	return &cli.Command{
		Name:  "reminders",
		Usage: "Deliver due reminders",
		Commands: []*cli.Command{
			{
				Name:  "once",
				Usage: "Deliver everything due now and exit",
				Flags: []cli.Flag{langFlag},
				Action: withEnv(func(ctx context.Context, c *cli.Command, e *env) error {
					n, err := e.services(ctx).Reminders.DispatchDue(ctx, c.String("lang"))
					if err != nil {
						return err
					}
					fmt.Printf("%d reminders dispatched\n", n)
					return nil
				}),
			},
			{
				Name:  "run",
				Usage: "Dispatch due reminders on REMINDER_SCHEDULE until interrupted",
				Flags: []cli.Flag{langFlag, &cli.StringFlag{Name: "schedule", Usage: "cron expression, overrides REMINDER_SCHEDULE"}},
				Action: withEnv(func(ctx context.Context, c *cli.Command, e *env) error {
					schedule := e.cfg.Reminders.Schedule
					if s := c.String("schedule"); s != "" {
						schedule = s
					}
					reminders := e.services(ctx).Reminders
					lang := c.String("lang")
					return runScheduled(ctx, schedule, e.log, func(ctx context.Context) (int, error) {
						return reminders.DispatchDue(ctx, lang)
					})
				}),
			},
		},
	}
}
