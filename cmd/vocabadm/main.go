package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"vocab-manager/internal/config"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	runner := NewRunner(RunnerOpts{Config: cfg, Logger: logger})

	app := &cli.Command{
		Name:     "vocabadm",
		Usage:    "Administer the vocabulary manager database",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("vocabadm: %v", err)
	}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "migrate",
			Usage:  "Apply pending database migrations",
			Action: r.Migrate,
		},
		{
			Name:  "create-admin",
			Usage: "Create an admin account or promote an existing user",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
				&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
				&cli.StringFlag{Name: "email", Usage: "optional email address"},
			},
			Action: r.CreateAdmin,
		},
		{
			Name:      "promote",
			Usage:     "Grant the Admin role",
			ArgsUsage: "<username>",
			Action:    r.Promote,
		},
		{
			Name:      "demote",
			Usage:     "Revoke the Admin role",
			ArgsUsage: "<username>",
			Action:    r.Demote,
		},
		{
			Name:   "users",
			Usage:  "List user accounts",
			Action: r.Users,
		},
	}
}
