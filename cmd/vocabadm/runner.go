package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"vocab-manager/internal/auth"
	"vocab-manager/internal/config"
	"vocab-manager/internal/domain"
	"vocab-manager/internal/repository/sqlite"
	"vocab-manager/internal/service"
)

// Runner holds the dependencies shared by vocabadm commands.
type Runner struct {
	cfg    config.Config
	logger *logrus.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config config.Config
	Logger *logrus.Logger
	Output io.Writer
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		cfg:    opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// openDB opens the configured database with the schema up to date.
func (r *Runner) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sqlite.Open(r.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.Migrate(ctx, db, r.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func (r *Runner) userService(db *sql.DB) service.UserService {
	return service.NewUserService(sqlite.NewUserRepository(db), auth.NewPasswordHasher(r.cfg.Auth.BcryptCost))
}

func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.WithField("path", r.cfg.Database.Path).Info("database is up to date")
	return nil
}

func (r *Runner) CreateAdmin(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	user, created, err := r.userService(db).EnsureAdmin(ctx, cmd.String("username"), cmd.String("password"), cmd.String("email"))
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(r.output, "created admin %s (id %d)\n", user.Username, user.ID)
	} else {
		fmt.Fprintf(r.output, "%s is now an active admin (id %d)\n", user.Username, user.ID)
	}
	return nil
}

func (r *Runner) Promote(ctx context.Context, cmd *cli.Command) error {
	return r.setRole(ctx, cmd, domain.RoleAdmin)
}

func (r *Runner) Demote(ctx context.Context, cmd *cli.Command) error {
	return r.setRole(ctx, cmd, domain.RoleUser)
}

func (r *Runner) setRole(ctx context.Context, cmd *cli.Command, role domain.Role) error {
	username := strings.TrimSpace(cmd.Args().First())
	if username == "" {
		return fmt.Errorf("%w: username argument is required", domain.ErrInvalidInput)
	}

	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := r.userService(db).SetRole(ctx, username, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.output, "%s is now %s\n", user.Username, user.Role)
	return nil
}

func (r *Runner) Users(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := r.userService(db).List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.Role, u.IsActive)
	}
	return w.Flush()
}
