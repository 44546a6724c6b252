// Command pokerctl is the operator tool for a pokerlog installation.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
	"gorm.io/gorm"

	"pokerlog/internal"
	"pokerlog/internal/config"
	"pokerlog/internal/jobs"
	"pokerlog/internal/seeder"
	"pokerlog/internal/sessions"
	"pokerlog/internal/timeframe"
	"pokerlog/internal/users"
)

const defaultShutdownTimeout = 30 * time.Second

// Command is one pokerctl subcommand.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

var commands = []Command{
	&CreateUserCommand{},
	&ChangePasswordCommand{},
	&DeleteUserCommand{},
	&MigrateCommand{},
	&SeedCommand{},
	&ExportCommand{},
	&ImportCommand{},
	&ReportCommand{},
	&MaintenanceCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, stopping...", sig)
		cancel()
	}()

	cmdName, args := parseArgs(os.Args[1:])
	cmd := findCommand(cmdName)
	if cmd == nil {
		printUsage()
		os.Exit(1)
	}

	if _, ok := cmd.(*HelpCommand); ok {
		_ = cmd.Execute(ctx, nil, args)
		return
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: cleanup error: %v", err)
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Printf("Command %s failed: %v", cmd.Name(), err)
		os.Exit(1)
	}
}

// CreateUserCommand registers a player account.
type CreateUserCommand struct{}

func (c *CreateUserCommand) Name() string        { return "create-user" }
func (c *CreateUserCommand) Description() string { return "Creates a user account" }

func (c *CreateUserCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		return fmt.Errorf("usage: %s -email <email> -name <name> [-password <password>]", c.Name())
	}

	if *password == "" {
		pw, err := promptNewPassword()
		if err != nil {
			return err
		}
		*password = pw
	}

	user, err := users.Register(app.DBManager.GetConnection(), *email, *password, *name)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Printf("Created user %s (id %d)\n", user.Email, user.ID)
	return nil
}

// ChangePasswordCommand replaces a user's password.
type ChangePasswordCommand struct{}

func (c *ChangePasswordCommand) Name() string        { return "change-password" }
func (c *ChangePasswordCommand) Description() string { return "Changes the password of an existing user" }

func (c *ChangePasswordCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("usage: %s -email <email>", c.Name())
	}

	db := app.DBManager.GetConnection()
	if _, err := users.FindByEmail(db, *email); err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	if err := users.ChangePassword(db, *email, password); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Println("Password updated successfully")
	return nil
}

// DeleteUserCommand removes a user with all of their sessions.
type DeleteUserCommand struct{}

func (c *DeleteUserCommand) Name() string        { return "delete-user" }
func (c *DeleteUserCommand) Description() string { return "Deletes a user and their sessions" }

func (c *DeleteUserCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("usage: %s -email <email>", c.Name())
	}

	db := app.DBManager.GetConnection()
	user, err := users.FindByEmail(db, *email)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}
	if err := users.Delete(db, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("Deleted user %s\n", user.Email)
	return nil
}

// MigrateCommand runs database migrations.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand fills a demo account with random sessions.
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds a demo user with random sessions" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	email := fs.String("email", seeder.DefaultEmail, "account to seed")
	count := fs.Int("count", config.GetConfig().SeedSessionCount, "number of sessions to generate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := seeder.NewSeeder(app.DBManager, slog.Default(), *count).
		Run(ctx, *email, seeder.DefaultName, seeder.DefaultPassword)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d sessions for %s\n", *count, user.Email)
	return nil
}

// ExportCommand writes a user's sessions as YAML.
type ExportCommand struct{}

func (c *ExportCommand) Name() string        { return "export" }
func (c *ExportCommand) Description() string { return "Exports a user's sessions as YAML" }

func (c *ExportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	email := fs.String("email", "", "account to export")
	out := fs.String("out", "", "output file (stdout when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db := app.DBManager.GetConnection()
	user, err := lookupUser(db, *email, c.Name())
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	n, err := exportSessions(db, user, w, time.Now())
	if err != nil {
		return err
	}
	if *out != "" {
		fmt.Printf("Exported %d sessions to %s\n", n, *out)
	}
	return nil
}

// ImportCommand loads sessions from a YAML export.
type ImportCommand struct{}

func (c *ImportCommand) Name() string        { return "import" }
func (c *ImportCommand) Description() string { return "Imports sessions from a YAML export" }

func (c *ImportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	email := fs.String("email", "", "account receiving the sessions")
	in := fs.String("in", "", "YAML file to read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("usage: %s -email <email> -in <file>", c.Name())
	}

	db := app.DBManager.GetConnection()
	user, err := lookupUser(db, *email, c.Name())
	if err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *in, err)
	}
	defer f.Close()

	n, err := importSessions(ctx, db, user.ID, f, config.GetConfig().GetDefaultLocation())
	fmt.Printf("Imported %d sessions for %s\n", n, user.Email)
	return err
}

// ReportCommand prints the dashboard figures for a user.
type ReportCommand struct{}

func (c *ReportCommand) Name() string        { return "report" }
func (c *ReportCommand) Description() string { return "Prints a results report for a user" }

func (c *ReportCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	email := fs.String("email", "", "account to report on")
	periodFlag := fs.String("period", string(timeframe.DefaultPeriod), "chart period (1W, 1M, 3M, 1Y, ALL)")
	tz := fs.String("tz", "", "IANA timezone (configured default when empty)")
	by := fs.String("by", defaultReportDimensions, "rollup dimensions: gameType, location, blinds, locationType")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dims, err := parseDimensions(*by)
	if err != nil {
		return err
	}

	period, err := timeframe.ParsePeriod(*periodFlag)
	if err != nil {
		return err
	}
	loc, err := timeframe.LoadLocation(*tz, config.GetConfig().GetDefaultLocation())
	if err != nil {
		return err
	}

	db := app.DBManager.GetConnection()
	user, err := lookupUser(db, *email, c.Name())
	if err != nil {
		return err
	}
	rows, err := sessions.List(db, user.ID)
	if err != nil {
		return err
	}

	return writeReport(os.Stdout, sessions.Records(rows), period, time.Now().In(loc), dims)
}

// MaintenanceCommand runs the background maintenance jobs once.
type MaintenanceCommand struct{}

func (c *MaintenanceCommand) Name() string        { return "maintenance" }
func (c *MaintenanceCommand) Description() string { return "Runs the maintenance jobs once" }

func (c *MaintenanceCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running maintenance jobs...")
	jobs.NewJobs(app.DBManager, slog.Default()).RunOnce(ctx)
	log.Println("Maintenance completed")
	return nil
}

// StatusCommand prints installation details.
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	cfg := config.GetConfig()
	db := app.DBManager.GetConnection()

	userCount, err := users.Count(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	sessionCount, err := sessions.Count(db, 0)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	fmt.Println("System Status:")
	fmt.Printf("- Environment: %s\n", cfg.Environment)
	fmt.Printf("- Database: %s\n", cfg.GetDatabasePath())
	fmt.Printf("- Users: %d\n", userCount)
	fmt.Printf("- Sessions: %d\n", sessionCount)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	stats := sqlDB.Stats()
	fmt.Printf("- Open connections: %d (in use %d, idle %d)\n", stats.OpenConnections, stats.InUse, stats.Idle)
	return nil
}

// HelpCommand lists the available commands.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

func parseArgs(args []string) (string, []string) {
	if len(args) == 0 {
		return "help", nil
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: pokerctl <command> [flags]")
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-16s %s\n", cmd.Name(), cmd.Description())
	}
}

func lookupUser(db *gorm.DB, email, command string) (*users.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%s: -email is required", command)
	}
	user, err := users.FindByEmail(db, email)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	return user, nil
}

// promptNewPassword asks for a password twice. Input is hidden when stdin is
// a terminal.
func promptNewPassword() (string, error) {
	first, err := readSecret("Enter new password: ")
	if err != nil {
		return "", err
	}
	second, err := readSecret("Confirm new password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	if first == "" {
		return "", errors.New("password cannot be empty")
	}
	return first, nil
}

var stdinReader = bufio.NewReader(os.Stdin)

func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
