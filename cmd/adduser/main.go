package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"expensetracker/auth"
	"expensetracker/config"
	"expensetracker/models"
	"expensetracker/repository"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	roleFlag := fs.String("role", "admin", "Role: admin or employee")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	fs.StringVar(&cfg.DBType, "db-type", cfg.DBType, "Storage backend: sqlite, postgres or mongo")
	fs.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "Path to SQLite database file")
	dbURL := fs.String("db-url", "", "Postgres or Mongo connection URL")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-role admin|employee] [-password <password>] [-db-type <type>] [-db <path>] [-db-url <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	role, err := models.ParseRole(*roleFlag)
	if err != nil {
		return err
	}

	cfg.DBType = strings.ToLower(strings.TrimSpace(cfg.DBType))
	if *dbURL != "" {
		switch cfg.DBType {
		case "postgres":
			cfg.PostgresURL = *dbURL
		case "mongo":
			cfg.MongoURL = *dbURL
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close(ctx)

	// Check if user already exists
	existing, err := store.Users.GetUserByEmail(ctx, strings.TrimSpace(*email))
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("user %s already exists", existing.Email)
	}

	hash, err := auth.NewPasswordHasher(cfg.BcryptCost).Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.AppUser{
		Email:        strings.TrimSpace(*email),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with role %s and ID %s\n", user.Email, user.Role, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
