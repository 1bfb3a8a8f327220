// Command createsuperuser creates a staff user who can reach the admin pages.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/smartnotes/smartnotes/internal/cache"
	"github.com/smartnotes/smartnotes/internal/form"
	"github.com/smartnotes/smartnotes/internal/model"
	"github.com/smartnotes/smartnotes/internal/repository"
	"github.com/smartnotes/smartnotes/internal/service"
)

type output struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsStaff  bool   `json:"is_staff"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		username    = flag.String("username", "", "Username of the staff user")
		password    = flag.String("password", os.Getenv("SUPERUSER_PASSWORD"), "Password; read from stdin when empty")
		migrate     = flag.Bool("migrate", false, "Apply pending migrations first")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(os.Stderr, "-username is required")
		os.Exit(1)
	}
	if *password == "" {
		p, err := readPassword(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read password:", err)
			os.Exit(1)
		}
		*password = p
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *migrate {
		if err := repository.Migrate(ctx, *databaseURL, logger); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	repo, err := repository.New(ctx, *databaseURL, repository.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	// Sessions are never touched here.
	users := service.NewUserService(repo, noSessions{}, logger, nil, service.UserServiceConfig{})

	user, err := users.CreateStaffUser(ctx, *username, *password)
	if err != nil {
		if verr, ok := form.AsValidationError(err); ok {
			for field, msgs := range verr.Errors {
				for _, m := range msgs {
					fmt.Fprintf(os.Stderr, "%s: %s\n", field, m)
				}
			}
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "create user:", err)
		os.Exit(1)
	}

	out := output{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff}
	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Superuser %q created (id %s).\n", out.Username, out.UserID)
	}
}

func readPassword(r io.Reader) (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

// noSessions satisfies service.SessionStore for a process that never logs in.
type noSessions struct{}

func (noSessions) CreateSession(context.Context, *model.Session) error { return errNoSessions }
func (noSessions) GetSession(context.Context, string) (*model.Session, error) {
	return nil, cache.ErrSessionNotFound
}
func (noSessions) DeleteSession(context.Context, string) error      { return nil }
func (noSessions) DeleteUserSessions(context.Context, string) error { return nil }

var errNoSessions = errors.New("sessions are not available in createsuperuser")
