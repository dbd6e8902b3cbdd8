// Command rampart-cli is a terminal client for the Rampart API. It keeps a
// session in the OS keyring (or a file fallback), verifies it on startup,
// and drives login, signup, one-time codes, and profile updates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/models"
	"github.com/dmaguire/rampart/internal/session"
)

const keyringService = "rampart"

func main() {
	var (
		serverURL = flag.String("server", envOr("RAMPART_SERVER_URL", session.DefaultBaseURL), "API server base URL")
		useFile   = flag.Bool("file-store", false, "store the session in a file instead of the OS keyring")
		logLevel  = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger := common.NewLoggerFromConfig(common.LoggingConfig{Level: *logLevel, Format: "console"})

	store := newStore(*useFile, logger)
	client := session.NewClient(
		session.WithBaseURL(*serverURL),
		session.WithLogger(logger),
	)

	notify := &consoleNotifier{}
	nav := session.NavigatorFunc(func(route string) {
		fmt.Printf("→ %s\n", route)
	})
	ctrl := session.NewController(client, store, nav, notify, logger)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch args[0] {
	case "login":
		err = runLogin(ctx, ctrl, args[1:])
	case "signup":
		err = runSignup(ctx, ctrl, args[1:])
	case "logout":
		ctrl.Logout()
	case "status":
		err = runStatus(ctx, client, store, logger)
	case "profile":
		err = runProfile(ctx, ctrl, args[1:])
	case "callback":
		err = runCallback(ctrl, args[1:])
	case "resend":
		err = runResend(ctx, client, notify, logger, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rampart-cli [flags] <command>

commands:
  login <email> <password>       authenticate and store the session
  signup <name> <email> <password> [role]
  logout                         clear the stored session
  status                         verify the stored session
  profile [-name N] [-bio B] [-phone P] [-avatar URL] [-email E]
  callback <url>                 consume an OAuth callback URL
  resend <email> [purpose]       run the code-resend countdown`)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newStore picks the keyring store, falling back to a file under the user
// config dir when requested.
func newStore(useFile bool, logger *common.Logger) session.TokenStore {
	if !useFile {
		return session.NewKeyringStore(keyringService, logger)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return session.NewFileStore(filepath.Join(dir, "rampart", "session.json"), logger)
}

type consoleNotifier struct{}

func (consoleNotifier) Success(message string) { fmt.Println("✓", message) }
func (consoleNotifier) Error(message string)   { fmt.Fprintln(os.Stderr, "✗", message) }

func runLogin(ctx context.Context, ctrl *session.Controller, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}
	user, err := ctrl.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func runSignup(ctx context.Context, ctrl *session.Controller, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("usage: signup <name> <email> <password> [role]")
	}
	role := ""
	if len(args) == 4 {
		role = args[3]
	}
	user, err := ctrl.Signup(ctx, args[0], args[1], args[2], role)
	if err != nil {
		return err
	}
	fmt.Printf("account created for %s (%s); check your email for a verification code\n", user.Email, user.Role)
	return nil
}

func runStatus(ctx context.Context, client *session.Client, store session.TokenStore, logger *common.Logger) error {
	verifier := session.NewVerifier(client, store, logger)
	user, ok := verifier.Verify(ctx)
	if !ok {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("signed in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func runProfile(ctx context.Context, ctrl *session.Controller, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	bio := fs.String("bio", "", "profile bio")
	phone := fs.String("phone", "", "phone number")
	avatar := fs.String("avatar", "", "avatar URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	patch := &models.ProfilePatch{}
	setIf := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	setIf(&patch.Name, *name)
	setIf(&patch.Email, *email)
	setIf(&patch.Bio, *bio)
	setIf(&patch.Phone, *phone)
	setIf(&patch.AvatarURL, *avatar)

	user, err := ctrl.UpdateProfile(ctx, patch)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("nothing to update")
		return nil
	}
	fmt.Printf("profile saved: %s <%s>\n", user.Name, user.Email)
	return nil
}

func runCallback(ctrl *session.Controller, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: callback <url>")
	}
	user, err := ctrl.ConsumeOAuthCallback(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

// runResend drives the resend countdown: the timer counts down from the
// cooldown, and once it reaches zero a resend is requested and the timer
// restarts.
func runResend(ctx context.Context, client *session.Client, notify session.Notifier, logger *common.Logger, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: resend <email> [purpose]")
	}
	email := args[0]
	purpose := models.OTPPurposeSignup
	if len(args) == 2 {
		purpose = args[1]
	}

	flow := session.NewOTPFlow(session.DefaultOTPCooldown, func(ctx context.Context) error {
		return client.ResendCode(ctx, email, purpose)
	}, notify, logger)
	defer flow.Stop()

	go flow.Run(ctx)

	fmt.Println("press Enter to resend when available, Ctrl-C to quit")
	for {
		var discard string
		if _, err := fmt.Scanln(&discard); err != nil && err.Error() != "unexpected newline" {
			return nil
		}
		state, remaining := flow.State()
		if state == session.StateCounting {
			fmt.Printf("resend available in %ds\n", remaining)
			continue
		}
		if err := flow.Resend(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "resend unavailable: %v\n", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
