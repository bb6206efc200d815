package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/smegcoffee/request-form-sub001/cmd/reqform/ui"
	"github.com/smegcoffee/request-form-sub001/internal/config"
	"github.com/smegcoffee/request-form-sub001/internal/gateway"
	"github.com/smegcoffee/request-form-sub001/internal/logging"
	"github.com/smegcoffee/request-form-sub001/internal/portal"
	"github.com/smegcoffee/request-form-sub001/internal/session"
)

// Version is set by the release build.
var Version = "dev"

var (
	cfgPath    string
	outputMode string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reqform",
	Short: "reqform - terminal client for the request portal",
	Long: `reqform is a terminal client for the internal request portal.

It covers the daily portal work without a browser: submitting stock
requisitions, purchase orders, and cash disbursements; approving or
rejecting pending requests; managing branches and positions; and running
the branch-assignment wizards for AVP staff and branch heads.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgPath != "" {
			cfg, err = config.Load(cfgPath)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			return err
		}

		logDir, err := cfg.LogDir()
		if err != nil {
			return err
		}
		logger, err = logging.New(logDir, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp()
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in to the portal and save the session",
	Long: `Exchanges credentials for a bearer token and stores the session
under the config directory. The password is read from the terminal
without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and discard the saved session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity and session expiry",
	RunE:  runWhoami,
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Work with requests from the command line",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your submitted requests",
	RunE:  runRequestsList,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the reqform version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("reqform " + Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.reqform/config.yaml)")
	requestsListCmd.Flags().StringVarP(&outputMode, "output", "o", "table", "output format: table, json, or yaml")

	requestsCmd.AddCommand(requestsListCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, requestsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func configDir() (string, error) {
	return config.Dir()
}

func httpClientWithTimeout(d time.Duration) *http.Client {
	return &http.Client{Timeout: d}
}

// newClient builds a gateway client from the saved session. Callers that
// allow anonymous access pass requireSession=false.
func newClient(requireSession bool) (*gateway.Client, *session.Session, error) {
	dir, err := configDir()
	if err != nil {
		return nil, nil, err
	}

	sess, err := session.Load(dir)
	if err != nil {
		if requireSession {
			return nil, nil, fmt.Errorf("not logged in, run: reqform login")
		}
		sess = &session.Session{}
	}

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, nil, err
	}

	client := gateway.New(cfg.API.BaseURL, sess.Token,
		gateway.WithLogger(logger),
		gateway.WithRetries(cfg.API.Retries),
		gateway.WithHTTPClient(httpClientWithTimeout(timeout)),
	)
	return client, sess, nil
}

func runApp() error {
	client, sess, err := newClient(true)
	if err != nil {
		return err
	}
	if sess.Expired() {
		return fmt.Errorf("session expired, run: reqform login")
	}

	styles := ui.NewStyles(ui.ThemeByName(cfg.UI.Theme))
	app := newApp(client, sess, styles, logger)

	program := tea.NewProgram(app, tea.WithAltScreen())
	app.setSender(program.Send)

	logger.Info("starting interactive session", zap.String("user", sess.Name))
	_, err = program.Run()
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	email := ""
	if len(args) == 1 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		email = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return err
	}

	client, _, err := newClient(false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	result, err := client.Login(ctx, gateway.Credentials{
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return fmt.Errorf("login failed: %s", gateway.UserMessage(err))
	}

	dir, err := configDir()
	if err != nil {
		return err
	}
	sess := &session.Session{
		Token:   result.Token,
		UserID:  result.User.ID,
		Name:    strings.TrimSpace(result.User.FirstName + " " + result.User.LastName),
		Email:   result.User.Email,
		Role:    result.User.Role,
		SavedAt: time.Now(),
	}
	if err := session.Save(sess, dir); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", sess.Name, sess.Role)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, sess, err := newClient(true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	if err := client.Logout(ctx); err != nil {
		// Server-side invalidation failing should not trap the operator in
		// a session; the local token is discarded either way.
		logger.Warn("server-side logout failed", zap.Error(err))
	}

	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := session.Clear(dir); err != nil {
		return err
	}

	fmt.Printf("Logged out %s\n", sess.Name)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	_, sess, err := newClient(true)
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s>\n", sess.Name, sess.Email)
	if sess.Role != "" {
		fmt.Printf("Role: %s\n", sess.Role)
	}
	if exp, ok := sess.ExpiresAt(); ok {
		if sess.Expired() {
			fmt.Printf("Session expired at %s\n", exp.Format(time.RFC1123))
		} else {
			fmt.Printf("Session expires at %s\n", exp.Format(time.RFC1123))
		}
	}
	return nil
}

func runRequestsList(cmd *cobra.Command, args []string) error {
	client, sess, err := newClient(true)
	if err != nil {
		return err
	}
	if sess.Expired() {
		return fmt.Errorf("session expired, run: reqform login")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	items, err := client.MyRequests(ctx)
	if err != nil {
		return fmt.Errorf("%s", gateway.UserMessage(err))
	}

	switch outputMode {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(items)
	case "table":
		printRequestTable(items)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", outputMode)
	}
}

func printRequestTable(items []portal.Request) {
	if len(items) == 0 {
		fmt.Println("No requests.")
		return
	}
	table := ui.NewSimpleTable("", []string{"Ref", "Form", "Branch", "Status", "Amount"})
	for _, r := range items {
		table.AddRow(r.Reference, r.Kind.Title(), r.BranchCode, string(r.Status),
			fmt.Sprintf("%.2f", r.TotalAmount))
	}
	fmt.Print(table.View(ui.DefaultStyles()))
}
