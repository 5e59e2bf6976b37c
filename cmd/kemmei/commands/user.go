// ABOUTME: User commands for creating, listing and selecting local profiles
// ABOUTME: Passwords are bcrypt-hashed before they reach the store
package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/thumbcoded/kemmei-app-sub000/internal/local"
	"github.com/thumbcoded/kemmei-app-sub000/internal/models"
)

// readPassword reads without echo; tests replace it
var readPassword = term.ReadPassword

var errWrongPassword = errors.New("wrong password")

// NewUserCmd creates the user command group
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local users",
	}

	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserUseCmd())
	cmd.AddCommand(newUserVerifyCmd())

	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		passwordStdin bool
		noPassword    bool
		makeCurrent   bool
	)

	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Create a local user",
		Long: `Create a local user. The password is prompted for without echo
unless --password-stdin or --no-password is given.`,
		Example: `  kemmei user add ana
  echo s3cret | kemmei user add ana --password-stdin --use`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return fmt.Errorf("username must not be empty")
			}

			var hash string
			if !noPassword {
				password, err := getPassword(cmd, passwordStdin)
				if err != nil {
					return err
				}
				hash, err = hashPassword(password)
				if err != nil {
					return err
				}
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			existing, err := a.api.GetUserByUsername(ctx, username)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("username %q is already taken by %s", username, existing.ID)
			}

			res, err := a.api.SaveUser(ctx, models.User{Username: username, PasswordHash: hash})
			if err != nil {
				return fmt.Errorf("saving user: %w", err)
			}
			if makeCurrent {
				if _, err := a.api.SetCurrentUserID(ctx, res.ID); err != nil {
					return fmt.Errorf("selecting user: %w", err)
				}
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", username, res.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&noPassword, "no-password", false, "Create the user without a password")
	cmd.Flags().BoolVar(&makeCurrent, "use", false, "Make the new user the current user")
	cmd.MarkFlagsMutuallyExclusive("password-stdin", "no-password")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			users, err := a.api.GetUsers(ctx)
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}
			current, err := a.api.GetCurrentUserID(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wantJSON() {
				return printJSON(out, users)
			}
			if len(users) == 0 {
				if !quiet {
					fmt.Fprintln(out, "No users found")
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, " \tUSERNAME\tID\n")
			for _, u := range users {
				marker := " "
				if current != nil && *current == u.ID {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", marker, u.Username, u.ID)
			}
			return w.Flush()
		},
	}
}

func newUserUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use USERNAME|ID",
		Short: "Select the current user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := findUser(cmd, a.api, args[0])
			if err != nil {
				return err
			}
			if _, err := a.api.SetCurrentUserID(cmd.Context(), u.ID); err != nil {
				return fmt.Errorf("selecting user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Current user: %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
}

func newUserVerifyCmd() *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "verify USERNAME|ID",
		Short: "Check a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := getPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := findUser(cmd, a.api, args[0])
			if err != nil {
				return err
			}
			hash, _, err := a.api.PasswordHash(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			if err := checkPassword(hash, password); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Password OK")
			return nil
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

// findUser resolves a username first, then an ID
func findUser(cmd *cobra.Command, api *local.API, ref string) (*models.User, error) {
	ctx := cmd.Context()
	u, err := api.GetUserByUsername(ctx, ref)
	if err != nil {
		return nil, err
	}
	if u == nil {
		u, err = api.GetUserByID(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if u == nil {
		return nil, fmt.Errorf("no user named or with id %q", ref)
	}
	return u, nil
}

// getPassword reads one line from stdin, or prompts without echo
func getPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", fmt.Errorf("password must not be empty")
		}
		return password, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(pw), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// checkPassword fails for users that have no stored hash
func checkPassword(hash, password string) error {
	if hash == "" {
		return errWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errWrongPassword
		}
		return fmt.Errorf("checking password: %w", err)
	}
	return nil
}
