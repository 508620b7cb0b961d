package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginEmail, loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password and store the access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()

		pass := loginPassword
		if pass == "" {
			pass = os.Getenv("CONSENSUS_PASSWORD")
		}
		if pass == "" {
			p, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			pass = p
		}

		res, err := newWorkflow(cfg).Login(ctx, loginEmail, pass)
		if err != nil {
			return actionError("Login", err)
		}
		store, closeStore, err := openTokenStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		if err := store.Save(ctx, res.AccessToken); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		name := res.Username
		if name == "" {
			name = res.UserID
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", name)
		return nil
	},
}

// promptPassword reads the password without echo when stdin is a terminal.
func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password is required")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openTokenStore(GetConfig())
		if err != nil {
			return err
		}
		defer closeStore()
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the current credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := signalContext()
		defer cancel()
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return err
		}
		if creds.Empty() {
			return errors.New("not signed in; run login first")
		}
		u, err := newForumClient(cfg).CurrentUser(ctx, creds)
		if err != nil {
			return actionError("Who am I", err)
		}
		if u == nil {
			return errors.New("credentials do not resolve to a user; sign in again")
		}
		role := "member"
		if u.IsAdminModerator {
			role = "moderator"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) id=%s role=%s\n", u.Username, u.DisplayName, u.ID, role)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (or CONSENSUS_PASSWORD, or prompt)")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
