package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prelims/internal/identity"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")

		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		u, err := env.identity.SignIn(cmd.Context(), email, name)
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fmt.Errorf("%q is not a valid email address", email)
		}
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}

		p, err := env.profiles.Load(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s (%s). Balance: %d coins.\n", p.DisplayName, u.Email, p.Coins)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if !env.signedIn() {
			fmt.Println("Not signed in.")
			return nil
		}
		if err := env.identity.SignOut(cmd.Context()); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Println("Signed out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Email address")
	loginCmd.Flags().String("name", "", "Display name (defaults to "+identity.DefaultDisplayName+")")
	_ = loginCmd.MarkFlagRequired("email")
}
