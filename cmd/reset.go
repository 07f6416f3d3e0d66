package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prelims/internal/profile"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset your profile: stats, history and coins",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("this erases your stats and test history; run again with --yes to confirm")
		}

		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.profiles.Reset(cmd.Context())
		if errors.Is(err, profile.ErrAuthRequired) {
			return errors.New("not signed in; run `prelims login` first")
		}
		if err != nil {
			return err
		}
		fmt.Printf("Profile reset. Balance: %d coins.\n", p.Coins)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
