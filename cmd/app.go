package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/prelims/internal/app"
	"github.com/abhisek/prelims/internal/screens/home"
)

// runApp opens the environment, loads the corpus and launches the TUI.
func runApp(cmd *cobra.Command) error {
	env, err := openEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	c, err := env.loadCorpus()
	if err != nil {
		return err
	}

	skip, _ := cmd.Flags().GetBool("skip-welcome")
	return app.Run(cmd.Context(), app.Options{
		Deps: home.Deps{
			Corpus:             c,
			Profiles:           env.profiles,
			Identity:           env.identity,
			Auth:               env.identity,
			SecondsPerQuestion: env.cfg.SecondsPerQuestion,
			Logger:             env.logger,
		},
		SkipWelcome: skip,
	})
}
