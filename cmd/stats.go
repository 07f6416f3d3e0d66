package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/scoring"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your accuracy by subject and topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.profiles.Load(cmd.Context())
		if errors.Is(err, profile.ErrAuthRequired) {
			return errors.New("not signed in; run `prelims login` first")
		}
		if err != nil {
			return err
		}

		acc := p.Accuracy()
		fmt.Printf("%s  ·  %d coins  ·  %d tests  ·  overall %d%%\n", p.DisplayName, p.Coins, len(p.TestHistory), acc)
		fmt.Println(scoring.BandFor(acc).Message)
		if len(p.Stats) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUBJECT\tTOPIC\tCORRECT\tATTEMPTS\tACCURACY")
		for _, name := range p.Stats.SubjectNames() {
			s := p.Stats[name]
			fmt.Fprintf(w, "%s\t\t%d\t%d\t%d%%\n", name, s.Correct, s.Attempts, s.Accuracy)
			for _, topic := range s.TopicNames() {
				t := s.Topics[topic]
				fmt.Fprintf(w, "\t%s\t%d\t%d\t%d%%\n", topic, t.Correct, t.Attempts, t.Accuracy)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if n := len(p.TestHistory); n > 0 {
			last := p.TestHistory[n-1]
			fmt.Printf("\nLast test %s: %d points, %d questions, %d%%\n",
				last.Date.Local().Format("Jan 02, 2006 15:04"), last.Score, last.TotalQuestions, last.Accuracy())
		}
		return nil
	},
}
