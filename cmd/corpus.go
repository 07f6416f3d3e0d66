package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/prelims/internal/corpus"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the question corpus",
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects with their question counts, topics and years",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := commandCorpus(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUBJECT\tQUESTIONS\tTOPICS\tYEARS")
		for _, s := range c.Subjects() {
			years := c.Years([]string{s})
			span := "-"
			if len(years) > 0 {
				span = strconv.Itoa(years[len(years)-1]) + "–" + strconv.Itoa(years[0])
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s, c.Count(s), len(c.Topics([]string{s})), span)
		}
		return w.Flush()
	},
}

var corpusCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the corpus and report fields that fell back to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := commandCorpus(cmd)
		if err != nil {
			return err
		}

		issues := c.Report()
		fmt.Printf("format %s: %d questions in %d subjects, %d data quality issues\n",
			c.Format(), len(c.Questions()), len(c.Subjects()), len(issues))

		limit, _ := cmd.Flags().GetInt("limit")
		for i, issue := range issues {
			if limit > 0 && i == limit {
				fmt.Printf("... %d more\n", len(issues)-limit)
				break
			}
			fmt.Println("  " + issue.String())
		}
		return nil
	},
}

// commandCorpus loads the corpus without opening the profile store.
func commandCorpus(cmd *cobra.Command) (*corpus.Corpus, error) {
	// Store settings are irrelevant here, so their validation error is too.
	cfg, _ := resolveConfig(cmd)
	return loadCorpus(cfg.CorpusDir)
}

// loadCorpus loads dir, or the embedded corpus when dir is empty.
func loadCorpus(dir string) (*corpus.Corpus, error) {
	var (
		c   *corpus.Corpus
		err error
	)
	if dir != "" {
		c, err = corpus.LoadDir(dir)
	} else {
		c, err = corpus.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return c, nil
}

func init() {
	corpusCheckCmd.Flags().Int("limit", 50, "Show at most this many issues (0 for all)")
	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusCheckCmd)
}
