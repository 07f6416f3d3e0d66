package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/scoring"
	"github.com/abhisek/prelims/internal/session"
	"github.com/abhisek/prelims/internal/ui/layout"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take a timed test in plain text, without the full-screen UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.profiles.Load(ctx); err != nil {
			if errors.Is(err, profile.ErrAuthRequired) {
				return errors.New("not signed in; run `prelims login` first")
			}
			return err
		}

		c, err := env.loadCorpus()
		if err != nil {
			return err
		}

		subjects, _ := cmd.Flags().GetStringSlice("subject")
		topics, _ := cmd.Flags().GetStringSlice("topic")
		years, _ := cmd.Flags().GetIntSlice("year")
		limit, _ := cmd.Flags().GetInt("limit")

		sel, err := session.Build(c.Questions(), session.Config{
			Subjects:           subjects,
			Topics:             topics,
			Years:              years,
			SecondsPerQuestion: env.cfg.SecondsPerQuestion,
		})
		if err != nil {
			if errors.Is(err, session.ErrNoSubjects) {
				return fmt.Errorf("%w; choose from: %s", err, strings.Join(c.Subjects(), ", "))
			}
			return err
		}
		if limit > 0 && limit < len(sel.Questions) {
			sel = &session.Selection{
				Questions: sel.Questions[:limit],
				Budget:    time.Duration(limit*env.cfg.SecondsPerQuestion) * time.Second,
			}
		}

		sub, ok, err := playConsole(ctx, sel, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Test abandoned. Nothing was saved.")
			return nil
		}
		env.logger.Info("session completed", "session", sub.SessionID, "reason", string(sub.Reason))

		out, err := env.profiles.RecordSession(ctx, sub)
		var ce *profile.CommitError
		if errors.As(err, &ce) && ce.Retryable {
			fmt.Fprintln(os.Stderr, "warning: could not save, retrying:", err)
			time.Sleep(time.Second)
			err = env.profiles.Retry(ctx)
			if err == nil && out != nil {
				out.Committed = true
			}
		}
		if out != nil {
			printOutcome(os.Stdout, sub, out)
		}
		if err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		if p := env.profiles.Profile(); p != nil {
			fmt.Printf("Balance %d coins  ·  overall accuracy %d%%  ·  %s\n",
				p.Coins, p.Accuracy(), scoring.BandFor(p.Accuracy()).Message)
		}
		return nil
	},
}

func init() {
	playCmd.Flags().StringSlice("subject", nil, "Subject to include (repeatable)")
	playCmd.Flags().StringSlice("topic", nil, "Topic to include (repeatable, default all)")
	playCmd.Flags().IntSlice("year", nil, "Year to include (repeatable, default all)")
	playCmd.Flags().Int("limit", 0, "Take at most this many questions")
}

// playConsole runs sel as a plain-text session on in and out. The timer
// runs in its own goroutine; ok is false when the user quit.
func playConsole(ctx context.Context, sel *session.Selection, in io.Reader, out io.Writer) (session.Submission, bool, error) {
	submitted := make(chan session.Submission, 1)
	m := session.NewMachine(func(sub session.Submission) {
		submitted <- sub
	})
	if err := m.Start(sel); err != nil {
		return session.Submission{}, false, err
	}

	fmt.Fprintf(out, "%d questions, %s on the clock. Answer with a letter; "+
		"<enter> or > next, < back, - clear, submit, quit.\n", m.Len(), layout.Clock(m.Remaining()))

	timerCtx, cancel := context.WithCancel(ctx)
	timerDone := make(chan struct{})
	go func() {
		defer close(timerDone)
		_ = session.RunTimer(timerCtx, m, time.Second)
	}()

	consoleLoop(ctx, m, in, out)
	cancel()
	<-timerDone

	select {
	case sub := <-submitted:
		if sub.Reason == session.ReasonTimeout {
			fmt.Fprintln(out, "\nTime's up!")
		}
		return sub, true, nil
	default:
		return session.Submission{}, false, ctx.Err()
	}
}

func consoleLoop(ctx context.Context, m *session.Machine, in io.Reader, out io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-m.Done():
				return
			}
		}
	}()

	printQuestion(out, m)
	for {
		select {
		case <-ctx.Done():
			m.Abandon()
			return
		case <-m.Done():
			return
		case line, ok := <-lines:
			if !ok {
				m.Submit()
				return
			}
			if handleLine(m, strings.TrimSpace(line), out) {
				printQuestion(out, m)
			}
		}
	}
}

// handleLine applies one line of input. It returns true when the current
// question should be shown again.
func handleLine(m *session.Machine, line string, out io.Writer) bool {
	idx := m.CurrentIndex()
	switch strings.ToLower(line) {
	case "", ">":
		return advance(m, out)
	case "<":
		m.Navigate(-1)
		return true
	case "-":
		_ = m.ClearAnswer(idx)
		fmt.Fprintln(out, "cleared")
		return false
	case "submit":
		m.Submit()
		return false
	case "quit":
		m.Abandon()
		return false
	}

	opt, ok := corpus.OptionIndex(line)
	if !ok || len(line) != 1 {
		fmt.Fprintf(out, "unknown input %q\n", line)
		return false
	}
	if err := m.SelectOption(idx, opt); err != nil {
		fmt.Fprintf(out, "%s is not an option here\n", strings.ToUpper(line))
		return false
	}
	return advance(m, out)
}

func advance(m *session.Machine, out io.Writer) bool {
	if m.CurrentIndex() == m.Len()-1 {
		fmt.Fprintf(out, "Last question. %d of %d answered; type submit to finish.\n", m.Attempted(), m.Len())
		return false
	}
	m.Navigate(1)
	return true
}

func printQuestion(out io.Writer, m *session.Machine) {
	q, ok := m.Current()
	if !ok {
		return
	}
	fmt.Fprintf(out, "\n[%d/%d] %s › %s · %d   (%s left)\n",
		m.CurrentIndex()+1, m.Len(), q.Subject, q.Topic, q.Year, layout.Clock(m.Remaining()))
	if q.HasPassage() {
		fmt.Fprintf(out, "\n%s\n", q.Passage)
	}
	fmt.Fprintf(out, "\n%s\n", q.Prompt)
	chosen, answered := m.Answer(m.CurrentIndex())
	for i, opt := range q.Options {
		letter, _ := corpus.OptionLetter(i)
		mark := " "
		if answered && chosen == i {
			mark = "*"
		}
		fmt.Fprintf(out, " %s %s) %s\n", mark, letter, opt)
	}
	if len(q.Options) == 0 && answered {
		letter, _ := corpus.OptionLetter(chosen)
		fmt.Fprintf(out, " your answer: %s\n", letter)
	}
	fmt.Fprint(out, "> ")
}

func printOutcome(out io.Writer, sub session.Submission, o *profile.Outcome) {
	s := o.Summary
	fmt.Fprintf(out, "\nScore %d  ·  %d of %d correct", s.Score, s.Correct, s.Total)
	if s.Unanswered > 0 {
		fmt.Fprintf(out, "  ·  %d unanswered", s.Unanswered)
	}
	fmt.Fprintf(out, "  ·  %s\n", sub.Elapsed.Round(time.Second))
	for _, sb := range s.Subjects {
		fmt.Fprintf(out, "  %-16s %d/%d  %d%%\n", sb.Name, sb.Correct, sb.Attempted, sb.Accuracy())
	}
	if o.Committed {
		fmt.Fprintf(out, "+%d coins\n", o.CoinsEarned)
	}
}
