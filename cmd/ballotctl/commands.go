package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/ballot/internal/bootstrap"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

var errInconsistent = errors.New("store is inconsistent")

type cli struct {
	envFile    string
	backend    string
	sqlitePath string
	logLevel   string

	app *bootstrap.App
}

func rootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ballotctl",
		Short:         "Inspect and use a ballot store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Optional .env file")
	cmd.PersistentFlags().StringVar(&c.backend, "store", "", "Store backend override (memory, sqlite, redis, postgres)")
	cmd.PersistentFlags().StringVar(&c.sqlitePath, "sqlite-path", "", "SQLite database file override")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.voteCmd(),
		c.tallyCmd(),
		c.resultsCmd(),
		c.auditCmd(),
	)
	return cmd
}

func (c *cli) open(ctx context.Context) error {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
	}
	if c.sqlitePath != "" {
		cfg.Store.SQLitePath = c.sqlitePath
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	slog.SetDefault(config.NewLogger(cfg.LogLevel))

	c.app, err = bootstrap.New(ctx, cfg, nil)
	return err
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

func (c *cli) device() *services.DeviceSession {
	return services.NewDeviceSession(c.app.Store, c.app.Repos.Sessions)
}

func (c *cli) registerCmd() *cobra.Command {
	var profile domain.VoterProfile

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a voter and start a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			voter, err := c.device().Register(cmd.Context(), profile)
			if err != nil {
				return err
			}
			printVoter(cmd.OutOrStdout(), voter)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&profile.ExternalIDNumber, "id-number", "", "12-digit national id number")
	cmd.Flags().StringVar(&profile.PhoneNumber, "phone", "", "Phone number")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login <id-number>",
		Short: "Authenticate with a one-time code and start a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voter, err := c.device().Login(cmd.Context(), args[0], code)
			if errors.Is(err, domain.ErrInvalidCode) {
				return fmt.Errorf("invalid one-time code, please try again")
			}
			if err != nil {
				return err
			}
			printVoter(cmd.OutOrStdout(), voter)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "One-time code")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.device().Logout(cmd.Context())
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session voter",
		RunE: func(cmd *cobra.Command, args []string) error {
			voter, err := c.device().Current(cmd.Context())
			if err != nil {
				return sessionError(err)
			}
			printVoter(cmd.OutOrStdout(), voter)
			return nil
		},
	}
}

func (c *cli) voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <candidate-id>",
		Short: "Cast the session voter's ballot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ballot, err := c.device().Cast(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrAlreadyVoted) {
				fmt.Fprintln(cmd.OutOrStdout(), "You have already voted.")
				return c.printResults(cmd)
			}
			if err != nil {
				return sessionError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ballot %s recorded for candidate %s.\n", ballot.ID, ballot.CandidateID)
			return nil
		},
	}
}

func (c *cli) tallyCmd() *cobra.Command {
	var byVotes bool

	cmd := &cobra.Command{
		Use:   "tally",
		Short: "List candidates with their vote counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			tally, err := c.app.Store.GetTally(cmd.Context())
			if err != nil {
				return err
			}
			if byVotes {
				sort.SliceStable(tally, func(i, j int) bool { return tally[i].VoteCount > tally[j].VoteCount })
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCANDIDATE\tAFFILIATION\tVOTES")
			for _, cand := range tally {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", cand.ID, cand.DisplayName, cand.Affiliation, cand.VoteCount)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&byVotes, "by-votes", false, "Sort by vote count, highest first")
	return cmd
}

func (c *cli) resultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Show the results summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printResults(cmd)
		},
	}
}

func (c *cli) printResults(cmd *cobra.Command) error {
	summary, err := c.app.Store.GetResultsSummary(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total ballots: %d\n", summary.TotalBallots)
	if summary.TotalBallots == 0 {
		fmt.Fprintln(out, "No ballots cast yet.")
		return nil
	}
	fmt.Fprintf(out, "Leading: %s (%s) with %d votes, %.1f%%\n",
		summary.LeadingCandidate.DisplayName,
		summary.LeadingCandidate.Affiliation,
		summary.LeadingVoteCount,
		summary.LeadingPercentage)
	return nil
}

func (c *cli) auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Recompute tallies from the ballot log and report inconsistencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Audit.Audit(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "voters=%d candidates=%d ballots=%d\n", report.Voters, report.Candidates, report.Ballots)
			if report.Consistent() {
				fmt.Fprintln(out, "consistent")
				return nil
			}
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s\t%s\t%s\n", issue.Kind, issue.Subject, issue.Detail)
			}
			return fmt.Errorf("%w: %d issue(s)", errInconsistent, len(report.Issues))
		},
	}
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return errors.New("not logged in")
	case errors.Is(err, domain.ErrUnknownVoter), errors.Is(err, domain.ErrUnknownCandidate):
		return fmt.Errorf("%w, please log in again", err)
	}
	return err
}

func printVoter(out io.Writer, voter *domain.Voter) {
	status := "not voted"
	if voter.HasVoted {
		status = "voted"
	}
	fmt.Fprintf(out, "%s (%s) id=%s %s\n", voter.DisplayName, voter.ExternalIDNumber, voter.ID, status)
}
