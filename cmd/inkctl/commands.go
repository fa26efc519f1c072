package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fd-kn/daily-prompts-sub000/internal/badge"
	"github.com/fd-kn/daily-prompts-sub000/internal/daily"
	"github.com/fd-kn/daily-prompts-sub000/internal/gate"
	"github.com/fd-kn/daily-prompts-sub000/internal/progression"
)

type rootOptions struct {
	asJSON bool
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	root := &cobra.Command{
		Use:   "inkctl",
		Short: "Inspect Inkwell prompts, tiers and badges",
		Long: `inkctl answers operator questions offline: which prompt a given day
serves, which tier a point total falls in, and which badges a set of
counters unlocks. It reads the same embedded pools as the server.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(newPromptCmd(opts), newTierCmd(opts), newTiersCmd(opts), newBadgesCmd(opts))
	return root
}

func newPromptCmd(opts *rootOptions) *cobra.Command {
	var (
		pool string
		date string
		tz   string
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show daily content",
	}
	cmd.PersistentFlags().StringVar(&pool, "pool", daily.PoolPrompts, "content pool name")

	today := &cobra.Command{
		Use:   "today",
		Short: "Show the item served on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("invalid --tz: %w", err)
			}
			ref := time.Now().In(loc)
			if date != "" {
				ref, err = time.ParseInLocation(gate.DayLayout, date, loc)
				if err != nil {
					return fmt.Errorf("%w: %q", gate.ErrInvalidDay, date)
				}
			}

			catalog, err := daily.Load()
			if err != nil {
				return err
			}
			item, err := catalog.Today(pool, ref)
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(opts.out, map[string]any{
					"date":        ref.Format(gate.DayLayout),
					"day_of_year": daily.DayOfYear(ref),
					"pool":        pool,
					"item":        item,
				})
			}
			tw := newTable(opts.out)
			fmt.Fprintf(tw, "date\t%s\n", ref.Format(gate.DayLayout))
			fmt.Fprintf(tw, "day of year\t%d\n", daily.DayOfYear(ref))
			fmt.Fprintf(tw, "pool\t%s\n", pool)
			fmt.Fprintf(tw, "id\t%s\n", item.ID)
			fmt.Fprintf(tw, "text\t%s\n", item.Text)
			fmt.Fprintf(tw, "points\t%d\n", item.Points)
			return tw.Flush()
		},
	}
	today.Flags().StringVar(&date, "date", "", "day to resolve (YYYY-MM-DD, default today)")
	today.Flags().StringVar(&tz, "tz", "UTC", "IANA time zone the day is interpreted in")

	list := &cobra.Command{
		Use:   "list",
		Short: "List a pool in rotation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := daily.Load()
			if err != nil {
				return err
			}
			p, err := catalog.Pool(pool)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(opts.out, p)
			}
			tw := newTable(opts.out)
			fmt.Fprintln(tw, "INDEX\tID\tDIFFICULTY\tPOINTS\tTEXT")
			for i, item := range p.Items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", i, item.ID, item.Difficulty, item.Points, item.Text)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(today, list)
	return cmd
}

func newTierCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tier <points>",
		Short: "Show the tier for a point total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("points must be an integer: %w", err)
			}
			p := progression.TierFor(points)
			if opts.asJSON {
				return writeJSON(opts.out, p)
			}
			tw := newTable(opts.out)
			fmt.Fprintf(tw, "level\t%d\n", p.Level)
			fmt.Fprintf(tw, "title\t%s\n", p.Title)
			fmt.Fprintf(tw, "points in tier\t%d\n", p.PointsInTier)
			fmt.Fprintf(tw, "to next tier\t%d\n", p.PointsToNextTier)
			fmt.Fprintf(tw, "progress\t%.1f%%\n", p.ProgressPercentage)
			return tw.Flush()
		},
	}
}

func newTiersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Print the tier table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tiers := progression.Tiers()
			if opts.asJSON {
				return writeJSON(opts.out, tiers)
			}
			tw := newTable(opts.out)
			fmt.Fprintln(tw, "LEVEL\tTITLE\tMIN\tMAX")
			for _, t := range tiers {
				upper := strconv.Itoa(t.MaxPoints)
				if t.Terminal() {
					upper = "-"
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", t.Level, t.Title, t.MinPoints, upper)
			}
			return tw.Flush()
		},
	}
}

func newBadgesCmd(opts *rootOptions) *cobra.Command {
	var c badge.Counters

	cmd := &cobra.Command{
		Use:   "badges",
		Short: "List badges, marking those the given counters unlock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			unlocked := make(map[string]bool)
			for _, def := range badge.Evaluate(c, nil) {
				unlocked[def.ID] = true
			}

			if opts.asJSON {
				type row struct {
					badge.Definition
					Unlocked bool `json:"unlocked"`
				}
				defs := badge.Definitions()
				rows := make([]row, len(defs))
				for i, def := range defs {
					rows[i] = row{Definition: def, Unlocked: unlocked[def.ID]}
				}
				return writeJSON(opts.out, rows)
			}

			tw := newTable(opts.out)
			fmt.Fprintln(tw, "ID\tCATEGORY\tMETRIC\tNEEDS\tUNLOCKED")
			for _, def := range badge.Definitions() {
				mark := ""
				if unlocked[def.ID] {
					mark = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", def.ID, def.Category, def.Metric, def.Requirement, mark)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&c.StoriesCompleted, "stories", 0, "stories completed")
	cmd.Flags().IntVar(&c.BonusChallengesCompleted, "bonus", 0, "bonus challenges completed")
	cmd.Flags().IntVar(&c.CompetitionsEntered, "entered", 0, "competitions entered")
	cmd.Flags().IntVar(&c.CompetitionsWon, "won", 0, "competitions won")
	cmd.Flags().IntVar(&c.TotalCoins, "coins", 0, "total coins")
	return cmd
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
