package main

import (
	"time"

	"github.com/md-rashed-zaman/openhours/libs/hours"
	"github.com/spf13/cobra"
)

var (
	evalTimezone string
	evalAt       string
)

var evalCmd = &cobra.Command{
	Use:   "eval <spec>",
	Short: "Parse a spec locally and print its periods, triggers and state",
	Example: `  hours-eval eval "wday{Mon-Fri} hr{9-18}"
  hours-eval eval "hr{21-3}" --tz Europe/Berlin --at 2014-04-22T23:30:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at := time.Now()
		if evalAt != "" {
			t, err := time.Parse(time.RFC3339, evalAt)
			if err != nil {
				return err
			}
			at = t
		}
		loc, err := time.LoadLocation(evalTimezone)
		if err != nil {
			return err
		}
		rep, err := evaluate(args[0], loc, at)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rep)
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalTimezone, "tz", "UTC", "IANA time zone the spec is read in")
	evalCmd.Flags().StringVar(&evalAt, "at", "", "RFC 3339 instant to evaluate (default now)")
	rootCmd.AddCommand(evalCmd)
}

type report struct {
	Spec            string     `json:"spec"`
	Periods         []string   `json:"periods"`
	OpeningTriggers []string   `json:"opening_triggers"`
	ClosingTriggers []string   `json:"closing_triggers"`
	At              time.Time  `json:"at"`
	Open            bool       `json:"open"`
	AlwaysOpen      bool       `json:"always_open"`
	NextOpening     *time.Time `json:"next_opening,omitempty"`
	NextClosing     *time.Time `json:"next_closing,omitempty"`
}

func evaluate(spec string, loc *time.Location, at time.Time) (report, error) {
	bh, err := hours.New(spec)
	if err != nil {
		return report{}, err
	}
	local := at.In(loc)
	rep := report{
		Spec:            spec,
		OpeningTriggers: bh.OpeningTriggers(),
		ClosingTriggers: bh.ClosingTriggers(),
		At:              local,
		Open:            bh.IsOpen(local),
		AlwaysOpen:      bh.AlwaysOpen(),
	}
	for _, p := range bh.Periods() {
		rep.Periods = append(rep.Periods, p.String())
	}
	if t, ok := bh.NextOpening(local); ok {
		rep.NextOpening = &t
	}
	if t, ok := bh.NextClosing(local); ok {
		rep.NextClosing = &t
	}
	return rep, nil
}
