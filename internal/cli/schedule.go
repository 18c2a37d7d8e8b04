package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/eshaffer321/freelance-ledger/internal/application/service"
	"github.com/eshaffer321/freelance-ledger/internal/domain/calendar"
	"github.com/eshaffer321/freelance-ledger/internal/infrastructure/currency"
)

type forecastCmd struct {
	app      *App
	year     int
	currency string
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "print the monthly expense forecast for a year" }
func (*forecastCmd) Usage() string {
	return `forecast [-year <year>] [-currency <code>]:
  Print actual and projected spending per month. Without -currency every
  currency with rules or expenses gets its own table. With -currency the
  minimum funds still needed for the rest of the year follow the table.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Calendar year (default: current year)")
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency code")
}

func (c *forecastCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year < 0 || c.year > 9999 {
		return c.app.usage("year %d out of range", c.year)
	}
	env, status := c.app.open("forecast")
	if env == nil {
		return status
	}
	defer func() { _ = env.Close() }()

	year := c.year
	if year == 0 {
		year = env.Service.Today().Year()
	}

	code := strings.ToUpper(c.currency)
	forecasts, err := env.Service.Forecast(ctx, year, code)
	if err != nil {
		return c.app.fail("forecast failed: %v", err)
	}
	if len(forecasts) == 0 {
		fmt.Fprintf(c.app.Out, "Nothing scheduled in %d\n", year)
		return subcommands.ExitSuccess
	}

	for i, f := range forecasts {
		if i > 0 {
			fmt.Fprintln(c.app.Out)
		}
		PrintForecast(c.app.Out, f)
	}
	if code == "" {
		return subcommands.ExitSuccess
	}

	needed, err := env.Service.MinimumNeededFunds(ctx, year, code)
	if err != nil {
		return c.app.fail("minimum needed funds: %v", err)
	}
	fmt.Fprintf(c.app.Out, "Minimum needed funds: %s\n", currency.Format(needed, code))
	return subcommands.ExitSuccess
}

type occurrencesCmd struct {
	app  *App
	from string
	to   string
}

func (*occurrencesCmd) Name() string     { return "occurrences" }
func (*occurrencesCmd) Synopsis() string { return "list upcoming recurring expenses" }
func (*occurrencesCmd) Usage() string {
	return `occurrences [-from YYYY-MM-DD] [-to YYYY-MM-DD]:
  List every rule occurrence in the inclusive range. Defaults to the next
  30 days.
`
}

func (c *occurrencesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day (default: today)")
	f.StringVar(&c.to, "to", "", "Last day (default: from + 30 days)")
}

func (c *occurrencesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, err := parseOptionalDate("from", c.from)
	if err != nil {
		return c.app.usage("%v", err)
	}
	to, err := parseOptionalDate("to", c.to)
	if err != nil {
		return c.app.usage("%v", err)
	}

	env, status := c.app.open("occurrences")
	if env == nil {
		return status
	}
	defer func() { _ = env.Close() }()

	if from.IsZero() {
		from = env.Service.Today()
	}
	if to.IsZero() {
		to = from.AddDays(service.DefaultOccurrenceWindowDays)
	}

	occurrences, err := env.Service.Occurrences(ctx, from, to)
	if err != nil {
		return c.app.fail("%v", err)
	}
	PrintOccurrences(c.app.Out, occurrences)
	return subcommands.ExitSuccess
}

// parseOptionalDate returns the zero date for an empty flag.
func parseOptionalDate(name, value string) (calendar.Date, error) {
	if value == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.Parse(value)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid -%s %q: want YYYY-MM-DD", name, value)
	}
	return d, nil
}
