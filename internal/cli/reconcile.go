package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/eshaffer321/freelance-ledger/internal/application/service"
)

type suggestCmd struct {
	app         *App
	receipt     string
	transaction string
}

func (*suggestCmd) Name() string     { return "suggest" }
func (*suggestCmd) Synopsis() string { return "rank match candidates for a receipt or transaction" }
func (*suggestCmd) Usage() string {
	return `suggest -receipt <id> | -transaction <id>:
  Score a receipt against ledger expenses, or an incoming transaction
  against projected retainer income.
`
}

func (c *suggestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.receipt, "receipt", "", "Receipt ID")
	f.StringVar(&c.transaction, "transaction", "", "Ledger transaction ID")
}

func (c *suggestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.receipt == "") == (c.transaction == "") {
		return c.app.usage("exactly one of -receipt or -transaction is required")
	}

	env, status := c.app.open("matcher")
	if env == nil {
		return status
	}
	defer func() { _ = env.Close() }()

	if c.receipt != "" {
		candidates, err := env.Service.SuggestForReceipt(ctx, c.receipt)
		if err != nil {
			return c.app.fail("%v", err)
		}
		PrintExpenseSuggestions(c.app.Out, c.receipt, candidates)
		return subcommands.ExitSuccess
	}

	candidates, err := env.Service.SuggestForTransaction(ctx, c.transaction)
	if err != nil {
		return c.app.fail("%v", err)
	}
	PrintIncomeSuggestions(c.app.Out, c.transaction, candidates)
	return subcommands.ExitSuccess
}

type matchCmd struct {
	app         *App
	occurrence  string
	transaction string
	undo        bool
}

func (*matchCmd) Name() string     { return "match" }
func (*matchCmd) Synopsis() string { return "apply or undo a payment against projected income" }
func (*matchCmd) Usage() string {
	return `match -occurrence <id> -transaction <id> [-undo]:
  Allocate an incoming transaction to a projected income occurrence, or
  remove that allocation with -undo.
`
}

func (c *matchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.occurrence, "occurrence", "", "Projected income ID")
	f.StringVar(&c.transaction, "transaction", "", "Ledger transaction ID")
	f.BoolVar(&c.undo, "undo", false, "Remove the match instead of applying it")
}

func (c *matchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.occurrence == "" || c.transaction == "" {
		return c.app.usage("-occurrence and -transaction are required")
	}

	env, status := c.app.open("matcher")
	if env == nil {
		return status
	}
	defer func() { _ = env.Close() }()

	apply := env.Service.MatchTransaction
	if c.undo {
		apply = env.Service.UnmatchTransaction
	}
	p, err := apply(ctx, c.occurrence, c.transaction)
	if err != nil {
		return c.app.fail("%v", err)
	}
	PrintProjectedIncome(c.app.Out, *p)
	return subcommands.ExitSuccess
}

type refreshCmd struct {
	app     *App
	through string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "generate projected income for active retainers" }
func (*refreshCmd) Usage() string {
	return `refresh [-through YYYY-MM-DD]:
  Create missing projected income occurrences for every active retainer.
  Existing occurrences are left alone. Defaults to the end of the month
  three months from now.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.through, "through", "", "Last expected date to generate")
}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	through, err := parseOptionalDate("through", c.through)
	if err != nil {
		return c.app.usage("%v", err)
	}

	env, status := c.app.open("income")
	if env == nil {
		return status
	}
	defer func() { _ = env.Close() }()

	if through.IsZero() {
		through = service.DefaultRefreshThrough(env.Service.Today())
	}

	created, err := env.Service.RefreshProjectedIncome(ctx, through)
	if err != nil {
		return c.app.fail("refresh failed: %v", err)
	}
	fmt.Fprintf(c.app.Out, "Created %d projected income occurrence(s) through %s\n", created, through)
	return subcommands.ExitSuccess
}

type vendorsCmd struct {
	app   *App
	owner string
	query string
}

func (*vendorsCmd) Name() string     { return "vendors" }
func (*vendorsCmd) Synopsis() string { return "list deduplicated vendor names" }
func (*vendorsCmd) Usage() string {
	return `vendors [-owner <id>] [-q <prefix>]:
  List the distinct vendors found on rules and expenses, collapsing
  spellings of the same name.
`
}

func (c *vendorsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner ID (default: all owners)")
	f.StringVar(&c.query, "q", "", "Only names starting with this prefix")
}

func (c *vendorsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, status := c.app.open("vendors")
	if env == nil {
		return status
	}
	defer func() { _ = env.Close() }()

	names, err := env.Service.VendorNames(ctx, c.owner, c.query)
	if err != nil {
		return c.app.fail("%v", err)
	}
	if len(names) == 0 {
		fmt.Fprintln(c.app.Out, "No vendors")
		return subcommands.ExitSuccess
	}
	for _, name := range names {
		fmt.Fprintln(c.app.Out, name)
	}
	return subcommands.ExitSuccess
}
