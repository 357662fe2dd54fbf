package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicdesk/backend/internal/bootstrap"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
)

// appOpener builds the wired services; tests substitute their own config
type appOpener func(ctx context.Context) (*bootstrap.App, error)

func openFromEnv(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, nil)
}

func main() {
	if err := newRootCmd(openFromEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open appOpener) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "clinicctl",
		Short:        "Resolve clinic entities and inspect resolution hints",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				Level(level).
				With().
				Timestamp().
				Logger()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every resolution attempt")

	rootCmd.AddCommand(resolveCmd(open))
	rootCmd.AddCommand(recordsCmd(open))
	rootCmd.AddCommand(appointmentsCmd(open))
	rootCmd.AddCommand(hintsCmd(open))

	return rootCmd
}

func addReferenceFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "", "Entity kind: patient, doctor or appointment-subject")
	cmd.Flags().String("id", "", "Backend identifier")
	cmd.Flags().String("code", "", "Human-facing code such as P002")
	cmd.Flags().String("name", "", "Display name")
	_ = cmd.MarkFlagRequired("kind")
}

func referenceFromFlags(cmd *cobra.Command) (entities.EntityReference, error) {
	rawKind, _ := cmd.Flags().GetString("kind")
	kind, err := entities.ParseEntityKind(rawKind)
	if err != nil {
		return entities.EntityReference{}, err
	}

	id, _ := cmd.Flags().GetString("id")
	code, _ := cmd.Flags().GetString("code")
	name, _ := cmd.Flags().GetString("name")

	ref := entities.EntityReference{ID: id, Code: code, Name: name, Kind: kind}
	return ref, ref.Validate()
}

// withReference opens the app, parses the reference flags and runs fn
func withReference(open appOpener, fn func(ctx context.Context, app *bootstrap.App, ref entities.EntityReference, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ref, err := referenceFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		app, err := open(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(ctx, app, ref, cmd.OutOrStdout())
	}
}

func resolveCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a partial reference to a canonical record",
		RunE: withReference(open, func(ctx context.Context, app *bootstrap.App, ref entities.EntityReference, out io.Writer) error {
			outcome, err := app.Records.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			return printJSON(out, outcome)
		}),
	}
	addReferenceFlags(cmd)
	return cmd
}

func recordsCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Resolve a reference and aggregate its records from every source",
		RunE: withReference(open, func(ctx context.Context, app *bootstrap.App, ref entities.EntityReference, out io.Writer) error {
			lookup, err := app.Records.Lookup(ctx, ref)
			if err != nil {
				return err
			}
			lookup.View.SortByRecency()
			return printJSON(out, lookup)
		}),
	}
	addReferenceFlags(cmd)
	return cmd
}

func appointmentsCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List upcoming, past and undated appointments for a reference",
		RunE: withReference(open, func(ctx context.Context, app *bootstrap.App, ref entities.EntityReference, out io.Writer) error {
			schedule, err := app.Appointments.ListForEntity(ctx, ref)
			if err != nil {
				return err
			}
			return printJSON(out, schedule)
		}),
	}
	addReferenceFlags(cmd)
	return cmd
}

func hintsCmd(open appOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hints",
		Short: "Inspect or evict resolution hints",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the hinted id for each of the reference's code and name keys",
		RunE: withReference(open, func(ctx context.Context, app *bootstrap.App, ref entities.EntityReference, out io.Writer) error {
			warnProcessLocalHints(app)
			hints := make(map[string]string)
			for _, key := range ref.HintKeys() {
				if id, ok := app.Hints.Get(ctx, key); ok {
					hints[key] = id
				}
			}
			return printJSON(out, hints)
		}),
	}
	addReferenceFlags(getCmd)

	evictCmd := &cobra.Command{
		Use:   "evict",
		Short: "Remove the hints for the reference's code and name keys",
		RunE: withReference(open, func(ctx context.Context, app *bootstrap.App, ref entities.EntityReference, out io.Writer) error {
			warnProcessLocalHints(app)
			evicted := 0
			for _, key := range ref.HintKeys() {
				if !app.Hints.Has(ctx, key) {
					continue
				}
				app.Hints.Evict(ctx, key)
				evicted++
			}
			fmt.Fprintf(out, "Evicted %d hint key(s).\n", evicted)
			return nil
		}),
	}
	addReferenceFlags(evictCmd)

	cmd.AddCommand(getCmd)
	cmd.AddCommand(evictCmd)
	return cmd
}

// warnProcessLocalHints flags a memory hint store, which starts empty in
// every clinicctl run and is invisible to the API server.
func warnProcessLocalHints(app *bootstrap.App) {
	if app.SharedHints() {
		return
	}
	log.Warn().
		Str("hint_backend", app.HintBackend).
		Msg("hint store is local to this process; set HINT_CACHE_BACKEND=redis or postgres to manage shared hints")
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
