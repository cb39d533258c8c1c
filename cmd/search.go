package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/clientscout/internal/leads"
	"github.com/sells-group/clientscout/internal/store"
)

var (
	searchRounds int
	searchOutput string
	searchFormat string
	searchSave   bool
	searchEmail  string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find business leads for a natural-language query",
	Long:  `Runs a lead search (e.g. "plumbers in Austin, TX"), optionally asking the backend for more unique results over several rounds, and writes the deduplicated list as CSV, XLSX, or JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := args[0]

		sess, closeFn, err := openSession(ctx)
		if err != nil {
			return eris.Wrap(err, "open backend session")
		}
		defer closeFn()

		searcher := leads.NewSearcher(sess)

		results, err := runRound(ctx, func(rctx context.Context) (leads.ResultSet, error) {
			return searcher.RunInitialSearch(rctx, query)
		})
		if err != nil {
			return eris.Wrap(err, "initial search")
		}

		rounds := searchRounds
		if rounds == 0 {
			rounds = cfg.Search.MoreRounds
		}
		for i := 0; i < rounds; i++ {
			merged, err := runRound(ctx, func(rctx context.Context) (leads.ResultSet, error) {
				return searcher.RunMoreSearch(rctx, results)
			})
			if err != nil {
				zap.L().Warn("more round failed, keeping results so far",
					zap.Int("round", i+1),
					zap.Error(err),
				)
				break
			}
			if len(merged) == len(results) {
				zap.L().Info("no new results, stopping early", zap.Int("round", i+1))
				results = merged
				break
			}
			results = merged
		}

		zap.L().Info("search complete",
			zap.String("query", query),
			zap.Int("results", len(results)),
		)

		if searchSave {
			if err := saveResults(ctx, query, results); err != nil {
				return err
			}
		}

		return writeResults(results, searchOutput, searchFormat)
	},
}

// runRound applies the configured per-call timeout around one backend turn.
func runRound(ctx context.Context, fn func(context.Context) (leads.ResultSet, error)) (leads.ResultSet, error) {
	if cfg.Search.SendTimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Search.SendTimeoutSecs)*time.Second)
		defer cancel()
	}
	return fn(ctx)
}

func saveResults(ctx context.Context, query string, results leads.ResultSet) error {
	if searchEmail == "" {
		return eris.New("--email is required with --save")
	}

	st, err := initStore(ctx)
	if err != nil {
		return eris.Wrap(err, "init store")
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	list, err := st.CreateList(ctx, store.SavedList{
		UserEmail: searchEmail,
		Query:     query,
		Results:   results,
	})
	if err != nil {
		return eris.Wrap(err, "save list")
	}
	zap.L().Info("list saved", zap.String("list_id", list.ID), zap.Int("items", list.ItemCount))
	return nil
}

func writeResults(results leads.ResultSet, path, format string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(format) {
	case "csv":
		return leads.WriteCSV(w, results)
	case "xlsx":
		return leads.WriteXLSX(w, results)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	default:
		return eris.Errorf("unknown format %q (want csv, xlsx, or json)", format)
	}
}

func init() {
	searchCmd.Flags().IntVar(&searchRounds, "rounds", 0, "extra find-more rounds after the initial search (default from config)")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", "", "output file (default stdout)")
	searchCmd.Flags().StringVar(&searchFormat, "format", "csv", "output format: csv, xlsx, or json")
	searchCmd.Flags().BoolVar(&searchSave, "save", false, "save results as a list in the store")
	searchCmd.Flags().StringVar(&searchEmail, "email", "", "account email for --save")
	rootCmd.AddCommand(searchCmd)
}
