package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/clientscout/internal/leads"
	"github.com/sells-group/clientscout/internal/store"
)

var (
	exportEmail   string
	exportDir     string
	exportFormat  string
	exportWorkers int
)

var exportCmd = &cobra.Command{
	Use:   "export [id...]",
	Short: "Export saved lists to CSV or XLSX files",
	Long:  "Exports saved lists by ID, or every list for an account with --email. Files land in --dir, one per list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && exportEmail == "" {
			return eris.New("give list IDs or --email to export all lists for an account")
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		var lists []store.SavedList
		if len(args) > 0 {
			for _, id := range args {
				l, err := st.GetList(ctx, id)
				if eris.Is(err, store.ErrNotFound) {
					return eris.Errorf("list %s not found", id)
				}
				if err != nil {
					return eris.Wrap(err, "get list")
				}
				lists = append(lists, *l)
			}
		} else {
			lists, err = st.ListLists(ctx, exportEmail)
			if err != nil {
				return eris.Wrap(err, "list lists")
			}
		}

		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", exportDir)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(exportWorkers)
		for _, list := range lists {
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				path := filepath.Join(exportDir, exportFileName(list))
				if err := exportList(list, path); err != nil {
					return eris.Wrapf(err, "export list %s", list.ID)
				}
				zap.L().Info("list exported",
					zap.String("list_id", list.ID),
					zap.String("path", path),
					zap.Int("items", list.ItemCount),
				)
				return nil
			})
		}
		return g.Wait()
	},
}

// exportFileName derives a filesystem-safe name from the list's query.
func exportFileName(list store.SavedList) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, list.Query)
	if slug == "" {
		slug = "leads"
	}
	return fmt.Sprintf("%s-%s.%s", slug, list.ID[:8], exportFormat)
}

func exportList(list store.SavedList, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch exportFormat {
	case "csv":
		return leads.WriteCSV(f, list.Results)
	case "xlsx":
		return leads.WriteXLSX(f, list.Results)
	default:
		return eris.Errorf("unknown format %q (want csv or xlsx)", exportFormat)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportEmail, "email", "", "export every list for this account")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().IntVar(&exportWorkers, "workers", 4, "concurrent exports")
	rootCmd.AddCommand(exportCmd)
}
