package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/clientscout/internal/store"
)

var listsEmail string

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage saved lead lists",
}

var listsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show saved lists for an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		lists, err := st.ListLists(ctx, listsEmail)
		if err != nil {
			return eris.Wrap(err, "list lists")
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tQUERY\tITEMS\tCREATED")
		for _, l := range lists {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", l.ID, l.Query, l.ItemCount, l.CreatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var listsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one saved list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		list, err := st.GetList(ctx, args[0])
		if eris.Is(err, store.ErrNotFound) {
			return eris.Errorf("list %s not found", args[0])
		}
		if err != nil {
			return eris.Wrap(err, "get list")
		}

		fmt.Printf("Query: %s\nItems: %d\nCreated: %s\n\n", list.Query, list.ItemCount, list.CreatedAt.Format("2006-01-02 15:04"))
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tPHONE\tADDRESS\tRATING")
		for _, b := range list.Results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Name, b.Phone, b.Address, b.Rating)
		}
		return tw.Flush()
	},
}

var listsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a saved list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		err = st.DeleteList(ctx, args[0])
		if eris.Is(err, store.ErrNotFound) {
			return eris.Errorf("list %s not found", args[0])
		}
		if err != nil {
			return eris.Wrap(err, "delete list")
		}

		zap.L().Info("list deleted", zap.String("list_id", args[0]))
		return nil
	},
}

func init() {
	listsListCmd.Flags().StringVar(&listsEmail, "email", "", "account email (required)")
	_ = listsListCmd.MarkFlagRequired("email")

	listsCmd.AddCommand(listsListCmd)
	listsCmd.AddCommand(listsShowCmd)
	listsCmd.AddCommand(listsRmCmd)
	rootCmd.AddCommand(listsCmd)
}
