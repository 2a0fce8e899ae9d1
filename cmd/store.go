package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/inovacc/finzana/internal/localstore"
	"github.com/spf13/cobra"
)

var storeYes bool

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the local store",
}

var storeCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the records of every collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, _, err := loadSettings()
		if err != nil {
			return err
		}

		st, err := openStore(ctx, s)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "COLLECTION\tRECORDS")

		for _, c := range localstore.DefaultSchema.Collections {
			n, err := st.GetCount(ctx, c.Name)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(w, "%s\t%d\n", c.Name, n)
		}

		return w.Flush()
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "Print the records of a collection as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, _, err := loadSettings()
		if err != nil {
			return err
		}

		st, err := openStore(ctx, s)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		recs, err := st.GetAll(ctx, args[0])
		if err != nil {
			return err
		}

		return printJSON(recs)
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear <collection>",
	Short: "Delete every record of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !storeYes {
			fmt.Printf("Delete every record of '%s'? [y/N]: ", args[0])

			var response string
			_, _ = fmt.Scanln(&response)

			if response != "y" && response != "Y" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		s, _, err := loadSettings()
		if err != nil {
			return err
		}

		st, err := openStore(ctx, s)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.ClearStore(ctx, args[0]); err != nil {
			return err
		}

		fmt.Printf("✓ Cleared %s\n", args[0])

		return nil
	},
}

var storeVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the store schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSettings()
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		path, _ := s.StorePath()

		fmt.Printf("%s schema v%d (%s, %s)\n", localstore.DefaultSchema.Name, st.Version(), s.Store.Driver, path)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeCountCmd, storeListCmd, storeClearCmd, storeVersionCmd)

	storeClearCmd.Flags().BoolVarP(&storeYes, "yes", "y", false, "Skip confirmation prompt")
}
