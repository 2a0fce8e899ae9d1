package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/inovacc/finzana/internal/core"
	"github.com/spf13/cobra"
)

var (
	clientInput core.ClientInput
	clientsJSON bool
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Register and list clients",
}

var clientsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a client",
	Long: `Register a client. The CURP must be new across the local store and the
spreadsheet mirror, and the group must be one of the configured groups.

Examples:
  finzana clients add --curp GOMR800101HDFRRN09 --nombre "Rosa Gómez" --grupo "Grupo 1"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		client, err := env.app.RegisterClient(cmd.Context(), clientInput, actingUser)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Registered %s (%s)\n", client.Nombre, client.CURP)

		return nil
	},
}

var clientsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List local and mirrored clients",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if env.mirror != nil {
			env.app.RefreshMirror(cmd.Context())
		}

		clients := env.app.Clients()

		if clientsJSON {
			return printJSON(clients)
		}

		if len(clients) == 0 {
			fmt.Println("No clients registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CURP\tNOMBRE\tGRUPO\tTELEFONO\tFUENTE")

		for _, c := range clients {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.CURP, c.Nombre, c.Grupo, c.Telefono, c.Fuente)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(clientsCmd)
	clientsCmd.AddCommand(clientsAddCmd, clientsListCmd)

	clientsAddCmd.Flags().StringVar(&clientInput.CURP, "curp", "", "Client CURP")
	clientsAddCmd.Flags().StringVar(&clientInput.Nombre, "nombre", "", "Full name")
	clientsAddCmd.Flags().StringVar(&clientInput.Telefono, "telefono", "", "Phone number")
	clientsAddCmd.Flags().StringVar(&clientInput.Grupo, "grupo", "", "Lending group")
	clientsAddCmd.Flags().StringVar(&clientInput.Direccion, "direccion", "", "Address")
	_ = clientsAddCmd.MarkFlagRequired("curp")
	_ = clientsAddCmd.MarkFlagRequired("nombre")

	clientsListCmd.Flags().BoolVar(&clientsJSON, "json", false, "Output as JSON")
}
