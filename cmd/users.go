package cmd

import (
	"bufio"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"github.com/inovacc/finzana/internal/core"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userInput core.UserInput
	usersJSON bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff users",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <usuario>",
	Short: "Create a staff user",
	Long: `Create a staff user. The password is read from the terminal without
echo, or from stdin when piped.

Examples:
  finzana users add maria --nombre "María López" --tipo promotor`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userInput.Usuario = args[0]

		password, err := readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		userInput.Password = password

		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		user, err := env.app.AddUser(cmd.Context(), userInput)
		if err != nil {
			return err
		}

		fmt.Printf("✓ User %s (%s) created\n", user.Usuario, user.Tipo)

		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List staff users",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		users := env.app.Users()

		if usersJSON {
			return printJSON(users)
		}

		if len(users) == 0 {
			fmt.Println("No users yet. The admin user is created on the first 'finzana serve'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "USUARIO\tNOMBRE\tTIPO\tACTIVO")

		for _, u := range users {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", u.Usuario, u.Nombre, u.Tipo, u.Activo)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd, usersListCmd)

	usersAddCmd.Flags().StringVar(&userInput.Nombre, "nombre", "", "Full name")
	usersAddCmd.Flags().StringVar(&userInput.Tipo, "tipo", "promotor", "Role")

	usersListCmd.Flags().BoolVar(&usersJSON, "json", false, "Output as JSON")
}

// readPassword reads a password from the terminal without echoing
func readPassword(prompt string) (string, error) {
	_, _ = fmt.Fprint(os.Stderr, prompt)

	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", err
		}

		return string(password), nil
	}

	// Fallback for non-terminal (piped input)
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("no password provided")
}
