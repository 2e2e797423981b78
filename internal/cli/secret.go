package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitalvas/signfetch/config"
)

func newSecretCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage credentials in the system keychain",
		Long: `Store and remove credentials in the system keychain. Stored values are
referenced from the config file as keyring:<name>.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "set <name> [value|-]",
		Short:   "Store a secret",
		Example: `  signfetch secret set api-token tok_123`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}

			if err := config.StoreSecret(args[0], string(trimNewline(value))); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored keyring:%s\n", args[0])

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteSecret(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted keyring:%s\n", args[0])

			return nil
		},
	})

	return cmd
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
