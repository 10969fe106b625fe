package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/taskkeeper/internal/credential"
)

var credentialKeys = []string{credential.KeyAIAPIKey, credential.KeySMTPPassword}

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Store secrets in the system keyring",
		Long: fmt.Sprintf(`Store secrets in the system keyring.

Known keys: %s.`, strings.Join(credentialKeys, ", ")),
	}

	set := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret, prompting for it unless --value is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkCredentialKey(key); err != nil {
				return err
			}

			value, _ := cmd.Flags().GetString("value")
			if value == "" {
				err := huh.NewInput().
					Title(key).
					EchoMode(huh.EchoModePassword).
					Value(&value).
					Run()
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(value) == "" {
				return errors.New("empty value")
			}

			if err := credential.Set(key, strings.TrimSpace(value)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
			return nil
		},
	}
	set.Flags().String("value", "", "Secret value")

	del := &cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a secret",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkCredentialKey(args[0]); err != nil {
				return err
			}
			if err := credential.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}

func checkCredentialKey(key string) error {
	for _, k := range credentialKeys {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("unknown credential %q, use one of: %s", key, strings.Join(credentialKeys, ", "))
}
