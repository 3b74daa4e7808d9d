package cmd

import (
	"fmt"

	"github.com/Dune005/syfte/internal/notify"
	"github.com/spf13/cobra"
)

func VAPIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vapid",
		Short: "Web push key management",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate a VAPID key pair for .env",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			publicKey, privateKey, err := notify.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
			return nil
		},
	})
	return cmd
}
