// Handles the "swiftkit account" command tree: account-level queries.
package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account interaction",
	Long:  `Commands for querying your storage account as a whole.`,
}

var accountInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show container count and total bytes used",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		info, err := conn.Info()
		if err != nil {
			return errors.Wrap(err, "Failed to fetch account info")
		}
		fmt.Printf("Containers: %d\nBytes used: %d\n", info.ContainerCount, info.BytesUsed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountInfoCmd)
}
