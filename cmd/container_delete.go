// Handles the "swiftkit container delete" command
package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var containerDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an empty container",
	Long: `Delete the named container. The container must be empty; delete its
objects first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		if err := conn.DeleteContainer(args[0]); err != nil {
			return errors.Wrap(err, "Failed to delete container")
		}
		swiftManager.Logger.Info("Deleted container: " + args[0])
		return nil
	},
}

func init() {
	containerCmd.AddCommand(containerDeleteCmd)
}
