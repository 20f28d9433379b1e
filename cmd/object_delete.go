// Handles the "swiftkit object delete" command
package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var objectDeleteCmdConfig struct {
	container string
}

var objectDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		container, err := conn.GetContainer(objectDeleteCmdConfig.container)
		if err != nil {
			return errors.Wrap(err, "Failed to fetch container")
		}
		if err := container.DeleteObject(args[0]); err != nil {
			return errors.Wrap(err, "Failed to delete object")
		}
		swiftManager.Logger.Info("Deleted object: " + args[0])
		return nil
	},
}

func init() {
	objectCmd.AddCommand(objectDeleteCmd)

	objectDeleteCmd.Flags().StringVarP(&objectDeleteCmdConfig.container, "container", "c", "", "container holding the object")
	objectDeleteCmd.MarkFlagRequired("container")
}
