// Handles the "swiftkit container create" command
package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var containerCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new container",
	Long: `Create the named container on your storage account. Creating a
container that already exists is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		container, err := conn.CreateContainer(args[0])
		if err != nil {
			return errors.Wrap(err, "Failed to create container")
		}
		swiftManager.Logger.Info("Created container: " + container.Name)
		return nil
	},
}

func init() {
	containerCmd.AddCommand(containerCreateCmd)
}
