// Handles the "swiftkit container" command. This command exists solely to
// contain container-specific subcommands (create, delete, list).
package cmd

import (
	"github.com/spf13/cobra"
)

// containerCmd represents the container command
var containerCmd = &cobra.Command{
	Use:   "container",
	Short: "Container interaction",
	Long:  `Commands for managing the containers on your storage account.`,
}

func init() {
	rootCmd.AddCommand(containerCmd)
}
