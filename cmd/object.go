// Handles the "swiftkit object" command. This command exists solely to
// contain object-specific subcommands (upload, download, list, delete).
package cmd

import (
	"github.com/spf13/cobra"
)

// objectCmd represents the object command
var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Object interaction",
	Long:  `Commands for moving data in and out of your containers.`,
}

func init() {
	rootCmd.AddCommand(objectCmd)
}
