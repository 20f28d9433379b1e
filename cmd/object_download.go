// Handles the "swiftkit object download" command
package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var objectDownloadCmdConfig struct {
	container string
	output    string
}

var objectDownloadCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Download an object to a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		container, err := conn.GetContainer(objectDownloadCmdConfig.container)
		if err != nil {
			return errors.Wrap(err, "Failed to fetch container")
		}
		obj, err := container.GetObject(args[0])
		if err != nil {
			return errors.Wrap(err, "Failed to fetch object")
		}

		output := objectDownloadCmdConfig.output
		if output == "" {
			output = args[0]
		}
		if err := obj.SaveToFilename(output, nil); err != nil {
			return errors.Wrap(err, "Download failed")
		}
		swiftManager.Logger.Infof("Downloaded %s to %s (%d bytes)", args[0], output, obj.Size)
		return nil
	},
}

func init() {
	objectCmd.AddCommand(objectDownloadCmd)

	objectDownloadCmd.Flags().StringVarP(&objectDownloadCmdConfig.container, "container", "c", "", "source container")
	objectDownloadCmd.Flags().StringVarP(&objectDownloadCmdConfig.output, "output", "o", "", "output file (default is the object name)")
	objectDownloadCmd.MarkFlagRequired("container")
}
