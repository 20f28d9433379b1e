// Handles the "swiftkit object upload" command
package cmd

import (
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var objectUploadCmdConfig struct {
	container   string
	source      string
	name        string
	contentType string
	trustServer bool
}

var objectUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a file into a container",
	Long: `Upload a local file as an object. By default an md5 checksum is
computed locally and verified end to end; with --trust-server the checksum
reported by the server is adopted instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		objName := objectUploadCmdConfig.name
		if objName == "source" {
			objName = path.Base(objectUploadCmdConfig.source)
		}

		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		container, err := conn.GetContainer(objectUploadCmdConfig.container)
		if err != nil {
			return errors.Wrap(err, "Failed to fetch container")
		}
		obj, err := container.CreateObject(objName)
		if err != nil {
			return errors.Wrap(err, "Failed to create object")
		}
		if objectUploadCmdConfig.contentType != "" {
			obj.ContentType = objectUploadCmdConfig.contentType
		}

		verify := !objectUploadCmdConfig.trustServer
		if err := obj.LoadFromFilename(objectUploadCmdConfig.source, verify, nil); err != nil {
			return errors.Wrap(err, "Upload failed")
		}
		swiftManager.Logger.Infof("Uploaded %s (%d bytes, etag %s)", objName, obj.Size, obj.ETag())
		return nil
	},
}

func init() {
	objectCmd.AddCommand(objectUploadCmd)

	// Define the command line arguments for this subcommand
	objectUploadCmd.Flags().StringVarP(&objectUploadCmdConfig.container, "container", "c", "", "target container")
	objectUploadCmd.Flags().StringVarP(&objectUploadCmdConfig.source, "source", "s", "", "file to upload")
	objectUploadCmd.Flags().StringVarP(&objectUploadCmdConfig.contentType, "type", "t", "", "content type (default is guessed from the file name)")
	objectUploadCmd.Flags().BoolVar(&objectUploadCmdConfig.trustServer, "trust-server", false, "adopt the server's checksum instead of verifying locally")
	// The actual default is derived from the source option, so we set it
	// something that will be clear in the help output until we have all the
	// options parsed
	objectUploadCmd.Flags().StringVarP(&objectUploadCmdConfig.name, "name", "n", "source", "optional object name, if different than the source file name")
	objectUploadCmd.MarkFlagRequired("container")
	objectUploadCmd.MarkFlagRequired("source")
}
