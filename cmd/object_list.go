// Handles the "swiftkit object list" command
package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/swiftkit/swiftkit/pkg/swiftkit"
)

var objectListCmdConfig struct {
	container string
	prefix    string
	path      string
	limit     int
	offset    int
	long      bool
}

var objectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the objects in a container",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		container, err := conn.GetContainer(objectListCmdConfig.container)
		if err != nil {
			return errors.Wrap(err, "Failed to fetch container")
		}
		params := swiftkit.ListParams{
			Prefix: objectListCmdConfig.prefix,
			Path:   objectListCmdConfig.path,
			Limit:  objectListCmdConfig.limit,
			Offset: objectListCmdConfig.offset,
		}

		if objectListCmdConfig.long {
			records, err := container.ListObjectsInfo(params)
			if err != nil {
				return errors.Wrap(err, "Failed to list objects")
			}
			for _, rec := range records {
				fmt.Printf("%s\t%d\t%s\t%s\t%s\n", rec.Name, rec.Bytes, rec.ContentType, rec.Hash, rec.LastModified)
			}
			return nil
		}

		names, err := container.ListObjects(params)
		if err != nil {
			return errors.Wrap(err, "Failed to list objects")
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	objectCmd.AddCommand(objectListCmd)

	objectListCmd.Flags().StringVarP(&objectListCmdConfig.container, "container", "c", "", "container to list")
	objectListCmd.Flags().StringVarP(&objectListCmdConfig.prefix, "prefix", "p", "", "only objects with this name prefix")
	objectListCmd.Flags().StringVar(&objectListCmdConfig.path, "path", "", "only objects in this pseudo-directory")
	objectListCmd.Flags().IntVar(&objectListCmdConfig.limit, "limit", 0, "return at most this many names")
	objectListCmd.Flags().IntVar(&objectListCmdConfig.offset, "offset", 0, "skip this many names")
	objectListCmd.Flags().BoolVarP(&objectListCmdConfig.long, "long", "l", false, "include size, content type, checksum and modification time")
	objectListCmd.MarkFlagRequired("container")
}
