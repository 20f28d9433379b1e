// Handles the "swiftkit container list" command
package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var containerListCmdConfig struct {
	long bool
}

var containerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the containers on the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		names, err := conn.ListContainers()
		if err != nil {
			return errors.Wrap(err, "Failed to list containers")
		}
		for _, name := range names {
			if containerListCmdConfig.long {
				container, err := conn.GetContainer(name)
				if err != nil {
					return errors.Wrap(err, "Failed to fetch container "+name)
				}
				fmt.Printf("%s\t%d objects\t%d bytes\n", name, container.ObjectCount, container.BytesUsed)
			} else {
				fmt.Println(name)
			}
		}
		return nil
	},
}

func init() {
	containerCmd.AddCommand(containerListCmd)
	containerListCmd.Flags().BoolVarP(&containerListCmdConfig.long, "long", "l", false, "include object counts and byte usage")
}
