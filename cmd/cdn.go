// Handles the "swiftkit cdn" command tree: publishing containers to the
// content delivery network.
package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cdnCmd = &cobra.Command{
	Use:   "cdn",
	Short: "CDN publishing",
	Long:  `Commands for publishing containers to the CDN. Requires CDN support on your account.`,
}

var cdnPublishCmdConfig struct {
	ttl int
}

var cdnPublishCmd = &cobra.Command{
	Use:   "publish <container>",
	Short: "Publish a container to the CDN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		container, err := conn.GetContainer(args[0])
		if err != nil {
			return errors.Wrap(err, "Failed to fetch container")
		}
		if err := container.MakePublic(cdnPublishCmdConfig.ttl); err != nil {
			return errors.Wrap(err, "Failed to publish container")
		}
		uri, err := container.PublicURI()
		if err != nil {
			return errors.Wrap(err, "Container published but no URI reported")
		}
		fmt.Println(uri)
		return nil
	},
}

var cdnUnpublishCmd = &cobra.Command{
	Use:   "unpublish <container>",
	Short: "Withdraw a container from the CDN",
	Long: `Withdraw the container from the CDN. Cached copies may remain
available until the TTL expires.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		container, err := conn.GetContainer(args[0])
		if err != nil {
			return errors.Wrap(err, "Failed to fetch container")
		}
		if err := container.MakePrivate(); err != nil {
			return errors.Wrap(err, "Failed to unpublish container")
		}
		swiftManager.Logger.Info("Unpublished container: " + args[0])
		return nil
	},
}

var cdnListCmd = &cobra.Command{
	Use:   "list",
	Short: "List containers published to the CDN",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := swiftManager.GetConnection()
		if err != nil {
			return errors.Wrap(err, "Failed to connect")
		}
		defer swiftManager.ReleaseConnection(conn)

		names, err := conn.ListPublicContainers()
		if err != nil {
			return errors.Wrap(err, "Failed to list public containers")
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cdnCmd)

	cdnCmd.AddCommand(cdnPublishCmd)
	cdnPublishCmd.Flags().IntVar(&cdnPublishCmdConfig.ttl, "ttl", 0, "CDN cache duration in seconds (default is the service default)")

	cdnCmd.AddCommand(cdnUnpublishCmd)
	cdnCmd.AddCommand(cdnListCmd)
}
