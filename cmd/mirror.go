// Handles the "swiftkit mirror" command
package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/swiftkit/swiftkit/pkg/s3mirror"
)

var mirrorCmdConfig struct {
	container string
	prefix    string
	bucket    string
	region    string
	workers   int
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror a container into an S3 bucket",
	Long: `Copy every object in a container into an S3 bucket, keyed as
<container>/<object>. Transfers run on concurrent workers, each with its
own pooled connection. AWS credentials come from the usual SDK sources.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := s3mirror.New(
			swiftManager.Logger.WithField("module", "s3mirror"),
			swiftManager.Pool,
			s3mirror.NewUploader(mirrorCmdConfig.region),
			mirrorCmdConfig.bucket,
			mirrorCmdConfig.workers)

		copied, err := m.MirrorContainer(mirrorCmdConfig.container, mirrorCmdConfig.prefix)
		if err != nil {
			return errors.Wrapf(err, "Mirror failed after %d objects", copied)
		}
		swiftManager.Logger.Infof("Mirrored %d objects", copied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd)

	mirrorCmd.Flags().StringVarP(&mirrorCmdConfig.container, "container", "c", "", "container to mirror")
	mirrorCmd.Flags().StringVarP(&mirrorCmdConfig.prefix, "prefix", "p", "", "only objects with this name prefix")
	mirrorCmd.Flags().StringVarP(&mirrorCmdConfig.bucket, "bucket", "b", "", "destination S3 bucket")
	mirrorCmd.Flags().StringVar(&mirrorCmdConfig.region, "region", "us-west-2", "AWS region of the bucket")
	mirrorCmd.Flags().IntVarP(&mirrorCmdConfig.workers, "workers", "w", 4, "concurrent transfer workers")
	mirrorCmd.MarkFlagRequired("container")
	mirrorCmd.MarkFlagRequired("bucket")
}
