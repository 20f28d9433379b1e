// Root of command-line argument parsing.
// This file was based off the standard cobra template, see
// https://github.com/spf13/cobra
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swiftkit/swiftkit/pkg/swiftmgr"
)

var cfgFile string

var swiftManager *swiftmgr.SwiftManager

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swiftkit",
	Short: "A toolkit for Cloud Files-style object storage",
	Long:  `Manage containers and objects on a Cloud Files-style storage account, publish containers to the CDN, and mirror data out to S3.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		mgrArgs := map[string]interface{}{}
		if cfgFile != "" {
			mgrArgs["config-file"] = cfgFile
		}

		var err error
		swiftManager, err = swiftmgr.NewManager(mgrArgs)
		if err != nil {
			fmt.Printf("Failed to initialize swiftkit manager: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		swiftManager.Destroy()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by swiftkit.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if swiftManager == nil || swiftManager.Logger == nil {
			fmt.Printf("%v\n", err)
		} else {
			swiftManager.Logger.Error(err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/swiftkit.yaml)")
}
