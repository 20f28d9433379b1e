// Handles the "swiftkit serve" command
package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/swiftkit/swiftkit/pkg/swiftlike"
)

var serveCmdConfig struct {
	listenAddr string
	cdnAddr    string
	account    string
	username   string
	apiKey     string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local swiftlike storage service",
	Long: `Run an in-memory Cloud Files-style storage service, useful for
development and testing without a real account. State is lost on exit.`,

	// Don't need the pre-run and post-run declared in root.go
	PersistentPreRun:  func(cmd *cobra.Command, args []string) {},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},

	RunE: func(cmd *cobra.Command, args []string) error {

		s := swiftlike.NewService(swiftlike.Options{
			Account:       serveCmdConfig.account,
			Username:      serveCmdConfig.username,
			APIKey:        serveCmdConfig.apiKey,
			ListenAddr:    serveCmdConfig.listenAddr,
			CDNListenAddr: serveCmdConfig.cdnAddr,
		}, nil)
		if err := s.Start(); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("auth endpoint: %s\n", s.AuthURL())

		// Shutdown cleanly on ctrl-c or sigterm from kill
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveCmdConfig.listenAddr, "address", "localhost:9080", "address for the storage service")
	serveCmd.Flags().StringVar(&serveCmdConfig.cdnAddr, "cdn-address", "localhost:9081", "address for the CDN management service")
	serveCmd.Flags().StringVar(&serveCmdConfig.account, "account", "test", "account name to serve")
	serveCmd.Flags().StringVar(&serveCmdConfig.username, "username", "", "required username (default accepts any)")
	serveCmd.Flags().StringVar(&serveCmdConfig.apiKey, "key", "", "required api key (default accepts any)")
}
