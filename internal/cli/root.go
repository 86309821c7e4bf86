package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rdm/internal/apiclient"
	"rdm/internal/explorer"
)

var (
	flagServer string

	client  *apiclient.Client
	session *explorer.Session
)

var rootCmd = &cobra.Command{
	Use:           "rdm",
	Short:         "Browse and organize documents on an RDM server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if flagServer != "" {
			cfg.Server = flagServer
		}

		client = apiclient.New(cfg.Server, newFileCredentials(cfg))
		session = explorer.NewSession(client)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server base URL (overrides config)")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(trashCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// parentArg interprets an optional folder-id argument, empty meaning root.
func parentArg(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printErr(err error) error {
	return fmt.Errorf("rdm: %w", err)
}
