package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:                "status [resource]",
	Short:              "Show the token currently holding a lock",
	Args:               cobra.ExactArgs(1),
	PersistentPreRunE:  openClient,
	PersistentPostRunE: closeClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := cfg.Lock.Key(args[0])
		token, found, err := client.Store().Get(cmd.Context(), key)
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("%s unlocked\n", key)
			return nil
		}
		fmt.Printf("%s locked token=%s\n", key, token)
		return nil
	},
}
