package main

import (
	"fmt"

	"github.com/soroosh-tanzadeh/distlock"
	"github.com/soroosh-tanzadeh/distlock/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const Version = "0.1.0"

var (
	v      = viper.New()
	cfg    *config.Config
	client *distlock.Client

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "distlock",
		Short: "Redis backed distributed locks",
		Long: fmt.Sprintf(`distlock (v%s)

Run commands under a Redis lock, inspect lock keys and measure contention.
Settings come from flags or DISTLOCK_* environment variables.`, Version),
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of distlock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("distlock v%s\n", Version)
		},
	}
)

func init() {
	config.SetDefaults(v)
	cobra.OnInitialize(func() { config.InitEnv(v) })
	if err := config.BindFlags(v, RootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(benchCmd)
}

// openClient is the PersistentPreRunE of every command talking to Redis.
func openClient(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	client, err = distlock.Open(cfg)
	return err
}

func closeClient(_ *cobra.Command, _ []string) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
