package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/spf13/cobra"
)

var (
	runWait  time.Duration
	runLease time.Duration

	runCmd = &cobra.Command{
		Use:                "run [resource] -- [command...]",
		Short:              "Run a command while holding a lock",
		Long:               "Acquire the lock on resource, run the command and release the lock when it exits. Exits with code 2 if the lock could not be acquired in time.",
		Args:               cobra.MinimumNArgs(2),
		PersistentPreRunE:  openClient,
		PersistentPostRunE: closeClient,
		RunE:               runLocked,
	}
)

func init() {
	runCmd.Flags().DurationVar(&runWait, "wait", 10*time.Second, "how long to wait for the lock")
	runCmd.Flags().DurationVar(&runLease, "lease", 0, "lease for this run (0 uses --lock-lease)")
}

func runLocked(cmd *cobra.Command, args []string) error {
	resource := args[0]
	command := args[1:]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runLease > 0 {
		ctx = contracts.WithLease(ctx, runLease)
	}

	err := client.RunExclusive(ctx, resource, runWait, func(ctx context.Context) error {
		log.WithField("resource", resource).Debug("Lock acquired, running command")
		c := exec.CommandContext(ctx, command[0], command[1:]...)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	})

	switch {
	case errors.Is(err, contracts.ErrAcquisitionTimeout):
		fmt.Fprintf(os.Stderr, "could not acquire %s within %s\n", resource, runWait)
		closeClient(cmd, args)
		os.Exit(2)
	case errors.Is(err, contracts.ErrInterruptedWait):
		return fmt.Errorf("interrupted while waiting for %s", resource)
	}
	return err
}
