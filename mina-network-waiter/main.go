package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/action_io"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/availability_waiter"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/graphql_client"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/module_io"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

const (
	successExitCode = 0
	failureExitCode = 1

	// The daemon is expected to run next to the job that waits on it
	defaultMinaGraphQLHost = "127.0.0.1"

	minaGraphQLHostFlag = "mina-graphql-host"
	paramsFileFlag      = "params-file"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

// The waiter already reported this one, so main doesn't print it again
var errNetworkNotReady = errors.New("the blockchain network didn't become ready")

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if err != errNetworkNotReady {
			logrus.Errorf("An error occurred running the Mina network waiter:")
			fmt.Fprintln(logrus.StandardLogger().Out, err)
		}
		os.Exit(failureExitCode)
	}
	os.Exit(successExitCode)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mina-network-waiter",
		Short: "Blocks until a Mina daemon reports that it is synced",
		Long: `Polls the sync status of a Mina daemon over its GraphQL API until the daemon
reports SYNCED, or gives up once the maximum number of attempts has been made.

Inputs are read from the action inputs (INPUT_MINA-GRAPHQL-PORT, INPUT_MAX-ATTEMPTS,
INPUT_POLLING-INTERVAL-MS), then from the params file, then from flags; later sources win.

Exit codes:
  0 - The network is ready
  1 - The network never became ready, or the inputs couldn't be read`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runWaiter,
	}

	flags := rootCmd.Flags()
	flags.String(minaGraphQLHostFlag, defaultMinaGraphQLHost, "host the Mina daemon GraphQL server listens on")
	flags.String(module_io.MinaGraphQLPortInputName, "", "port the Mina daemon GraphQL server listens on")
	flags.String(module_io.MaxAttemptsInputName, "", "maximum number of sync status checks before giving up")
	flags.String(module_io.PollingIntervalMsInputName, "", "milliseconds to wait after each check that didn't report SYNCED")
	flags.String(module_io.LogLevelInputName, "", "log level (trace, debug, info, warn, error); defaults to info")
	flags.String(paramsFileFlag, "", "path to a YAML file with any of the inputs above")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mina-network-waiter %s\n", version)
		},
	})
	return rootCmd
}

func runWaiter(cmd *cobra.Command, args []string) error {
	inputs, err := resolveRawInputs(cmd)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred resolving the waiter inputs")
	}
	if err := module_io.SetLogLevel(inputs.LogLevel); err != nil {
		return stacktrace.Propagate(err, "An error occurred setting the log level")
	}

	host, _ := cmd.Flags().GetString(minaGraphQLHostFlag)
	params := module_io.BuildWaiterParams(inputs)
	logger := logrus.StandardLogger()

	client := graphql_client.NewMinaGraphQLClient(host, params.MinaGraphQLPort)
	failureReporter := action_io.NewFailureReporter(cmd.OutOrStdout(), action_io.IsRunningInActions(), logger)
	waiter := availability_waiter.NewNetworkReadinessWaiter(client, logger, failureReporter.ReportFailure)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := waiter.WaitForNetworkReadiness(ctx, params)
	if !result.IsReady() || failureReporter.HasFailed() {
		return errNetworkNotReady
	}
	return nil
}
