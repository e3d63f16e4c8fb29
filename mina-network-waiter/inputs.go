package main

import (
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/action_io"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/module_io"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/spf13/cobra"
)

// Action inputs first, then the params file, then any flag that was explicitly set
func resolveRawInputs(cmd *cobra.Command) (module_io.RawInputs, error) {
	inputs := module_io.RawInputs{
		MinaGraphQLPort:   action_io.GetInput(module_io.MinaGraphQLPortInputName),
		MaxAttempts:       action_io.GetInput(module_io.MaxAttemptsInputName),
		PollingIntervalMs: action_io.GetInput(module_io.PollingIntervalMsInputName),
		LogLevel:          action_io.GetInput(module_io.LogLevelInputName),
	}

	flags := cmd.Flags()
	paramsFilepath, err := flags.GetString(paramsFileFlag)
	if err != nil {
		return module_io.RawInputs{}, stacktrace.Propagate(err, "An error occurred getting the '%v' flag", paramsFileFlag)
	}
	if paramsFilepath != "" {
		fileInputs, err := module_io.LoadRawInputsFile(paramsFilepath)
		if err != nil {
			return module_io.RawInputs{}, stacktrace.Propagate(err, "An error occurred loading the params file")
		}
		inputs = inputs.OverrideWith(fileInputs)
	}

	flagInputs := module_io.RawInputs{}
	flagTargets := map[string]*string{
		module_io.MinaGraphQLPortInputName:   &flagInputs.MinaGraphQLPort,
		module_io.MaxAttemptsInputName:       &flagInputs.MaxAttempts,
		module_io.PollingIntervalMsInputName: &flagInputs.PollingIntervalMs,
		module_io.LogLevelInputName:          &flagInputs.LogLevel,
	}
	for flagName, target := range flagTargets {
		if !flags.Changed(flagName) {
			continue
		}
		value, err := flags.GetString(flagName)
		if err != nil {
			return module_io.RawInputs{}, stacktrace.Propagate(err, "An error occurred getting the '%v' flag", flagName)
		}
		*target = value
	}
	return inputs.OverrideWith(flagInputs), nil
}
