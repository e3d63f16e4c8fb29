package action_io

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"strings"
)

const (
	inputEnvVarPrefix = "INPUT_"

	runningInActionsEnvVar   = "GITHUB_ACTIONS"
	runningInActionsEnvValue = "true"

	errorCommand = "::error::"
)

// Same escaping the runner expects for workflow command data
var commandDataEscaper = strings.NewReplacer(
	"%", "%25",
	"\r", "%0D",
	"\n", "%0A",
)

// Reads an action input the way the runner exposes them: INPUT_<NAME> with the name upper-cased
// and spaces replaced by underscores. Missing inputs read as the empty string.
func GetInput(name string) string {
	envVarName := inputEnvVarPrefix + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return strings.TrimSpace(os.Getenv(envVarName))
}

func IsRunningInActions() bool {
	return os.Getenv(runningInActionsEnvVar) == runningInActionsEnvValue
}

// Logs the failure and, when running inside an action, also emits an ::error:: workflow command
// so the step gets annotated. The host checks HasFailed to pick its exit code.
type FailureReporter struct {
	commandsOut  io.Writer
	emitCommands bool
	logger       logrus.FieldLogger
	hasFailed    bool
}

func NewFailureReporter(commandsOut io.Writer, emitCommands bool, logger logrus.FieldLogger) *FailureReporter {
	return &FailureReporter{
		commandsOut:  commandsOut,
		emitCommands: emitCommands,
		logger:       logger,
	}
}

func (reporter *FailureReporter) ReportFailure(message string) {
	reporter.hasFailed = true

	reporter.logger.Error(message)
	if reporter.emitCommands {
		fmt.Fprintln(reporter.commandsOut, errorCommand+commandDataEscaper.Replace(message))
	}
}

func (reporter *FailureReporter) HasFailed() bool {
	return reporter.hasFailed
}
