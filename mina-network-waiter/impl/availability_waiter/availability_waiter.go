package availability_waiter

import (
	"context"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/duration_format"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/graphql_client"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/module_io"
	"github.com/sirupsen/logrus"
	"math"
	"strconv"
	"time"
)

const (
	firstAttempt = 1

	MaxAttemptsReachedMessage = "Maximum network sync attempts reached. The blockchain network is not ready!"
	networkIsReadyMessage     = "Blockchain network is ready to use."

	millisPerSecond = 1000
)

type SyncStatusChecker interface {
	GetSyncStatus(ctx context.Context) (graphql_client.SyncStatus, error)
}

// Called exactly once, with a fixed message, when the network never became ready
type FailureReporter func(message string)

type Outcome string

const (
	Outcome_Ready  Outcome = "READY"
	Outcome_Failed Outcome = "FAILED"
)

type WaitResult struct {
	Outcome Outcome

	// Number of sync status requests that were actually made
	Attempts int

	// Wall-clock time from loop start to loop exit, including the sleep after the last failed attempt
	Elapsed time.Duration

	// Elapsed, rounded to whole seconds and rendered for humans
	TotalWaitTime string
}

func (result *WaitResult) IsReady() bool {
	return result.Outcome == Outcome_Ready
}

type attemptResult int

const (
	attemptResult_Ready attemptResult = iota
	attemptResult_NotReady
	attemptResult_RequestFailed
)

type NetworkReadinessWaiter struct {
	checker       SyncStatusChecker
	logger        logrus.FieldLogger
	reportFailure FailureReporter

	// Overridden in tests
	sleep func(ctx context.Context, duration time.Duration)
	now   func() time.Time
}

func NewNetworkReadinessWaiter(checker SyncStatusChecker, logger logrus.FieldLogger, reportFailure FailureReporter) *NetworkReadinessWaiter {
	return &NetworkReadinessWaiter{
		checker:       checker,
		logger:        logger,
		reportFailure: reportFailure,
		sleep:         sleepWithContext,
		now:           time.Now,
	}
}

// Polls the daemon once per attempt, sleeping params.PollingIntervalMs after every attempt that didn't
// report SYNCED (the last one included), until the daemon is synced or params.MaxAttempts attempts were made.
// Per-attempt errors never escape; only running out of attempts (or a cancelled context) fails the wait.
func (waiter *NetworkReadinessWaiter) WaitForNetworkReadiness(ctx context.Context, params *module_io.WaiterParams) *WaitResult {
	startTime := waiter.now()

	waiter.logger.Info("Action input parameters:")
	waiter.logger.Infof("%v: %v", module_io.MinaGraphQLPortInputName, params.MinaGraphQLPort)
	waiter.logger.Infof("%v: %v", module_io.MaxAttemptsInputName, params.MaxAttempts)
	waiter.logger.Infof("%v: %v", module_io.PollingIntervalMsInputName, formatNumber(params.PollingIntervalMs))
	waiter.logger.Info("Waiting for the blockchain network readiness.")

	pollingInterval := params.GetPollingInterval()
	attemptsMade := 0
	isReady := false
	for attempt := firstAttempt; attempt <= params.MaxAttempts && !isReady; attempt++ {
		if err := ctx.Err(); err != nil {
			waiter.logger.Warnf("Stopped waiting for the blockchain network before attempt %v: %v", attempt, err)
			break
		}

		attemptsMade++
		switch waiter.checkReadiness(ctx, attempt) {
		case attemptResult_Ready:
			isReady = true
		case attemptResult_NotReady, attemptResult_RequestFailed:
			waiter.sleep(ctx, pollingInterval)
			waiter.logger.Infof(
				"Blockchain network is not ready yet. Retrying in %v seconds.",
				formatNumber(params.PollingIntervalMs/millisPerSecond),
			)
		}
	}

	outcome := Outcome_Ready
	if isReady {
		waiter.logger.Info(networkIsReadyMessage)
	} else {
		outcome = Outcome_Failed
		waiter.reportFailure(MaxAttemptsReachedMessage)
	}

	elapsed := waiter.now().Sub(startTime)
	totalWaitTime := duration_format.SecondsToHumanReadable(roundToWholeSeconds(elapsed))
	waiter.logger.Infof("Total wait time: %v.", totalWaitTime)

	return &WaitResult{
		Outcome:       outcome,
		Attempts:      attemptsMade,
		Elapsed:       elapsed,
		TotalWaitTime: totalWaitTime,
	}
}

// ====================================================================================================
//                                    Private Helper Methods
// ====================================================================================================
func (waiter *NetworkReadinessWaiter) checkReadiness(ctx context.Context, attempt int) attemptResult {
	status, err := waiter.checker.GetSyncStatus(ctx)
	if err != nil {
		waiter.logger.Debugf("Attempt %v to get the sync status failed: %v", attempt, err)
		return attemptResult_RequestFailed
	}
	if status != graphql_client.SyncStatus_Synced {
		waiter.logger.Debugf("Attempt %v got sync status '%v'", attempt, status)
		return attemptResult_NotReady
	}
	return attemptResult_Ready
}

func sleepWithContext(ctx context.Context, duration time.Duration) {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func roundToWholeSeconds(elapsed time.Duration) uint64 {
	seconds := math.Round(elapsed.Seconds())
	if seconds < 0 {
		return 0
	}
	return uint64(seconds)
}

// Shortest decimal form, so 100ms is reported as "0.1" and 1000ms as "1"
func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
