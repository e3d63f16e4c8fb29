package availability_waiter

import (
	"context"
	"errors"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/graphql_client"
	"github.com/kurtosis-tech/mina-network-waiter/mina-network-waiter/impl/module_io"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

const (
	testPollingIntervalMs = 100

	expectedRetryMessage = "Blockchain network is not ready yet. Retrying in 0.1 seconds."
)

type syncStatusResponse struct {
	status graphql_client.SyncStatus
	err    error
}

// Replays the scripted responses in order, repeating the last one once the script runs out
type scriptedChecker struct {
	responses []syncStatusResponse
	numCalls  int
}

func (checker *scriptedChecker) GetSyncStatus(ctx context.Context) (graphql_client.SyncStatus, error) {
	idx := checker.numCalls
	if idx >= len(checker.responses) {
		idx = len(checker.responses) - 1
	}
	checker.numCalls++
	response := checker.responses[idx]
	return response.status, response.err
}

type waiterHarness struct {
	waiter         *NetworkReadinessWaiter
	hook           *test.Hook
	sleeps         []time.Duration
	failureReports []string
	clock          time.Time
}

func newWaiterHarness(checker SyncStatusChecker) *waiterHarness {
	logger, hook := test.NewNullLogger()
	harness := &waiterHarness{
		hook:  hook,
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	harness.waiter = NewNetworkReadinessWaiter(checker, logger, func(message string) {
		harness.failureReports = append(harness.failureReports, message)
	})
	harness.waiter.now = func() time.Time {
		return harness.clock
	}
	harness.waiter.sleep = func(ctx context.Context, duration time.Duration) {
		harness.sleeps = append(harness.sleeps, duration)
		harness.clock = harness.clock.Add(duration)
	}
	return harness
}

func (harness *waiterHarness) countMessages(message string) int {
	count := 0
	for _, entry := range harness.hook.AllEntries() {
		if entry.Message == message {
			count++
		}
	}
	return count
}

func newTestParams(maxAttempts int, pollingIntervalMs float64) *module_io.WaiterParams {
	return &module_io.WaiterParams{
		MinaGraphQLPort:   3085,
		MaxAttempts:       maxAttempts,
		PollingIntervalMs: pollingIntervalMs,
	}
}

func TestWaitForNetworkReadiness_SyncedOnFirstAttempt(t *testing.T) {
	checker := &scriptedChecker{responses: []syncStatusResponse{{status: graphql_client.SyncStatus_Synced}}}
	harness := newWaiterHarness(checker)

	result := harness.waiter.WaitForNetworkReadiness(context.Background(), newTestParams(3, testPollingIntervalMs))

	require.True(t, result.IsReady())
	require.Equal(t, 1, checker.numCalls)
	require.Equal(t, 1, result.Attempts)
	require.Empty(t, harness.sleeps)
	require.Empty(t, harness.failureReports)
	require.Equal(t, 0, harness.countMessages(expectedRetryMessage))
	require.Equal(t, 1, harness.countMessages(networkIsReadyMessage))
	require.Equal(t, "Total wait time: .", harness.hook.LastEntry().Message)
}

func TestWaitForNetworkReadiness_EchoesInputs(t *testing.T) {
	checker := &scriptedChecker{responses: []syncStatusResponse{{status: graphql_client.SyncStatus_Synced}}}
	harness := newWaiterHarness(checker)

	harness.waiter.WaitForNetworkReadiness(context.Background(), newTestParams(3, testPollingIntervalMs))

	require.Equal(t, 1, harness.countMessages("mina-graphql-port: 3085"))
	require.Equal(t, 1, harness.countMessages("max-attempts: 3"))
	require.Equal(t, 1, harness.countMessages("polling-interval-ms: 100"))
	require.Equal(t, 1, harness.countMessages("Waiting for the blockchain network readiness."))
}

func TestWaitForNetworkReadiness_SyncedAfterRetries(t *testing.T) {
	checker := &scriptedChecker{responses: []syncStatusResponse{
		{err: errors.New("connection refused")},
		{status: graphql_client.SyncStatus("BOOTSTRAP")},
		{status: graphql_client.SyncStatus_Synced},
	}}
	harness := newWaiterHarness(checker)

	result := harness.waiter.WaitForNetworkReadiness(context.Background(), newTestParams(5, testPollingIntervalMs))

	require.Equal(t, Outcome_Ready, result.Outcome)
	require.Equal(t, 3, checker.numCalls)
	require.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, harness.sleeps)
	require.Equal(t, 2, harness.countMessages(expectedRetryMessage))
	require.Empty(t, harness.failureReports)
	require.Equal(t, 200*time.Millisecond, result.Elapsed)
}

// Every retry condition must behave exactly like a plain NOT_SYNCED status
func TestWaitForNetworkReadiness_RetryConditions(t *testing.T) {
	testCases := map[string]syncStatusResponse{
		"not synced":    {status: graphql_client.SyncStatus("NOT_SYNCED")},
		"unknown":       {status: graphql_client.SyncStatus_Unknown},
		"request error": {err: errors.New("Network Error")},
	}
	for name, response := range testCases {
		t.Run(name, func(t *testing.T) {
			checker := &scriptedChecker{responses: []syncStatusResponse{response}}
			harness := newWaiterHarness(checker)

			result := harness.waiter.WaitForNetworkReadiness(context.Background(), newTestParams(3, testPollingIntervalMs))

			require.Equal(t, Outcome_Failed, result.Outcome)
			require.Equal(t, 3, checker.numCalls)
			require.Equal(t, 3, result.Attempts)
			require.Len(t, harness.sleeps, 3)
			require.Equal(t, 3, harness.countMessages(expectedRetryMessage))
			require.Equal(t, []string{MaxAttemptsReachedMessage}, harness.failureReports)
			require.Equal(t, 0, harness.countMessages(networkIsReadyMessage))
		})
	}
}

func TestWaitForNetworkReadiness_ElapsedIncludesLastSleep(t *testing.T) {
	checker := &scriptedChecker{responses: []syncStatusResponse{{status: graphql_client.SyncStatus("CATCHUP")}}}
	harness := newWaiterHarness(checker)

	result := harness.waiter.WaitForNetworkReadiness(context.Background(), newTestParams(4, 30000))

	require.Equal(t, Outcome_Failed, result.Outcome)
	require.Equal(t, 2*time.Minute, result.Elapsed)
	require.Equal(t, "2 minutes", result.TotalWaitTime)
	require.Equal(t, 4, harness.countMessages("Blockchain network is not ready yet. Retrying in 30 seconds."))
	require.Equal(t, "Total wait time: 2 minutes.", harness.hook.LastEntry().Message)
}

func TestWaitForNetworkReadiness_ElapsedIsRounded(t *testing.T) {
	checker := &scriptedChecker{responses: []syncStatusResponse{{status: graphql_client.SyncStatus_Unknown}}}
	harness := newWaiterHarness(checker)

	// 3 x 1.5s = 4.5s, which rounds to 5
	result := harness.waiter.WaitForNetworkReadiness(context.Background(), newTestParams(3, 1500))

	require.Equal(t, "5 seconds", result.TotalWaitTime)
	require.Equal(t, 3, harness.countMessages("Blockchain network is not ready yet. Retrying in 1.5 seconds."))
}

func TestWaitForNetworkReadiness_NoAttemptsWhenMaxAttemptsBelowOne(t *testing.T) {
	for _, maxAttempts := range []int{0, -1} {
		checker := &scriptedChecker{responses: []syncStatusResponse{{status: graphql_client.SyncStatus_Synced}}}
		harness := newWaiterHarness(checker)

		result := harness.waiter.WaitForNetworkReadiness(context.Background(), newTestParams(maxAttempts, testPollingIntervalMs))

		require.Equal(t, Outcome_Failed, result.Outcome)
		require.Equal(t, 0, checker.numCalls)
		require.Equal(t, 0, result.Attempts)
		require.Empty(t, harness.sleeps)
		require.Equal(t, []string{MaxAttemptsReachedMessage}, harness.failureReports)
	}
}

func TestWaitForNetworkReadiness_StopsWhenCancelled(t *testing.T) {
	checker := &scriptedChecker{responses: []syncStatusResponse{{status: graphql_client.SyncStatus_Unknown}}}
	harness := newWaiterHarness(checker)
	ctx, cancel := context.WithCancel(context.Background())
	harness.waiter.sleep = func(ctx context.Context, duration time.Duration) {
		harness.sleeps = append(harness.sleeps, duration)
		cancel()
	}

	result := harness.waiter.WaitForNetworkReadiness(ctx, newTestParams(10, testPollingIntervalMs))

	require.Equal(t, Outcome_Failed, result.Outcome)
	require.Equal(t, 1, checker.numCalls)
	require.Equal(t, []string{MaxAttemptsReachedMessage}, harness.failureReports)
}

func TestSleepWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleepWithContext(ctx, time.Hour)
	require.True(t, time.Since(start) < time.Minute)

	sleepWithContext(context.Background(), 0)
}

// Runs the waiter against a fake daemon that reports every shape the real one could send back
func TestWaitForNetworkReadiness_AgainstFakeDaemon(t *testing.T) {
	responses := []struct {
		statusCode int
		body       string
	}{
		{http.StatusOK, `{}`},
		{http.StatusOK, `{"errors":[{"message":"Some error"}]}`},
		{http.StatusOK, `{"wrongData":{"wrongKey":"value"}}`},
		{http.StatusInternalServerError, `{"data":{"syncStatus":"NOT_SYNCED"}}`},
		{http.StatusOK, `{"data":{"syncStatus":"NOT_SYNCED"}}`},
		{http.StatusOK, `{"data":{"syncStatus":"SYNCED"}}`},
	}
	numRequests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := responses[numRequests]
		numRequests++
		w.WriteHeader(response.statusCode)
		_, _ = w.Write([]byte(response.body))
	}))
	defer server.Close()

	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	harness := newWaiterHarness(graphql_client.NewMinaGraphQLClient(host, portNum))
	params := newTestParams(len(responses), testPollingIntervalMs)
	params.MinaGraphQLPort = portNum

	result := harness.waiter.WaitForNetworkReadiness(context.Background(), params)

	require.True(t, result.IsReady())
	require.Equal(t, len(responses), numRequests)
	require.Equal(t, len(responses)-1, harness.countMessages(expectedRetryMessage))
	require.Empty(t, harness.failureReports)
}
