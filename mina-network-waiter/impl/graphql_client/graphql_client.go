package graphql_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/kurtosis-tech/stacktrace"
	"github.com/sirupsen/logrus"
	"io/ioutil"
	"net/http"
	"time"
)

type SyncStatus string

const (
	// Only SYNCED means the daemon is ready; the other values the daemon reports
	// (CONNECTING, LISTENING, OFFLINE, BOOTSTRAP, CATCHUP) are passed through as-is
	SyncStatus_Synced SyncStatus = "SYNCED"

	// The response didn't carry data.syncStatus at all
	SyncStatus_Unknown SyncStatus = ""

	syncStatusQuery = "{ syncStatus }"

	graphQLPath = "graphql"

	contentTypeHeader = "Content-Type"
	acceptHeader      = "Accept"
	userAgentHeader   = "User-Agent"
	jsonContentType   = "application/json"
	userAgent         = "mina-network-action"

	graphQLRequestTimeout = 10 * time.Second

	// Statuses at or above this are treated as a failed request and the body is never read
	minFailedRequestStatusCode = 400
)

// Talks to the GraphQL API that the Mina daemon serves on its GraphQL port
type MinaGraphQLClient struct {
	ipAddr     string
	portNum    int
	httpClient *http.Client
}

func NewMinaGraphQLClient(ipAddr string, portNum int) *MinaGraphQLClient {
	return &MinaGraphQLClient{
		ipAddr:  ipAddr,
		portNum: portNum,
		httpClient: &http.Client{
			Timeout: graphQLRequestTimeout,
		},
	}
}

func (client *MinaGraphQLClient) GetURL() string {
	return fmt.Sprintf("http://%v:%v/%v", client.ipAddr, client.portNum, graphQLPath)
}

// Returns an error if the request couldn't be made, the daemon answered with an HTTP error status,
// or the body wasn't JSON. A 2xx/3xx response without data.syncStatus yields SyncStatus_Unknown.
func (client *MinaGraphQLClient) GetSyncStatus(ctx context.Context) (SyncStatus, error) {
	respObj := &GetSyncStatusResponse{}
	if err := client.makeRequest(ctx, syncStatusQuery, respObj); err != nil {
		return SyncStatus_Unknown, stacktrace.Propagate(err, "An error occurred getting the daemon sync status")
	}

	for _, graphQLErr := range respObj.Errors {
		if graphQLErr == nil {
			continue
		}
		logrus.Debugf("The sync status query returned a GraphQL error: %v", graphQLErr.Message)
	}

	if respObj.Data == nil || respObj.Data.SyncStatus == nil {
		return SyncStatus_Unknown, nil
	}
	return SyncStatus(*respObj.Data.SyncStatus), nil
}

// ====================================================================================================
//                                    Private Helper Methods
// ====================================================================================================
func (client *MinaGraphQLClient) makeRequest(ctx context.Context, query string, respObj interface{}) error {
	url := client.GetURL()

	requestBodyObj := &GraphQLRequestBody{
		Query:         query,
		Variables:     nil,
		OperationName: nil,
	}
	requestBodyBytes, err := json.Marshal(requestBodyObj)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred serializing the body of request to URL '%v'", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred creating the request to URL '%v'", url)
	}
	req.Header.Set(contentTypeHeader, jsonContentType)
	req.Header.Set(acceptHeader, jsonContentType)
	req.Header.Set(userAgentHeader, userAgent)

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return stacktrace.Propagate(
			err,
			"An error occurred making the request to URL '%v' with body '%v'",
			url,
			string(requestBodyBytes),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= minFailedRequestStatusCode {
		return stacktrace.NewError("Received failure status code '%v' from URL '%v'", resp.StatusCode, url)
	}

	respBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return stacktrace.Propagate(err, "An error occurred reading the response body bytes")
	}

	logrus.Debugf("Response string from '%v': %v", url, string(respBodyBytes))

	if len(bytes.TrimSpace(respBodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBodyBytes, respObj); err != nil {
		return stacktrace.Propagate(err, "An error occurred deserializing response body string '%v'", string(respBodyBytes))
	}
	return nil
}
