package graphql_client

// Will be serialized; null variables and operation name are sent explicitly
type GraphQLRequestBody struct {
	Query         string      `json:"query"`
	Variables     interface{} `json:"variables"`
	OperationName *string     `json:"operationName"`
}

type GetSyncStatusResponse struct {
	Data   *SyncStatusData `json:"data"`
	Errors []*GraphQLError `json:"errors"`
}

type SyncStatusData struct {
	SyncStatus *string `json:"syncStatus"`
}

type GraphQLError struct {
	Message string `json:"message"`
}
