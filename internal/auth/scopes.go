package auth

// Known OAuth scopes used by the reconciler API.
const (
	ScopeRecordsWrite = "records:write"
	ScopeRecordsRead  = "records:read"
)
