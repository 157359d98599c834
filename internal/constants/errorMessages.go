package constants

const (
	MsgStudioNotFound       = "Studio not found for slug"
	MsgStatusUnavailable    = "Setup status could not be computed"
	MsgRuleRejected         = "Section rule rejected"
	MsgRevalidationDone     = "Setup status revalidated"
	MsgRevalidationSkipped  = "Cached setup status still fresh, skipped revalidation"
)

// Error codes surfaced by the setup services, mapped to HTTP statuses in the API layer
const (
	ErrCodeStudioNotFound  = "STUDIO_NOT_FOUND"
	ErrCodeStoreUnreachable = "STORE_UNREACHABLE"
	ErrCodeRuleInvalid     = "RULE_INVALID"
	ErrCodeDependencyCycle = "DEPENDENCY_CYCLE"
)

var errorMessages = map[string]string{
	ErrCodeStudioNotFound:   "No studio is registered under the requested slug",
	ErrCodeStoreUnreachable: "The data store is unreachable, please retry later",
	ErrCodeRuleInvalid:      "The section rule configuration is invalid",
	ErrCodeDependencyCycle:  "Section rules contain a dependency cycle",
}

// GetErrorMessage returns the user-facing message for an error code
func GetErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An unexpected error occurred"
}
