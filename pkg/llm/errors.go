package llm

import "fmt"

// ProviderError signals a failed call to the model provider: a non-2xx
// response, a transport failure, or a missing API credential.
type ProviderError struct {
	Operation  string // "complete", "embed", "translate"
	StatusCode int    // 0 when the request never reached the provider
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s failed: status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.Operation, e.Message)
}

// ValidationError signals malformed input rejected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}
