package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrSdkUnavailable signals that the embedding host is not the expected
// low-code platform (e.g. the app is opened in a plain browser). Callers
// treat this as recoverable and fall back to a demo identity.
var ErrSdkUnavailable = errors.New("host platform SDK unavailable")

// ErrActionNotPermitted is raised before any network call when the flow
// registry denies the requested action for a flow. It is never silently
// downgraded to a different action.
var ErrActionNotPermitted = errors.New("action not permitted for flow")

// SdkError is a host-side rejection of an otherwise permitted call.
type SdkError struct {
	StatusCode int
	Message    string
}

func (e *SdkError) Error() string {
	return fmt.Sprintf("host SDK error: status %d: %s", e.StatusCode, e.Message)
}

// Identity describes the platform user on whose behalf the chat runs.
type Identity struct {
	UserId      string `json:"user_id"`
	AccountId   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// RecordResult is the outcome of a workflow record creation.
type RecordResult struct {
	RecordId           string `json:"record_id"`
	ActivityInstanceId string `json:"activity_instance_id"`
}

// HostGateway wraps the low-code host's capabilities. Availability is
// computed once at startup and cached; it decides whether the system runs
// host-integrated or in standalone demo mode.
type HostGateway interface {
	// IsAvailable reports whether the host platform is reachable. The
	// answer is computed once and cached because host detection can be
	// slow or flaky.
	IsAvailable() bool

	// GetIdentity returns the platform user, or ErrSdkUnavailable.
	GetIdentity(ctx context.Context) (*Identity, error)

	// CreateRecord starts a workflow record for the flow. The flow
	// registry's CREATE permission is checked before any network call.
	CreateRecord(ctx context.Context, flowKey string, fields map[string]string) (*RecordResult, error)

	// QueryDataset runs a read-only filtered lookup against a host dataset.
	QueryDataset(ctx context.Context, datasetRef string, filter map[string]string, limit int) ([]map[string]interface{}, error)

	// OpenRecordPopup navigates the host UI to a record popup. Failures are
	// reported as a dismissible notice, never a blocking error, because the
	// underlying record already exists.
	OpenRecordPopup(ctx context.Context, popupRef string, params map[string]string) error
}
