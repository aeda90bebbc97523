package trending

import "errors"

var (
	errMissingPanelStore = errors.New("trending: panel store not configured")
	errMissingDataSource = errors.New("trending: data source not configured")
	errPanelIDRequired   = errors.New("trending: panel id is required")

	// ErrPanelNotFound is returned when an operation targets an unknown panel.
	ErrPanelNotFound = errors.New("trending: panel not found")
	// ErrStaleRefresh marks a refresh whose result was discarded because a
	// newer filter state superseded it.
	ErrStaleRefresh = errors.New("trending: refresh superseded by newer filter state")
	// ErrInvalidConfiguration is returned for unknown enum values or spans.
	ErrInvalidConfiguration = errors.New("trending: invalid panel configuration")
	// ErrNoDragInProgress is returned by drag operations without BeginDrag.
	ErrNoDragInProgress = errors.New("trending: no drag in progress")
	// ErrNoResizeInProgress is returned by resize moves without BeginResize.
	ErrNoResizeInProgress = errors.New("trending: no resize in progress")
)

// DefaultErrorMessage is shown when an error carries no user-facing message.
const DefaultErrorMessage = "Something went wrong. Please try again."

// UserMessage returns the human readable message of err. Errors may provide
// one by implementing UserMessage() string; anything else gets the generic
// fallback.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var msg interface{ UserMessage() string }
	if errors.As(err, &msg) {
		if text := msg.UserMessage(); text != "" {
			return text
		}
	}
	return DefaultErrorMessage
}
