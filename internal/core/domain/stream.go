package domain

// StreamState is the lifecycle of one streamed answer
type StreamState string

const (
	StreamPending   StreamState = "pending"
	StreamStreaming StreamState = "streaming"
	StreamCompleted StreamState = "completed"
	StreamFailed    StreamState = "failed"
)

// IsTerminal returns true for COMPLETED and FAILED
func (s StreamState) IsTerminal() bool {
	return s == StreamCompleted || s == StreamFailed
}

// ErrorMarkerPrefix starts the text of the terminal error fragment.
const ErrorMarkerPrefix = "\n\n[ERROR] The answer could not be completed"

// Fragment is one piece of generated text delivered to the stream reader.
type Fragment struct {
	Text string

	// IsError marks the single error notice that ends a failed stream.
	IsError bool
}

// ErrorFragment builds the caller-visible notice for a failed stream.
func ErrorFragment(reason string) Fragment {
	text := ErrorMarkerPrefix + "."
	if reason != "" {
		text = ErrorMarkerPrefix + ": " + reason
	}
	return Fragment{Text: text, IsError: true}
}
