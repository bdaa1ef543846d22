package chat

// RenderEventType identifies the type of render event
type RenderEventType int

const (
	// Streaming events
	RenderEventStreamStart RenderEventType = iota
	RenderEventStreamText
	RenderEventStreamEnd
	RenderEventStreamError

	// UI events
	RenderEventResize
	RenderEventReset
)

func (t RenderEventType) String() string {
	switch t {
	case RenderEventStreamStart:
		return "stream_start"
	case RenderEventStreamText:
		return "stream_text"
	case RenderEventStreamEnd:
		return "stream_end"
	case RenderEventStreamError:
		return "stream_error"
	case RenderEventResize:
		return "resize"
	case RenderEventReset:
		return "reset"
	}
	return "unknown"
}

// RenderEvent represents an event that affects rendering.
// The renderer processes these events to update its document.
type RenderEvent struct {
	Type RenderEventType

	// For streaming text events
	Text string

	// For resize events
	Width  int
	Height int

	// For error events
	Err error
}

// NewStreamStartEvent creates an event for when streaming begins
func NewStreamStartEvent() RenderEvent {
	return RenderEvent{Type: RenderEventStreamStart}
}

// NewStreamTextEvent creates an event for streaming text content
func NewStreamTextEvent(text string) RenderEvent {
	return RenderEvent{
		Type: RenderEventStreamText,
		Text: text,
	}
}

// NewStreamEndEvent creates an event for when streaming ends
func NewStreamEndEvent() RenderEvent {
	return RenderEvent{Type: RenderEventStreamEnd}
}

// NewStreamErrorEvent creates an event for streaming errors
func NewStreamErrorEvent(err error) RenderEvent {
	return RenderEvent{
		Type: RenderEventStreamError,
		Err:  err,
	}
}

// NewResizeEvent creates an event for terminal resize
func NewResizeEvent(width, height int) RenderEvent {
	return RenderEvent{
		Type:   RenderEventResize,
		Width:  width,
		Height: height,
	}
}

// NewResetEvent creates an event that discards all text and widgets
func NewResetEvent() RenderEvent {
	return RenderEvent{Type: RenderEventReset}
}
