package models

// Completion is the outcome of a completion request: either Success or Unrecognized.
type Completion interface {
	isCompletion()
}

// Success carries the assistant message returned by the completion service.
type Success struct {
	Message Message
}

// Unrecognized reports a response whose shape did not contain an assistant message.
type Unrecognized struct {
	Reason string
}

func (Success) isCompletion()      {}
func (Unrecognized) isCompletion() {}

// Reply resolves a completion to the assistant message that goes into the transcript.
func Reply(c Completion) Message {
	switch c := c.(type) {
	case Success:
		return c.Message
	case Unrecognized:
		return NewAssistantMessage(FallbackReply)
	default:
		return NewAssistantMessage(FallbackReply)
	}
}
