package turn

// InputSource tags the modality of the user input that started a turn.
type InputSource string

const (
	SourceVoice InputSource = "voice"
	SourceText  InputSource = "text"
)

// Sink receives the session's outbound events. Implementations are expected
// to be fast and non-blocking; the engine calls them inline from its
// goroutines. Event order within one turn is part of the contract: the user
// message precedes generation, tokens arrive in production order, audio chunks
// arrive in sentence order, and AudioDone follows the last chunk.
type Sink interface {
	// MessageReceived confirms the recorded user message before generation
	// begins.
	MessageReceived(msg Message, source InputSource)

	// Typing toggles the typing indicator.
	Typing(active bool)

	// Token carries one generated increment, in arrival order.
	Token(text string)

	// MessageComplete carries the full assistant reply once the stream ends.
	MessageComplete(text string)

	// AudioChunk carries synthesized audio for one sentence unit. seq starts
	// at 0 and increments per unit within a turn.
	AudioChunk(data []byte, seq int)

	// AudioDone marks the end of the audio stream for a turn, including
	// turns aborted mid-synthesis.
	AudioDone()

	// SpeechResult carries a transcription. isFinal is false for partial
	// feedback produced while the user is still speaking.
	SpeechResult(text, language string, isFinal bool)

	// Reply is the consolidated full-text event emitted after a completed
	// turn, for clients that do not consume incremental tokens. Never
	// emitted for a superseded turn.
	Reply(text string)

	// TurnAborted marks a turn that stopped because a newer input or an
	// interrupt superseded it. Exactly one of Reply, TurnAborted, or Error
	// closes a turn that reached MessageReceived.
	TurnAborted()

	// Info carries a non-error notification, e.g. "nothing to process".
	Info(message string)

	// Error carries a non-fatal failure notification.
	Error(code, message string)
}
