package session

import "time"

// Role identifies the speaker of a chat Message, per spec.md §3.5.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a session's accumulated history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// FinishReason explains why Generate/Stream stopped producing tokens.
type FinishReason string

const (
	FinishStop         FinishReason = "stop"
	FinishLength       FinishReason = "length"
	FinishEOS          FinishReason = "eos"
	FinishStopSequence FinishReason = "stop_sequence"
	FinishCancelled    FinishReason = "cancelled"
	FinishError        FinishReason = "error"
)

// Usage accumulates token and timing counters across a session's turns.
type Usage struct {
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TimeToFirstToken time.Duration `json:"time_to_first_token"`
	TokensPerSecond  float64       `json:"tokens_per_second"`
}

// ResponseFormat optionally requests JSON-Schema-validated output, per
// spec.md §4.7's "Response format validation" clause.
type ResponseFormat struct {
	JSONSchema map[string]any
}

// ChatRequest is one turn's input, per spec.md §4.7.
type ChatRequest struct {
	Messages       []Message
	Options        Options
	ContextPolicy  ContextPolicy // nil uses the session's configured default
	StopSequences  []string
	ResponseFormat *ResponseFormat
}

// ChatResponse is one turn's output.
type ChatResponse struct {
	Message      Message
	Usage        Usage
	FinishReason FinishReason
	RawText      string // set even when ResponseFormat validation fails
	Logprobs     []StepLogprobs
}

// TokenLogprob names one token (by its decoded text) and its
// log-probability, per the teacher's llm.TokenLogprob shape.
type TokenLogprob struct {
	Token   string
	Logprob float32
}

// StepLogprobs reports the sampled token's log-probability and the
// topK alternatives considered at one decode step, per
// Options.TopLogprobs.
type StepLogprobs struct {
	TokenLogprob
	TopLogprobs []TokenLogprob
}

// TokenEvent is pushed to a streaming callback once per emitted token.
type TokenEvent struct {
	Token int
	Text  string
	Done  bool
}

// Options carries per-turn settings whose fields mirror the SessionOptions
// key list in spec.md §6.3. Generate and Stream read only MaxNewTokens,
// TimeoutMS and TopLogprobs from a request's Options; the sampling fields
// (Temperature, TopK, TopP, RepetitionPenalty, RepetitionWindow, Seed,
// Deterministic) are not applied per turn, since sampling uses the
// sampler.Options the Session was constructed with.
type Options struct {
	MaxNewTokens      int
	Temperature       float32
	TopK              int
	TopP              float32
	RepetitionPenalty float32
	RepetitionWindow  int
	Seed              uint64
	Deterministic     bool
	TimeoutMS         int64
	TopLogprobs       int // 0 disables; matches the teacher's req.TopLogprobs
}

// DefaultOptions matches spec.md §6.3's documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxNewTokens:      128,
		Temperature:       0.8,
		TopK:              40,
		TopP:              0.95,
		RepetitionPenalty: 1.0,
		RepetitionWindow:  64,
	}
}
