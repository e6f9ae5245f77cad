package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nullstep/smq/executor"
	"github.com/nullstep/smq/internal/telemetry"
	"github.com/nullstep/smq/kvcache"
	"github.com/nullstep/smq/sampler"
	"github.com/nullstep/smq/tokenizer"
)

// Session wraps an executor.ExecutionContext plus tokenizer and sampler
// state across turns, per spec.md §4.7. It is owned by a single logical
// caller; concurrent invocations on the same Session are a programmer
// error (spec.md §3.5), not guarded against internally.
type Session struct {
	ID string

	ec   *executor.ExecutionContext
	tok  *tokenizer.Tokenizer
	samp *sampler.State

	store         *kvcache.SessionStore // nil disables per-session budget enforcement
	perSessionMax int64

	systemPrompt *Message
	history      []Message
	usage        Usage

	defaultPolicy ContextPolicy
	cachedTokens  []int // tokens already fed into ec's cache, in order

	sink telemetry.Sink
}

// New constructs a Session bound to an already-configured execution
// context and tokenizer. store may be nil to skip budget enforcement
// (e.g. a single-session embedding with no multi-tenant limits).
func New(id string, ec *executor.ExecutionContext, tok *tokenizer.Tokenizer, sampOpts sampler.Options, store *kvcache.SessionStore, perSessionMax int64, policy ContextPolicy, sink telemetry.Sink) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if policy == nil {
		policy = KeepAllPolicy{}
	}
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	return &Session{
		ID:            id,
		ec:            ec,
		tok:           tok,
		samp:          sampler.NewState(sampOpts),
		store:         store,
		perSessionMax: perSessionMax,
		defaultPolicy: policy,
		sink:          sink,
	}
}

// SetSystemPrompt pins the system prompt at the head of every future
// context selection, replacing any previous one. No method removes it;
// Reset keeps it.
func (s *Session) SetSystemPrompt(content string) {
	s.systemPrompt = &Message{Role: RoleSystem, Content: content, Timestamp: time.Now()}
}

// Reset clears history and releases the session's cache, but the system
// prompt (if any) is preserved across the reset per spec.md §3.5 and must
// be explicitly replaced by a fresh SetSystemPrompt call if desired.
func (s *Session) Reset() {
	s.history = nil
	s.cachedTokens = nil
	s.usage = Usage{}
	s.ec.Reset()
}

// Info reports accumulated usage and identity, per spec.md §6.3's
// Session::info().
type Info struct {
	ID    string
	Usage Usage
}

func (s *Session) Info() Info {
	return Info{ID: s.ID, Usage: s.usage}
}

func (s *Session) countTokens(text string) int {
	ids, err := s.tok.Encode(text)
	if err != nil {
		return 0
	}
	return len(ids)
}

// Generate runs one full turn: appends req.Messages to history, selects
// context via policy, prefills/continues the cache, then decodes until a
// stop condition, per spec.md §4.7's turn cycle.
func (s *Session) Generate(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	return s.run(ctx, req, nil)
}

// Stream behaves like Generate but additionally invokes onToken once per
// emitted token (spec.md §4.7 point 5: "each emitted token is also
// surfaced to the caller via a push-style callback/iterator").
func (s *Session) Stream(ctx context.Context, req ChatRequest, onToken func(TokenEvent)) (ChatResponse, error) {
	return s.run(ctx, req, onToken)
}

func (s *Session) run(ctx context.Context, req ChatRequest, onToken func(TokenEvent)) (ChatResponse, error) {
	s.history = append(s.history, req.Messages...)

	policy := req.ContextPolicy
	if policy == nil {
		policy = s.defaultPolicy
	}
	selected := policy.Select(s.systemPrompt, s.history, s.countTokens)

	promptTokens, err := s.tok.Encode(renderPrompt(selected))
	if err != nil {
		return ChatResponse{}, err
	}

	promptResult, err := s.feedPrompt(ctx, promptTokens)
	if err != nil {
		return ChatResponse{}, err
	}

	if err := s.enforceBudget(); err != nil {
		return ChatResponse{}, err
	}

	opts := req.Options
	maxNew := opts.MaxNewTokens
	if maxNew <= 0 {
		maxNew = DefaultOptions().MaxNewTokens
	}

	var deadline <-chan struct{}
	if opts.TimeoutMS > 0 {
		timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.TimeoutMS)*time.Millisecond)
		defer cancel()
		ctx = timeoutCtx
		deadline = ctx.Done()
	}

	logits := promptResult.Logits
	generatedIDs := make([]int, 0, maxNew)
	var stepLogprobs []StepLogprobs
	finish := FinishLength
	completionStart := time.Now()
	var ttft time.Duration

	for i := 0; i < maxNew; i++ {
		select {
		case <-ctx.Done():
			finish = FinishCancelled
			goto done
		default:
		}
		if deadline != nil {
			select {
			case <-deadline:
				finish = FinishCancelled
				goto done
			default:
			}
		}

		var tok int
		var err error
		if opts.TopLogprobs > 0 {
			var lp []sampler.Logprob
			tok, lp, err = s.samp.SampleWithLogprobs(logits, opts.TopLogprobs)
			if err == nil {
				stepLogprobs = append(stepLogprobs, s.toStepLogprobs(tok, lp))
			}
		} else {
			tok, err = s.samp.Sample(logits)
		}
		if err != nil {
			return ChatResponse{}, err
		}
		generatedIDs = append(generatedIDs, tok)

		if onToken != nil {
			onToken(TokenEvent{Token: tok, Text: s.tok.DecodeLossy([]int{tok})})
		}

		if s.isEOS(tok) {
			finish = FinishEOS
			goto done
		}
		if seq, ok := matchesStopSequence(s.tok.DecodeLossy(generatedIDs), req.StopSequences); ok {
			_ = seq
			finish = FinishStopSequence
			goto done
		}

		dr, err := s.ec.Decode(ctx, tok)
		if err != nil {
			return ChatResponse{}, err
		}
		s.cachedTokens = append(s.cachedTokens, tok)
		if i == 0 {
			ttft = dr.Metrics.TimeToFirstToken
		}
		logits = dr.Logits
	}

done:
	if onToken != nil {
		onToken(TokenEvent{Done: true})
	}

	text := s.tok.DecodeLossy(generatedIDs)
	resp := ChatResponse{
		Message:      Message{Role: RoleAssistant, Content: text, Timestamp: time.Now()},
		FinishReason: finish,
		RawText:      text,
		Logprobs:     stepLogprobs,
	}

	if req.ResponseFormat != nil && req.ResponseFormat.JSONSchema != nil {
		if err := ValidateJSON(text, req.ResponseFormat.JSONSchema); err != nil {
			return resp, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}

	s.history = append(s.history, resp.Message)
	s.usage.PromptTokens += promptResult.ProcessedTokens
	s.usage.CompletionTokens += len(generatedIDs)
	if ttft > 0 {
		s.usage.TimeToFirstToken = ttft
	}
	elapsed := time.Since(completionStart)
	if elapsed > 0 && len(generatedIDs) > 0 {
		s.usage.TokensPerSecond = float64(len(generatedIDs)) / elapsed.Seconds()
	}
	resp.Usage = s.usage

	return resp, nil
}

// feedPrompt reuses the cache across turns: if promptTokens extends the
// previously cached token sequence, only the new suffix is fed via
// ContinueWithTokens; otherwise (first turn, or the selection diverged
// from cache history, e.g. due to cropping) a full Prefill runs.
func (s *Session) feedPrompt(ctx context.Context, promptTokens []int) (executor.PrefillResult, error) {
	common := commonPrefixLen(s.cachedTokens, promptTokens)

	if s.ec.Cache() != nil && common == len(s.cachedTokens) && common < len(promptTokens) {
		result, err := s.ec.ContinueWithTokens(ctx, promptTokens[common:])
		if err != nil {
			return executor.PrefillResult{}, err
		}
		s.cachedTokens = promptTokens
		return result, nil
	}

	s.ec.AllowPrefillReset = true
	result, err := s.ec.Prefill(ctx, promptTokens)
	if err != nil {
		return executor.PrefillResult{}, err
	}
	s.cachedTokens = promptTokens[len(promptTokens)-result.ProcessedTokens:]
	return result, nil
}

func (s *Session) enforceBudget() error {
	if s.store == nil {
		return nil
	}
	cache := s.ec.Cache()
	if cache == nil {
		return nil
	}
	if s.perSessionMax > 0 && cache.SizeBytes() > s.perSessionMax {
		s.sink.Emit(telemetry.Event{
			Kind:   "KvCacheBudgetExceeded",
			Fields: map[string]any{"session_id": s.ID, "size_bytes": cache.SizeBytes(), "limit": s.perSessionMax},
		})
		return fmt.Errorf("%w: %d > %d", ErrBudgetExceeded, cache.SizeBytes(), s.perSessionMax)
	}
	if err := s.store.Put(s.ID, cache); err != nil {
		s.sink.Emit(telemetry.Event{
			Kind:   "KvCacheBudgetExceeded",
			Fields: map[string]any{"session_id": s.ID},
		})
		return fmt.Errorf("%w: %v", ErrBudgetExceeded, err)
	}
	return nil
}

func (s *Session) toStepLogprobs(sampled int, lp []sampler.Logprob) StepLogprobs {
	top := make([]TokenLogprob, 0, len(lp))
	var sampledLogprob float32
	for _, e := range lp {
		tl := TokenLogprob{Token: s.tok.DecodeLossy([]int{e.Token}), Logprob: e.Logprob}
		top = append(top, tl)
		if e.Token == sampled {
			sampledLogprob = e.Logprob
		}
	}
	return StepLogprobs{
		TokenLogprob: TokenLogprob{Token: s.tok.DecodeLossy([]int{sampled}), Logprob: sampledLogprob},
		TopLogprobs:  top,
	}
}

func (s *Session) isEOS(tok int) bool {
	eos, ok := s.tok.EOSToken()
	return ok && tok == eos
}

func commonPrefixLen(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func matchesStopSequence(text string, stops []string) (string, bool) {
	for _, s := range stops {
		if s == "" {
			continue
		}
		if hasSuffixFold(text, s) {
			return s, true
		}
	}
	return "", false
}

func hasSuffixFold(s, suffix string) bool {
	if len(suffix) > len(s) {
		return false
	}
	return strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
