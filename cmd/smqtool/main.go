// Command smqtool is a thin example binary wiring package engine end to
// end: load a model container, open one session, run a single turn. It is
// deliberately not a server or a general-purpose CLI (spec.md §1's
// Non-goals) — no request queue, no multi-session management, no REST
// surface. Anything beyond "one model, one prompt, one answer" belongs in
// a caller embedding package engine directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nullstep/smq/engine"
	"github.com/nullstep/smq/internal/telemetry"
	"github.com/nullstep/smq/kernel"
	"github.com/nullstep/smq/session"
)

func main() {
	var (
		modelPath   = flag.String("model", "", "path to an .smq container")
		configPath  = flag.String("config", "", "optional YAML config (engine.LoadConfig)")
		prompt      = flag.String("prompt", "", "user message to send")
		systemMsg   = flag.String("system", "", "optional system prompt")
		maxNew      = flag.Int("max-new-tokens", 0, "override max_new_tokens (0 = config/default)")
		temperature = flag.Float64("temperature", -1, "override temperature (<0 = config/default)")
		stream      = flag.Bool("stream", false, "print tokens as they are produced")
		verbose     = flag.Bool("verbose", false, "emit telemetry events to stderr")
	)
	flag.Parse()

	if *modelPath == "" || *prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: smqtool -model path/to/model.smq -prompt \"...\"")
		os.Exit(2)
	}

	if err := run(*modelPath, *configPath, *prompt, *systemMsg, *maxNew, *temperature, *stream, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "smqtool:", err)
		os.Exit(1)
	}
}

func run(modelPath, configPath, prompt, systemMsg string, maxNew int, temperature float64, stream, verbose bool) error {
	sink := telemetry.Sink(telemetry.NopSink{})
	if verbose {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		sink = telemetry.LogrusSink{Logger: logger}
	}

	engineOpts := engine.DefaultEngineOptions()
	sessOpts := engine.DefaultSessionOptions()
	if configPath != "" {
		var err error
		engineOpts, sessOpts, err = engine.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	if maxNew > 0 {
		sessOpts.MaxNewTokens = maxNew
	}
	if temperature >= 0 {
		sessOpts.Temperature = float32(temperature)
	}

	e, err := engine.New(engineOpts, kernel.Config{}, sink)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	handle, err := e.LoadModel(modelPath)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}

	sess, err := e.CreateSession(handle, sessOpts)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if systemMsg != "" {
		sess.SetSystemPrompt(systemMsg)
	}

	req := session.ChatRequest{
		Messages: []session.Message{{Role: session.RoleUser, Content: prompt}},
	}

	ctx := context.Background()
	var resp session.ChatResponse
	if stream {
		resp, err = sess.Stream(ctx, req, func(ev session.TokenEvent) {
			if !ev.Done {
				fmt.Print(ev.Text)
			}
		})
		fmt.Println()
	} else {
		resp, err = sess.Generate(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if !stream {
		fmt.Println(strings.TrimRight(resp.Message.Content, "\n"))
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "finish_reason=%s prompt_tokens=%d completion_tokens=%d\n",
			resp.FinishReason, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	return nil
}
