package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/llmgate"
	"github.com/hupe1980/llmgate/core"
)

type chatFlags struct {
	provider  string
	model     string
	system    string
	reasoning bool
	json      bool
}

func newChatCmd(a *app) *cobra.Command {
	var f chatFlags

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Stream one prompt through a provider",
		Long:  "Stream one prompt through a provider. Without arguments, or with \"-\", the prompt is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.chat(cmd, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "provider name from the settings file")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "override the provider's model")
	cmd.Flags().StringVarP(&f.system, "system", "s", "", "system prompt")
	cmd.Flags().BoolVar(&f.reasoning, "reasoning", false, "print reasoning deltas to stderr")
	cmd.Flags().BoolVar(&f.json, "json", false, "print every event as a JSON line")
	return cmd
}

func (a *app) chat(cmd *cobra.Command, f chatFlags, args []string) error {
	cfg, err := a.settings.ChatConfig(f.provider)
	if err != nil {
		return err
	}
	if f.model != "" {
		cfg.Model = f.model
	}

	prompt, err := readPrompt(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	req := core.ChatRequest{
		Config:       cfg,
		SystemPrompt: f.system,
		Messages:     []core.Message{core.NewTextMessage(core.RoleUser, prompt)},
	}

	gate := llmgate.New(func(o *llmgate.Options) {
		o.Logger = a.logger
		o.HTTPClient = a.httpClient
	})
	defer gate.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &renderer{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), reasoning: f.reasoning}
	sink := r.render
	var lines *jsonLines
	if f.json {
		lines = &jsonLines{enc: json.NewEncoder(cmd.OutOrStdout()), onError: cancel}
		sink = lines.write
	}

	_, err = gate.Stream(ctx, req, sink)
	if lines != nil && lines.err != nil {
		return lines.err
	}
	if errors.Is(err, core.ErrCancelled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "\ncancelled")
		return nil
	}
	return err
}

func readPrompt(in io.Reader, args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt != "" && prompt != "-" {
		return prompt, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt = strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("empty prompt")
	}
	return prompt, nil
}

// jsonLines encodes events one per line. The first write error is kept and
// stops the request through onError.
type jsonLines struct {
	enc     *json.Encoder
	onError func()
	err     error
}

func (j *jsonLines) write(ev core.StreamEvent) {
	if j.err != nil {
		return
	}
	if err := j.enc.Encode(ev); err != nil {
		j.err = fmt.Errorf("write event: %w", err)
		if j.onError != nil {
			j.onError()
		}
	}
}

type renderer struct {
	out       io.Writer
	errOut    io.Writer
	reasoning bool
}

func (r *renderer) render(ev core.StreamEvent) {
	switch ev.Kind {
	case core.EventText:
		fmt.Fprint(r.out, ev.Content)
	case core.EventReasoning:
		if r.reasoning {
			fmt.Fprint(r.errOut, ev.Content)
		}
	case core.EventToolCall:
		args, _ := json.Marshal(ev.ToolCall.Arguments)
		fmt.Fprintf(r.out, "\n[tool_call %s] %s(%s)\n", ev.ToolCall.ID, ev.ToolCall.Name, args)
	case core.EventDone:
		fmt.Fprintln(r.out)
		if u := ev.Usage; u != nil {
			fmt.Fprintf(r.errOut, "tokens: in=%d out=%d total=%d\n", u.InputTokens, u.OutputTokens, u.TotalTokens)
		}
	case core.EventError:
		fmt.Fprintln(r.out)
	}
}
