// Package anthropic provides a model.Adapter for the Anthropic Messages API:
// server-pushed structured events where tool calls arrive as a tool_use block
// start followed by input_json_delta fragments keyed by block index and an
// explicit block stop.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
	"github.com/hupe1980/llmgate/model"
)

// Adapter wraps the Anthropic Messages API behind model.Adapter.
type Adapter struct {
	client anthropic.Client
	cfg    core.ChatConfig
	opts   Options
	logger logging.Logger
}

// New creates an adapter for cfg. SDK retries are disabled.
//
// The credential is sent as X-Api-Key unless the bearer auth style is
// selected, which is the default for a custom base URL (proxies).
func New(cfg core.ChatConfig, optFns ...func(o *Options)) (*Adapter, error) {
	if cfg.Vendor != core.VendorAnthropic {
		return nil, core.Errorf(core.KindInvalidRequest, "anthropic adapter cannot serve vendor %q", cfg.Vendor)
	}
	opts := defaultOptions(optFns)

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if cfg.APIKey != "" {
		if cfg.EffectiveAuthStyle() == core.AuthStyleBearer {
			clientOpts = append(clientOpts, option.WithHeaderDel("X-Api-Key"), option.WithAuthToken(cfg.APIKey))
		} else {
			clientOpts = append(clientOpts, option.WithHeaderDel("Authorization"), option.WithAPIKey(cfg.APIKey))
		}
	}
	if cfg.Profile != nil {
		for k, v := range cfg.Profile.Headers {
			clientOpts = append(clientOpts, option.WithHeader(k, v))
		}
	}
	for k, v := range cfg.Headers {
		clientOpts = append(clientOpts, option.WithHeader(k, v))
	}

	return newAdapter(anthropic.NewClient(clientOpts...), cfg, opts), nil
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client anthropic.Client, cfg core.ChatConfig, optFns ...func(o *Options)) *Adapter {
	return newAdapter(client, cfg, defaultOptions(optFns))
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{MaxTokens: DefaultMaxTokens}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

func newAdapter(client anthropic.Client, cfg core.ChatConfig, opts Options) *Adapter {
	return &Adapter{
		client: client,
		cfg:    cfg,
		opts:   opts,
		logger: logging.With(logging.OrNoOp(opts.Logger), "vendor", string(cfg.Vendor)),
	}
}

// Info implements model.Adapter.
func (a *Adapter) Info() model.Info {
	return model.Info{
		Vendor:            core.VendorAnthropic,
		Name:              string(core.VendorAnthropic),
		BaseURL:           a.cfg.BaseURL,
		AuthStyle:         a.cfg.EffectiveAuthStyle(),
		SupportsImages:    a.cfg.Profile.ImagesSupported(),
		SupportsReasoning: true,
	}
}

// TranslateMessages implements model.Adapter. It returns a Prompt holding the
// system blocks and []anthropic.MessageParam.
func (a *Adapter) TranslateMessages(systemPrompt string, msgs []core.Message) (any, error) {
	conv := model.Prepare(systemPrompt, msgs, a.logger)
	return Prompt{
		System:   buildSystem(conv.System),
		Messages: buildMessages(conv, a.cfg.Profile.ImagesSupported()),
	}, nil
}

// Prompt is the translated form of a conversation.
type Prompt struct {
	System   []anthropic.TextBlockParam
	Messages []anthropic.MessageParam
}

// TranslateTools implements model.Adapter. It returns []anthropic.ToolUnionParam.
func (a *Adapter) TranslateTools(tools []core.ToolDefinition) (any, error) {
	return buildTools(tools), nil
}

// Stream implements model.Adapter.
func (a *Adapter) Stream(ctx context.Context, requestID string, req core.ChatRequest) <-chan core.StreamEvent {
	s := model.NewSession(ctx, requestID, core.VendorAnthropic, a.logger)
	return s.Start(func(s *model.Session) error {
		return a.stream(ctx, s, req)
	})
}

func (a *Adapter) buildParams(req core.ChatRequest) anthropic.MessageNewParams {
	conv := model.Prepare(req.SystemPrompt, req.Messages, a.logger)

	maxTokens := a.opts.MaxTokens
	if p := a.cfg.Profile; p != nil && p.MaxTokens > 0 {
		maxTokens = p.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Config.Model),
		MaxTokens: maxTokens,
		System:    buildSystem(conv.System),
		Messages:  buildMessages(conv, a.cfg.Profile.ImagesSupported()),
		Tools:     buildTools(req.Tools),
	}
	if a.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(a.opts.Temperature)
	}
	if a.opts.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(a.opts.ThinkingBudget)
	}
	return params
}

func (a *Adapter) requestOptions() []option.RequestOption {
	p := a.cfg.Profile
	if p == nil {
		return nil
	}
	opts := make([]option.RequestOption, 0, len(p.ExtraBody))
	for k, v := range p.ExtraBody {
		opts = append(opts, option.WithJSONSet(k, v))
	}
	return opts
}

func (a *Adapter) stream(ctx context.Context, s *model.Session, req core.ChatRequest) error {
	stream := a.client.Messages.NewStreaming(ctx, a.buildParams(req), a.requestOptions()...)
	defer stream.Close()

	for stream.Next() {
		if s.Cancelled() {
			return nil
		}
		if !a.handleEvent(s, stream.Current()) {
			return nil
		}
	}
	return stream.Err()
}

func (a *Adapter) handleEvent(s *model.Session, ev anthropic.MessageStreamEventUnion) bool {
	s.Streaming()
	idx := int(ev.Index)

	switch ev.Type {
	case "message_start":
		u := ev.Message.Usage
		s.SetUsage(core.Usage{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens})
	case "content_block_start":
		switch ev.ContentBlock.Type {
		case "tool_use":
			return s.BeginToolCall(idx, ev.ContentBlock.ID, ev.ContentBlock.Name)
		case "text":
			return s.EmitText(ev.ContentBlock.Text)
		case "thinking":
			return s.EmitReasoning(ev.ContentBlock.Thinking)
		}
	case "content_block_delta":
		switch ev.Delta.Type {
		case "text_delta":
			return s.EmitText(ev.Delta.Text)
		case "thinking_delta":
			return s.EmitReasoning(ev.Delta.Thinking)
		case "input_json_delta":
			return s.AppendToolArgs(idx, ev.Delta.PartialJSON)
		}
	case "content_block_stop":
		return s.CompleteToolCall(idx)
	case "message_delta":
		s.SetFinishReason(string(ev.Delta.StopReason))
		s.SetUsage(core.Usage{InputTokens: ev.Usage.InputTokens, OutputTokens: ev.Usage.OutputTokens})
	}
	return !s.Cancelled()
}

var _ model.Adapter = (*Adapter)(nil)
