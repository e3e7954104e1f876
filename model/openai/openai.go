// Package openai provides a model.Adapter for the OpenAI Chat Completions
// wire protocol: a chunked token stream where tool calls arrive as argument
// fragments keyed by a positional index.
//
// The same adapter serves the custom vendor. An AdapterProfile then remaps
// non-standard fields of OpenAI-compatible endpoints (reasoning delta field,
// max tokens field, tool parameters field, extra body keys) without changing
// the translator.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
	"github.com/hupe1980/llmgate/model"
)

// Adapter wraps the OpenAI Chat Completions API behind model.Adapter.
type Adapter struct {
	client  openai.Client
	cfg     core.ChatConfig
	profile *core.AdapterProfile
	opts    Options
	logger  logging.Logger
}

// New creates an adapter for cfg. SDK retries are disabled; retry policy
// belongs to the caller.
func New(cfg core.ChatConfig, optFns ...func(o *Options)) (*Adapter, error) {
	if cfg.Vendor != core.VendorOpenAI && cfg.Vendor != core.VendorCustom {
		return nil, core.Errorf(core.KindInvalidRequest, "openai adapter cannot serve vendor %q", cfg.Vendor)
	}
	opts := Options{APIKeyHeader: DefaultAPIKeyHeader}
	for _, fn := range optFns {
		fn(&opts)
	}

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
	clientOpts = append(clientOpts, authOptions(cfg, opts.APIKeyHeader)...)
	if cfg.Profile != nil {
		for k, v := range cfg.Profile.Headers {
			clientOpts = append(clientOpts, option.WithHeader(k, v))
		}
	}
	for k, v := range cfg.Headers {
		clientOpts = append(clientOpts, option.WithHeader(k, v))
	}

	return newAdapter(openai.NewClient(clientOpts...), cfg, opts), nil
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client openai.Client, cfg core.ChatConfig, optFns ...func(o *Options)) *Adapter {
	opts := Options{APIKeyHeader: DefaultAPIKeyHeader}
	for _, fn := range optFns {
		fn(&opts)
	}
	return newAdapter(client, cfg, opts)
}

func newAdapter(client openai.Client, cfg core.ChatConfig, opts Options) *Adapter {
	return &Adapter{
		client:  client,
		cfg:     cfg,
		profile: cfg.Profile,
		opts:    opts,
		logger:  logging.With(logging.OrNoOp(opts.Logger), "vendor", string(cfg.Vendor)),
	}
}

// The SDK presents the key as a bearer token. The header style moves it to a
// plain key header, which Azure-style gateways expect.
func authOptions(cfg core.ChatConfig, header string) []option.RequestOption {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.EffectiveAuthStyle() == core.AuthStyleHeader && cfg.Vendor == core.VendorCustom {
		return []option.RequestOption{
			option.WithHeaderDel("Authorization"),
			option.WithHeader(header, cfg.APIKey),
		}
	}
	return []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
}

// Info implements model.Adapter.
func (a *Adapter) Info() model.Info {
	name := string(a.cfg.Vendor)
	if a.profile != nil && a.profile.ID != "" {
		name = a.profile.ID
	}
	return model.Info{
		Vendor:            a.cfg.Vendor,
		Name:              name,
		BaseURL:           a.cfg.BaseURL,
		AuthStyle:         a.cfg.EffectiveAuthStyle(),
		SupportsImages:    a.profile.ImagesSupported(),
		SupportsReasoning: true,
	}
}

// TranslateMessages implements model.Adapter. It returns
// []openai.ChatCompletionMessageParamUnion.
func (a *Adapter) TranslateMessages(systemPrompt string, msgs []core.Message) (any, error) {
	conv := model.Prepare(systemPrompt, msgs, a.logger)
	return buildMessages(conv, a.profile.ImagesSupported()), nil
}

// TranslateTools implements model.Adapter. It returns
// []openai.ChatCompletionToolParam.
func (a *Adapter) TranslateTools(tools []core.ToolDefinition) (any, error) {
	return buildTools(tools), nil
}

// Stream implements model.Adapter.
func (a *Adapter) Stream(ctx context.Context, requestID string, req core.ChatRequest) <-chan core.StreamEvent {
	s := model.NewSession(ctx, requestID, a.cfg.Vendor, a.logger)
	return s.Start(func(s *model.Session) error {
		return a.stream(ctx, s, req)
	})
}

func (a *Adapter) buildParams(req core.ChatRequest) (openai.ChatCompletionNewParams, []option.RequestOption) {
	conv := model.Prepare(req.SystemPrompt, req.Messages, a.logger)
	params := openai.ChatCompletionNewParams{
		Model:    req.Config.Model,
		Messages: buildMessages(conv, a.profile.ImagesSupported()),
		Tools:    buildTools(req.Tools),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if a.opts.Temperature > 0 {
		params.Temperature = openai.Float(a.opts.Temperature)
	}

	var reqOpts []option.RequestOption
	maxTokens := a.opts.MaxCompletionTokens
	if p := a.profile; p != nil {
		if p.MaxTokens > 0 {
			maxTokens = p.MaxTokens
		}
		if p.MaxTokensField != "" && maxTokens > 0 {
			reqOpts = append(reqOpts, option.WithJSONSet(p.MaxTokensField, maxTokens))
			maxTokens = 0
		}
		if p.ParametersField != "" && p.ParametersField != "parameters" {
			for i, t := range req.Tools {
				base := fmt.Sprintf("tools.%d.function.", i)
				reqOpts = append(reqOpts,
					option.WithJSONDel(base+"parameters"),
					option.WithJSONSet(base+p.ParametersField, t.Parameters.JSONSchema()),
				)
			}
		}
		for k, v := range p.ExtraBody {
			reqOpts = append(reqOpts, option.WithJSONSet(k, v))
		}
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(maxTokens)
	}
	return params, reqOpts
}

func (a *Adapter) reasoningField() string {
	if a.profile != nil && a.profile.ReasoningField != "" {
		return a.profile.ReasoningField
	}
	return DefaultReasoningField
}

func (a *Adapter) stream(ctx context.Context, s *model.Session, req core.ChatRequest) error {
	params, reqOpts := a.buildParams(req)
	field := a.reasoningField()

	stream := a.client.Chat.Completions.NewStreaming(ctx, params, reqOpts...)
	defer stream.Close()

	for stream.Next() {
		if s.Cancelled() {
			return nil
		}
		chunk := stream.Current()
		s.Streaming()

		if u := chunk.Usage; u.PromptTokens > 0 || u.CompletionTokens > 0 {
			s.SetUsage(core.Usage{InputTokens: u.PromptTokens, OutputTokens: u.CompletionTokens, TotalTokens: u.TotalTokens})
		}

		for _, ch := range chunk.Choices {
			if ch.Index != 0 {
				continue
			}
			if !a.handleChoice(s, ch, field) {
				return nil
			}
		}
	}
	return stream.Err()
}

func (a *Adapter) handleChoice(s *model.Session, ch openai.ChatCompletionChunkChoice, field string) bool {
	if raw, ok := ch.Delta.JSON.ExtraFields[field]; ok && raw.Raw() != "" {
		var text string
		if err := json.Unmarshal([]byte(raw.Raw()), &text); err == nil {
			if !s.EmitReasoning(text) {
				return false
			}
		}
	}
	if !s.EmitText(ch.Delta.Content) {
		return false
	}
	for _, tc := range ch.Delta.ToolCalls {
		idx := int(tc.Index)
		if tc.ID != "" || tc.Function.Name != "" {
			if !s.BeginToolCall(idx, tc.ID, tc.Function.Name) {
				return false
			}
		}
		if tc.Function.Arguments != "" {
			if !s.AppendToolArgs(idx, tc.Function.Arguments) {
				return false
			}
		}
	}
	s.SetFinishReason(ch.FinishReason)
	return true
}

var _ model.Adapter = (*Adapter)(nil)
