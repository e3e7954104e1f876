// Package gemini provides a model.Adapter for the Gemini API: a turn-based
// generation stream where function calls arrive whole inside content parts
// and thoughts are flagged text parts.
package gemini

import (
	"context"
	"net/http"

	"google.golang.org/genai"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
	"github.com/hupe1980/llmgate/model"
)

// Adapter wraps the Gemini API behind model.Adapter.
type Adapter struct {
	client *genai.Client
	cfg    core.ChatConfig
	opts   Options
	logger logging.Logger
}

// New creates an adapter for cfg. The key travels in x-goog-api-key; an
// explicit bearer auth style additionally sends it as Authorization for
// proxies that expect it.
func New(ctx context.Context, cfg core.ChatConfig, optFns ...func(o *Options)) (*Adapter, error) {
	if cfg.Vendor != core.VendorGemini {
		return nil, core.Errorf(core.KindInvalidRequest, "gemini adapter cannot serve vendor %q", cfg.Vendor)
	}
	opts := defaultOptions(optFns)

	headers := http.Header{}
	if cfg.Profile != nil {
		for k, v := range cfg.Profile.Headers {
			headers.Set(k, v)
		}
	}
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	if authStyle(cfg) == core.AuthStyleBearer {
		headers.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: opts.APIVersion,
			Headers:    headers,
		},
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}
	if cfg.Profile != nil && len(cfg.Profile.ExtraBody) > 0 {
		cc.HTTPOptions.ExtraBody = cfg.Profile.ExtraBody
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, core.NewError(core.KindInvalidRequest, "gemini client: "+err.Error(), err)
	}
	return newAdapter(client, cfg, opts), nil
}

// Bearer is opt-in only; the native key header is always sent.
func authStyle(cfg core.ChatConfig) core.AuthStyle {
	if cfg.AuthStyle == core.AuthStyleBearer || (cfg.Profile != nil && cfg.Profile.AuthStyle == core.AuthStyleBearer) {
		return core.AuthStyleBearer
	}
	return core.AuthStyleHeader
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client *genai.Client, cfg core.ChatConfig, optFns ...func(o *Options)) *Adapter {
	return newAdapter(client, cfg, defaultOptions(optFns))
}

func defaultOptions(optFns []func(o *Options)) Options {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

func newAdapter(client *genai.Client, cfg core.ChatConfig, opts Options) *Adapter {
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
		Vendor:            core.VendorGemini,
		Name:              string(core.VendorGemini),
		BaseURL:           a.cfg.BaseURL,
		AuthStyle:         authStyle(a.cfg),
		SupportsImages:    a.cfg.Profile.ImagesSupported(),
		SupportsReasoning: a.opts.IncludeThoughts,
	}
}

// Prompt is the translated form of a conversation.
type Prompt struct {
	SystemInstruction *genai.Content
	Contents          []*genai.Content
}

// TranslateMessages implements model.Adapter. It returns a Prompt.
func (a *Adapter) TranslateMessages(systemPrompt string, msgs []core.Message) (any, error) {
	conv := model.Prepare(systemPrompt, msgs, a.logger)
	return Prompt{
		SystemInstruction: buildSystem(conv.System),
		Contents:          buildContents(conv, a.cfg.Profile.ImagesSupported()),
	}, nil
}

// TranslateTools implements model.Adapter. It returns []*genai.Tool.
func (a *Adapter) TranslateTools(tools []core.ToolDefinition) (any, error) {
	return buildTools(tools), nil
}

// Stream implements model.Adapter.
func (a *Adapter) Stream(ctx context.Context, requestID string, req core.ChatRequest) <-chan core.StreamEvent {
	s := model.NewSession(ctx, requestID, core.VendorGemini, a.logger)
	return s.Start(func(s *model.Session) error {
		return a.stream(ctx, s, req)
	})
}

func (a *Adapter) buildConfig(conv model.Conversation, req core.ChatRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: buildSystem(conv.System),
		Tools:             buildTools(req.Tools),
		MaxOutputTokens:   a.opts.MaxOutputTokens,
	}
	if p := a.cfg.Profile; p != nil && p.MaxTokens > 0 {
		config.MaxOutputTokens = int32(p.MaxTokens)
	}
	if a.opts.Temperature > 0 {
		config.Temperature = genai.Ptr(a.opts.Temperature)
	}
	if a.opts.IncludeThoughts {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}
	return config
}

func (a *Adapter) stream(ctx context.Context, s *model.Session, req core.ChatRequest) error {
	conv := model.Prepare(req.SystemPrompt, req.Messages, a.logger)
	contents := buildContents(conv, a.cfg.Profile.ImagesSupported())
	config := a.buildConfig(conv, req)

	for resp, err := range a.client.Models.GenerateContentStream(ctx, req.Config.Model, contents, config) {
		if err != nil {
			return err
		}
		if s.Cancelled() || !a.handleResponse(s, resp) {
			return nil
		}
	}
	return nil
}

func (a *Adapter) handleResponse(s *model.Session, resp *genai.GenerateContentResponse) bool {
	s.Streaming()
	if u := resp.UsageMetadata; u != nil {
		s.SetUsage(core.Usage{
			InputTokens:  int64(u.PromptTokenCount),
			OutputTokens: int64(u.CandidatesTokenCount),
			TotalTokens:  int64(u.TotalTokenCount),
		})
	}
	if len(resp.Candidates) == 0 {
		return !s.Cancelled()
	}

	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			var ok bool
			switch {
			case part.FunctionCall != nil:
				ok = s.EmitWholeToolCall(part.FunctionCall.ID, part.FunctionCall.Name, part.FunctionCall.Args)
			case part.Thought:
				ok = s.EmitReasoning(part.Text)
			default:
				ok = s.EmitText(part.Text)
			}
			if !ok {
				return false
			}
		}
	}
	s.SetFinishReason(string(cand.FinishReason))
	return true
}

var _ model.Adapter = (*Adapter)(nil)
