package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/internal/testutil"
	"github.com/hupe1980/llmgate/model"
	"github.com/hupe1980/llmgate/model/anthropic"
	"github.com/hupe1980/llmgate/model/openai"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, testutil.LeakOptions()...)
}

func countingFactory(n *atomic.Int64) Factory {
	return func(_ context.Context, cfg core.ChatConfig, _ Deps) (model.Adapter, error) {
		n.Add(1)
		return model.NewMockAdapter(cfg.Vendor), nil
	}
}

func TestGet_ReusesAdapterForSameConfig(t *testing.T) {
	var built atomic.Int64
	r := New(WithFactory(core.VendorOpenAI, countingFactory(&built)))

	cfg := core.ChatConfig{Vendor: core.VendorOpenAI, Model: "gpt-4o", APIKey: "k1"}
	a1, err := r.Get(context.Background(), cfg)
	require.NoError(t, err)

	// The model is not part of the connection identity.
	cfg.Model = "gpt-4o-mini"
	a2, err := r.Get(context.Background(), cfg)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.EqualValues(t, 1, built.Load())
	assert.Equal(t, 1, r.Len())
}

func TestGet_DifferentCredentialBuildsNewAdapter(t *testing.T) {
	var built atomic.Int64
	r := New(WithFactory(core.VendorOpenAI, countingFactory(&built)))

	a1, err := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "k1"})
	require.NoError(t, err)
	a2, err := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "k2"})
	require.NoError(t, err)
	a3, err := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "k1", BaseURL: "http://proxy"})
	require.NoError(t, err)

	assert.NotSame(t, a1, a2)
	assert.NotSame(t, a1, a3)
	assert.EqualValues(t, 3, built.Load())
	assert.Equal(t, 3, r.Len())
}

func TestGet_ProfileBodyIsPartOfIdentity(t *testing.T) {
	var built atomic.Int64
	r := New(WithFactory(core.VendorCustom, countingFactory(&built)))

	noImages := false
	cfgA := core.ChatConfig{Vendor: core.VendorCustom, Model: "m", BaseURL: "http://proxy", APIKey: "k",
		Profile: &core.AdapterProfile{ID: "p", ExtraBody: map[string]any{"enable_thinking": true}}}
	cfgB := cfgA
	cfgB.Profile = &core.AdapterProfile{ID: "p", ExtraBody: map[string]any{"enable_thinking": false}, SupportsImages: &noImages}
	cfgC := cfgA
	cfgC.Profile = &core.AdapterProfile{ID: "p", ExtraBody: map[string]any{"enable_thinking": true}, SupportsImages: &noImages}

	a, err := r.Get(context.Background(), cfgA)
	require.NoError(t, err)
	b, err := r.Get(context.Background(), cfgB)
	require.NoError(t, err)
	c, err := r.Get(context.Background(), cfgC)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, b, c)
	assert.EqualValues(t, 3, built.Load())
}

func TestGet_BuiltInFactories(t *testing.T) {
	r := New()

	a, err := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorAnthropic, Model: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Adapter{}, a)
	assert.Equal(t, core.VendorAnthropic, a.Info().Vendor)

	c, err := r.Get(context.Background(), core.ChatConfig{
		Vendor:  core.VendorCustom,
		Model:   "deepseek-chat",
		APIKey:  "k",
		BaseURL: "http://localhost:9999/v1",
		Profile: &core.AdapterProfile{ID: "deepseek"},
	})
	require.NoError(t, err)
	assert.IsType(t, &openai.Adapter{}, c)
	assert.Equal(t, core.AuthStyleBearer, c.Info().AuthStyle)

	g, err := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorGemini, Model: "gemini-2.5-flash", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, core.VendorGemini, g.Info().Vendor)

	assert.Equal(t, []core.Vendor{core.VendorAnthropic, core.VendorCustom, core.VendorGemini, core.VendorOpenAI}, r.Vendors())
}

func TestGet_InvalidConfig(t *testing.T) {
	var built atomic.Int64
	r := New(WithFactory(core.VendorOpenAI, countingFactory(&built)))

	tests := []struct {
		name string
		cfg  core.ChatConfig
	}{
		{"unknown vendor", core.ChatConfig{Vendor: "cohere", Model: "m"}},
		{"missing model", core.ChatConfig{Vendor: core.VendorOpenAI}},
		{"custom without profile", core.ChatConfig{Vendor: core.VendorCustom, Model: "m", BaseURL: "http://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Get(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidRequest)
		})
	}
	assert.Zero(t, built.Load())
	assert.Zero(t, r.Len())
}

func TestGet_FactoryErrorIsClassified(t *testing.T) {
	boom := errors.New("boom")
	r := New(WithFactory(core.VendorOpenAI, func(context.Context, core.ChatConfig, Deps) (model.Adapter, error) {
		return nil, boom
	}))

	_, err := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, r.Len())
}

func TestRegister_ExtraVendor(t *testing.T) {
	r := New()
	r.Register("mock", func(_ context.Context, cfg core.ChatConfig, _ Deps) (model.Adapter, error) {
		return model.NewMockAdapter(cfg.Vendor), nil
	})
	require.True(t, r.Supports("mock"))

	a, err := r.Get(context.Background(), core.ChatConfig{Vendor: "mock", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, core.Vendor("mock"), a.Info().Vendor)
}

func TestGet_ConcurrentMissesCollapse(t *testing.T) {
	var built atomic.Int64
	release := make(chan struct{})
	r := New(WithFactory(core.VendorOpenAI, func(_ context.Context, cfg core.ChatConfig, _ Deps) (model.Adapter, error) {
		built.Add(1)
		<-release
		return model.NewMockAdapter(cfg.Vendor), nil
	}))

	cfg := core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "k"}

	const n = 16
	var wg sync.WaitGroup
	results := make([]model.Adapter, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := r.Get(context.Background(), cfg)
			assert.NoError(t, err)
			results[i] = a
		}(i)
	}

	// Let the callers pile up behind the first construction.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, built.Load())
	for _, a := range results {
		assert.Same(t, results[0], a)
	}
}

func TestGet_DifferentKeysDoNotBlockEachOther(t *testing.T) {
	release := make(chan struct{})
	r := New(WithFactory(core.VendorOpenAI, func(_ context.Context, cfg core.ChatConfig, _ Deps) (model.Adapter, error) {
		if cfg.APIKey == "slow" {
			<-release
		}
		return model.NewMockAdapter(cfg.Vendor), nil
	}))

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		_, _ = r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "slow"})
	}()

	fast := make(chan error, 1)
	go func() {
		_, err := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "fast"})
		fast <- err
	}()

	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("fast lookup blocked behind slow construction")
	}

	close(release)
	<-slowDone
	assert.Equal(t, 2, r.Len())
}

func TestClear(t *testing.T) {
	var built atomic.Int64
	r := New(WithFactory(core.VendorOpenAI, countingFactory(&built)))
	cfg := core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "k"}

	a1, err := r.Get(context.Background(), cfg)
	require.NoError(t, err)

	r.Clear()
	assert.Zero(t, r.Len())

	a2, err := r.Get(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotSame(t, a1, a2)
	assert.EqualValues(t, 2, built.Load())
}

func TestClear_InFlightConstructionNotCached(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := New(WithFactory(core.VendorOpenAI, func(_ context.Context, cfg core.ChatConfig, _ Deps) (model.Adapter, error) {
		close(started)
		<-release
		return model.NewMockAdapter(cfg.Vendor), nil
	}))

	done := make(chan model.Adapter, 1)
	go func() {
		a, _ := r.Get(context.Background(), core.ChatConfig{Vendor: core.VendorOpenAI, Model: "m", APIKey: "k"})
		done <- a
	}()

	<-started
	r.Clear()
	close(release)

	assert.NotNil(t, <-done, "caller still receives its adapter")
	assert.Zero(t, r.Len())
}
