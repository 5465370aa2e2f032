package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/routegraph/internal/convert"
	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadFile(t *testing.T) {
	cfg, err := Load("testdata/routegraph.yaml")
	require.NoError(t, err)

	assert.Equal(t, "recipes", cfg.Service)
	assert.Equal(t, "timestamp", cfg.Schema.DateScalarMode)
	assert.False(t, cfg.Schema.ValidateArgs)
	assert.Equal(t, []string{"logging"}, cfg.Middlewares.Global)
	assert.Equal(t, 4, cfg.PubSub.Buffer)
	assert.Equal(t, uint32(10), cfg.Breaker.MinRequests)
	assert.Equal(t, 5*time.Second, cfg.Breaker.Timeout)
	assert.Equal(t, 0.8, cfg.Breaker.FailureThreshold)
	require.Len(t, cfg.Routes, 3)
	assert.Equal(t, []string{"breaker"}, cfg.Routes[1].Middlewares)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "routegraph", cfg.Service)
	assert.Equal(t, string(convert.DateISO), cfg.Schema.DateScalarMode)
	assert.True(t, cfg.Schema.ValidateArgs)
	assert.Equal(t, "memory", cfg.PubSub.Backend)
	assert.Empty(t, cfg.Routes)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROUTEGRAPH_LOG_LEVEL", "debug")
	t.Setenv("ROUTEGRAPH_PUBSUB_BACKEND", "redis")
	cfg, err := Load("testdata/routegraph.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "redis", cfg.PubSub.Backend)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("testdata/invalid.yaml")
	assert.ErrorContains(t, err, "routes[0].kind")

	_, err = Load("testdata/missing.yaml")
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestBuildOptions(t *testing.T) {
	cfg, err := Load("testdata/routegraph.yaml")
	require.NoError(t, err)
	store := middleware.NewStore()
	opts := cfg.BuildOptions(store)

	assert.Equal(t, convert.DateTimestamp, opts.DateScalarMode)
	assert.Same(t, store, opts.MiddlewareStore)
	require.NotNil(t, opts.ValidateArgs)
	assert.False(t, *opts.ValidateArgs)
	require.NotNil(t, opts.PubSubConfig)
	assert.Equal(t, 4, opts.PubSubConfig.Buffer)
	require.Len(t, opts.GlobalMiddlewares, 1)
	assert.Equal(t, "logging", opts.GlobalMiddlewares[0].String())
	assert.Nil(t, opts.QueryMiddlewares)
	require.Len(t, opts.MutationMiddlewares, 1)
	assert.Equal(t, middleware.KindNamed, opts.MutationMiddlewares[0].Kind())

	type route struct {
		Kind    language.Operation
		Name    string
		Handler string
		MWs     int
	}
	var got []route
	for _, d := range opts.Router.Definitions() {
		got = append(got, route{d.Kind, d.Name, d.Handler, len(d.Middlewares)})
	}
	want := []route{
		{language.Query, "recipes", "RecipeResolver.Recipes", 0},
		{language.Mutation, "addRecipe", "RecipeResolver.AddRecipe", 1},
		{language.Subscription, "recipeAdded", "RecipeResolver.RecipeAdded", 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
