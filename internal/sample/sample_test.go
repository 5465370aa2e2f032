package sample

import (
	"context"
	"testing"
	"time"

	"github.com/hanpama/routegraph/internal/buildctx"
	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/metadata"
	"github.com/hanpama/routegraph/internal/pubsub"
	"github.com/hanpama/routegraph/internal/request"
	"github.com/hanpama/routegraph/internal/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, engine pubsub.Engine) (*resolve.Engine, *resolve.Operations, *metadata.Graph) {
	t.Helper()
	s := metadata.NewStorage()
	Register(s)
	g, err := s.Build()
	require.NoError(t, err)

	bc := buildctx.New()
	require.NoError(t, bc.Create(buildctx.Options{
		DefaultContainer: Container(NewCatalogue(Seed()...)),
		Router:           Router(),
		PubSub:           engine,
	}))
	e := resolve.New(bc)
	ops, err := e.BindRoutes(g)
	require.NoError(t, err)
	return e, ops, g
}

func invoke(t *testing.T, ops *resolve.Operations, kind language.Operation, name string, ctx context.Context, root any, args map[string]any) (any, error) {
	t.Helper()
	fn, ok := ops.Resolver(kind, name)
	require.True(t, ok)
	info := &request.Info{FieldName: name, ParentType: language.RootTypeName(kind), Path: language.Path{language.PathName(name)}}
	return fn(ctx, root, args, info)
}

func TestRegisterBuilds(t *testing.T) {
	_, ops, g := setup(t, nil)
	obj := g.ObjectType(recipeType)
	require.NotNil(t, obj)
	assert.NotNil(t, obj.Field("Similar"), "external field resolver synthesizes its field")
	assert.Len(t, ops.Resolvers[language.Query], 3)
	assert.Len(t, ops.Resolvers[language.Mutation], 2)
	assert.Contains(t, ops.Sources, "recipeAdded")
}

func TestQueries(t *testing.T) {
	_, ops, _ := setup(t, nil)
	ctx := context.Background()

	res, err := invoke(t, ops, language.Query, "version", ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", res)

	res, err = invoke(t, ops, language.Query, "recipes", ctx, nil, map[string]any{"limit": 2})
	require.NoError(t, err)
	assert.Len(t, res, 2)

	_, err = invoke(t, ops, language.Query, "recipe", ctx, nil, map[string]any{"title": "Pancakes"})
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestAddRecipeNotifiesSubscribers(t *testing.T) {
	engine := pubsub.NewMemory()
	_, ops, _ := setup(t, engine)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := ops.Sources["recipeAdded"](ctx, nil, nil, &request.Info{FieldName: "recipeAdded", ParentType: "Subscription"})
	require.NoError(t, err)

	withUser := request.WithValues(ctx, map[string]any{"user": "ada"})
	res, err := invoke(t, ops, language.Mutation, "addRecipe", withUser, nil, map[string]any{
		"input": map[string]any{"title": "Pea Soup", "description": "Fresh"},
	})
	require.NoError(t, err)
	added := res.(*Recipe)
	assert.Equal(t, "Fresh by ada", added.Description)

	select {
	case payload := <-stream:
		res, err := invoke(t, ops, language.Subscription, "recipeAdded", ctx, payload, nil)
		require.NoError(t, err)
		assert.Same(t, added, res)
	case <-time.After(time.Second):
		t.Fatal("no recipe event")
	}
}

func TestRateValidation(t *testing.T) {
	_, ops, _ := setup(t, nil)
	ctx := context.Background()

	res, err := invoke(t, ops, language.Mutation, "rate", ctx, nil, map[string]any{"title": "Beef Stew", "rating": "4"})
	require.NoError(t, err)
	assert.Equal(t, []int{4}, res.(*Recipe).Ratings)

	_, err = invoke(t, ops, language.Mutation, "rate", ctx, nil, map[string]any{"title": "Beef Stew", "rating": 9})
	var pe *resolve.ParamError
	require.ErrorAs(t, err, &pe)
}

func TestFieldResolvers(t *testing.T) {
	e, _, g := setup(t, nil)
	ctx := context.Background()
	soup := &Recipe{Title: "Tomato Soup", Ratings: []int{4, 5}}

	avg, err := e.FieldResolver(g.FieldResolver(recipeType, "AverageRating"))(ctx, soup, nil, &request.Info{FieldName: "averageRating", ParentType: "Recipe"})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 0.001)

	similar, err := e.FieldResolver(g.FieldResolver(resolverType, "Similar"))(ctx, map[string]any{"title": "Pea Soup"}, nil, &request.Info{FieldName: "similar", ParentType: "Recipe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tomato Soup"}, similar)
}
