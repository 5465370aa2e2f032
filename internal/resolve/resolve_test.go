package resolve

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/routegraph/internal/buildctx"
	"github.com/hanpama/routegraph/internal/container"
	"github.com/hanpama/routegraph/internal/eventbus"
	"github.com/hanpama/routegraph/internal/events"
	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/metadata"
	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/pubsub"
	"github.com/hanpama/routegraph/internal/request"
	"github.com/hanpama/routegraph/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Recipe struct {
	Title   string
	Ratings []int
}

func (r *Recipe) AverageRating() float64 {
	if len(r.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, v := range r.Ratings {
		sum += v
	}
	return float64(sum) / float64(len(r.Ratings))
}

type AddRecipeInput struct {
	Title string `validate:"required,min=3"`
}

var errRecipeNotFound = errors.New("recipe not found")

type RecipeResolver struct{}

func (r *RecipeResolver) Recipes(_ context.Context, limit int) ([]Recipe, error) {
	all := []Recipe{{Title: "Soup", Ratings: []int{4, 5}}, {Title: "Salad"}, {Title: "Stew"}}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *RecipeResolver) Recipe(title string) (*Recipe, error) {
	if title == "" {
		return nil, errRecipeNotFound
	}
	return &Recipe{Title: title}, nil
}

func (r *RecipeResolver) Explode() string { panic("kaboom") }

func (r *RecipeResolver) Whoami(user string) string { return user }

func (r *RecipeResolver) AddRecipe(ctx context.Context, input AddRecipeInput, publish pubsub.Publisher) (*Recipe, error) {
	rec := &Recipe{Title: input.Title}
	if err := publish(ctx, rec.Title); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RecipeResolver) RecipeAdded(title string) string { return "added " + title }

func (r *RecipeResolver) Author(root *Recipe, suffix string) string {
	return "chef of " + root.Title + suffix
}

func (r *RecipeResolver) Pair(first, second string) string { return first + "," + second }

type recipeError struct{ reason string }

func (e *recipeError) Error() string { return "rejected: " + e.reason }

type quotaError struct{}

func (quotaError) Error() string { return "quota exceeded" }

func (r *RecipeResolver) Reject(reason string) *recipeError {
	if reason == "" {
		return nil
	}
	return &recipeError{reason: reason}
}

func (r *RecipeResolver) Quota() quotaError { return quotaError{} }

type baseResolver struct{}

func (baseResolver) Ping() string { return "pong" }

type ChildResolver struct{ baseResolver }

var (
	recipeType   = metadata.TargetOf[Recipe]()
	resolverType = metadata.TargetOf[RecipeResolver]()
	baseType     = metadata.TargetOf[baseResolver]()
	childType    = metadata.TargetOf[ChildResolver]()
)

func typeOf[T any]() metadata.TypeFunc {
	return func() any { return reflect.TypeOf((*T)(nil)).Elem() }
}

type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.log = append(r.log, s)
	r.mu.Unlock()
}

func (r *recorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func tracing(r *recorder, name string) *middleware.Middleware {
	return middleware.Fn(func(_ context.Context, _ *request.ResolverData, next middleware.NextFunc, _ []string) (any, error) {
		r.add(name + " before")
		v, err := next()
		r.add(name + " after")
		return v, err
	})
}

func buildGraph(t *testing.T, declared ...*middleware.Middleware) *metadata.Graph {
	t.Helper()
	s := metadata.NewStorage()
	s.CollectResolverClassMetadata(&metadata.ResolverClassMetadata{Target: resolverType, GetObjectType: func() metadata.Target { return recipeType }})
	s.CollectResolverClassMetadata(&metadata.ResolverClassMetadata{Target: baseType, IsAbstract: true})
	s.CollectResolverClassMetadata(&metadata.ResolverClassMetadata{Target: childType, Extends: baseType})

	s.CollectObjectMetadata(&metadata.ClassMetadata{Name: "Recipe", Target: recipeType})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Title", SchemaName: "title", Target: recipeType, GetType: typeOf[string]()})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Ratings", SchemaName: "ratings", Target: recipeType, GetType: typeOf[[]int]()})

	for _, m := range []string{"Recipes", "Recipe", "Explode", "Whoami"} {
		s.CollectQueryHandlerMetadata(&metadata.ResolverMetadata{Target: resolverType, MethodName: m})
	}
	s.CollectQueryHandlerMetadata(&metadata.ResolverMetadata{Target: baseType, MethodName: "Ping", GetType: typeOf[string]()})
	s.CollectMutationHandlerMetadata(&metadata.ResolverMetadata{Target: resolverType, MethodName: "AddRecipe"})
	s.CollectSubscriptionHandlerMetadata(&metadata.SubscriptionResolverMetadata{
		ResolverMetadata: metadata.ResolverMetadata{Target: resolverType, MethodName: "RecipeAdded"},
		Topics:           []string{"recipes"},
		Filter: func(_ context.Context, payload any, _ *request.ResolverData) (bool, error) {
			return payload != "skip", nil
		},
	})
	s.CollectFieldResolverMetadata(&metadata.FieldResolverMetadata{
		ResolverMetadata: metadata.ResolverMetadata{Target: recipeType, MethodName: "AverageRating"},
		Kind:             metadata.FieldResolverInternal,
	})
	s.CollectFieldResolverMetadata(&metadata.FieldResolverMetadata{
		ResolverMetadata: metadata.ResolverMetadata{Target: resolverType, MethodName: "Author", SchemaName: "author", GetType: typeOf[string]()},
		Kind:             metadata.FieldResolverExternal,
	})

	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamArg, Target: resolverType, MethodName: "Recipes", Index: 1, Name: "limit"})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamArg, Target: resolverType, MethodName: "Recipe", Index: 0, Name: "title"})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamContext, Target: resolverType, MethodName: "Whoami", Index: 0, PropertyName: "user"})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamArg, Target: resolverType, MethodName: "AddRecipe", Index: 1, Name: "input"})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamPubSub, Target: resolverType, MethodName: "AddRecipe", Index: 2, TriggerKey: "recipes"})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamRoot, Target: resolverType, MethodName: "RecipeAdded", Index: 0})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamRoot, Target: resolverType, MethodName: "Author", Index: 0})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{
		Kind: metadata.ParamCustom, Target: resolverType, MethodName: "Author", Index: 1,
		Resolver: func(_ context.Context, data *request.ResolverData) (any, error) {
			return data.Args["suffix"], nil
		},
	})
	if len(declared) > 0 {
		s.CollectMiddlewareMetadata(&metadata.MiddlewareMetadata{Target: resolverType, FieldName: "Recipes", Middlewares: declared})
	}

	g, err := s.Build()
	require.NoError(t, err)
	return g
}

func defaultRouter() *router.Router {
	r := router.New()
	r.Query("recipes", "RecipeResolver.Recipes")
	r.Query("recipe", "RecipeResolver.Recipe")
	r.Query("explode", "RecipeResolver.Explode")
	r.Query("whoami", "RecipeResolver.Whoami")
	r.Query("ping", "ChildResolver.Ping")
	r.Mutation("addRecipe", "RecipeResolver.AddRecipe")
	r.Subscription("recipeAdded", "RecipeResolver.RecipeAdded")
	return r
}

func newEngine(t *testing.T, opts buildctx.Options) *Engine {
	t.Helper()
	if opts.DefaultContainer == nil {
		opts.DefaultContainer = container.NewDefault().
			Bind("RecipeResolver", resolverType).
			Bind("ChildResolver", childType)
	}
	if opts.Router == nil {
		opts.Router = defaultRouter()
	}
	bc := buildctx.New()
	require.NoError(t, bc.Create(opts))
	return New(bc)
}

func bind(t *testing.T, e *Engine, g *metadata.Graph) *Operations {
	t.Helper()
	ops, err := e.BindRoutes(g)
	require.NoError(t, err)
	return ops
}

func queryInfo(field string) *request.Info {
	return &request.Info{FieldName: field, ParentType: "Query", Path: language.Path{language.PathName(field)}}
}

func mustResolver(t *testing.T, ops *Operations, kind language.Operation, name string) ResolverFunc {
	t.Helper()
	fn, ok := ops.Resolver(kind, name)
	require.True(t, ok, "no %s resolver %q", kind, name)
	return fn
}

func TestHandlerResolverConvertsArgs(t *testing.T) {
	e := newEngine(t, buildctx.Options{})
	ops := bind(t, e, buildGraph(t))

	res, err := mustResolver(t, ops, language.Query, "recipes")(context.Background(), nil, map[string]any{"limit": "2"}, queryInfo("recipes"))
	require.NoError(t, err)
	recipes, ok := res.([]Recipe)
	require.True(t, ok)
	assert.Len(t, recipes, 2)

	_, err = mustResolver(t, ops, language.Query, "recipe")(context.Background(), nil, nil, queryInfo("recipe"))
	assert.ErrorIs(t, err, errRecipeNotFound)
}

func TestInterceptorOrder(t *testing.T) {
	rec := &recorder{}
	store := middleware.NewStore().Register(tracing(rec, "m0"))
	e := newEngine(t, buildctx.Options{
		MiddlewareStore:   store,
		GlobalMiddlewares: []*middleware.Middleware{tracing(rec, "m1")},
		QueryMiddlewares:  []*middleware.Middleware{tracing(rec, "m2")},
		Router: func() *router.Router {
			r := defaultRouter()
			r.Query("limited", "RecipeResolver.Recipes").Use(tracing(rec, "m4"))
			return r
		}(),
	})
	g := buildGraph(t, tracing(rec, "m3"))
	ops := bind(t, e, g)

	_, err := mustResolver(t, ops, language.Query, "limited")(context.Background(), nil, nil, queryInfo("limited"))
	require.NoError(t, err)

	want := []string{
		"m0 before", "m1 before", "m2 before", "m3 before", "m4 before",
		"m4 after", "m3 after", "m2 after", "m1 after", "m0 after",
	}
	if diff := cmp.Diff(want, rec.lines()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestKindMiddlewaresSkipOtherKinds(t *testing.T) {
	rec := &recorder{}
	e := newEngine(t, buildctx.Options{
		QueryMiddlewares:    []*middleware.Middleware{tracing(rec, "query")},
		MutationMiddlewares: []*middleware.Middleware{tracing(rec, "mutation")},
	})
	ops := bind(t, e, buildGraph(t))

	info := &request.Info{FieldName: "addRecipe", ParentType: "Mutation"}
	_, err := mustResolver(t, ops, language.Mutation, "addRecipe")(context.Background(), nil, map[string]any{"input": map[string]any{"title": "Soup"}}, info)
	require.NoError(t, err)
	assert.Equal(t, []string{"mutation before", "mutation after"}, rec.lines())
}

func TestInterceptorOverridesResult(t *testing.T) {
	intercept := middleware.Fn(func(_ context.Context, _ *request.ResolverData, next middleware.NextFunc, _ []string) (any, error) {
		if _, err := next(); err != nil {
			return nil, err
		}
		return "intercepted", nil
	})
	e := newEngine(t, buildctx.Options{GlobalMiddlewares: []*middleware.Middleware{intercept}})
	ops := bind(t, e, buildGraph(t))

	res, err := mustResolver(t, ops, language.Query, "ping")(context.Background(), nil, nil, queryInfo("ping"))
	require.NoError(t, err)
	assert.Equal(t, "intercepted", res)
}

func TestInterceptorRecoversPanic(t *testing.T) {
	var seen error
	recovering := middleware.Fn(func(_ context.Context, _ *request.ResolverData, next middleware.NextFunc, _ []string) (any, error) {
		if _, err := next(); err != nil {
			seen = err
			return "recovered", nil
		}
		return nil, nil
	})
	e := newEngine(t, buildctx.Options{GlobalMiddlewares: []*middleware.Middleware{recovering}})
	ops := bind(t, e, buildGraph(t))

	res, err := mustResolver(t, ops, language.Query, "explode")(context.Background(), nil, nil, queryInfo("explode"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", res)

	var pe *PanicError
	require.ErrorAs(t, seen, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestInheritedRouteUsesRouteTarget(t *testing.T) {
	var got reflect.Type
	getter := func(*request.ResolverData) container.Container { return nil }
	def := container.NewDefault().
		Bind("RecipeResolver", resolverType).
		Bind("ChildResolver", childType).
		Provide(childType, func(*request.ResolverData) (any, error) {
			got = childType
			return &ChildResolver{}, nil
		})
	e := newEngine(t, buildctx.Options{DefaultContainer: def, ContainerGetter: getter})
	ops := bind(t, e, buildGraph(t))

	res, err := mustResolver(t, ops, language.Query, "ping")(context.Background(), nil, nil, queryInfo("ping"))
	require.NoError(t, err)
	assert.Equal(t, "pong", res)
	assert.Equal(t, childType, got)
}

func TestBindRoutesUnboundMethod(t *testing.T) {
	r := router.New()
	r.Query("missing", "RecipeResolver.Missing")
	e := newEngine(t, buildctx.Options{Router: r})

	_, err := e.BindRoutes(buildGraph(t))
	var ue *UnboundRouteError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "missing", ue.Route)
	assert.Equal(t, "Missing", ue.Method)
}

func TestBootFailsOnUnboundHandler(t *testing.T) {
	r := router.New()
	r.Query("users", "UserResolver.List")
	bc := buildctx.New()
	err := bc.Create(buildctx.Options{Router: r})

	var nf *router.HandlerNotFoundError
	require.ErrorAs(t, err, &nf)
	var le *container.LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "UserResolver", le.Namespace)
}

func TestContextParams(t *testing.T) {
	e := newEngine(t, buildctx.Options{})
	ops := bind(t, e, buildGraph(t))
	whoami := mustResolver(t, ops, language.Query, "whoami")

	ctx := request.WithValues(context.Background(), map[string]any{"user": "ada"})
	res, err := whoami(ctx, nil, nil, queryInfo("whoami"))
	require.NoError(t, err)
	assert.Equal(t, "ada", res)

	type key string
	res, err = whoami(context.WithValue(context.Background(), key("other"), 1), nil, nil, queryInfo("whoami"))
	require.NoError(t, err)
	assert.Equal(t, "", res)
}

func TestInvocationContextIsCopied(t *testing.T) {
	set := middleware.Fn(func(_ context.Context, data *request.ResolverData, next middleware.NextFunc, _ []string) (any, error) {
		data.Context.Set("user", "mallory")
		return next()
	})
	e := newEngine(t, buildctx.Options{GlobalMiddlewares: []*middleware.Middleware{set}})
	ops := bind(t, e, buildGraph(t))

	values := map[string]any{"user": "ada"}
	ctx := request.WithValues(context.Background(), values)
	res, err := mustResolver(t, ops, language.Query, "whoami")(ctx, nil, nil, queryInfo("whoami"))
	require.NoError(t, err)
	assert.Equal(t, "mallory", res)
	assert.Equal(t, "ada", values["user"])
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name     string
		validate bool
		title    string
		wantErr  bool
	}{
		{name: "valid", validate: true, title: "Soup"},
		{name: "invalid", validate: true, title: "x", wantErr: true},
		{name: "disabled", validate: false, title: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validate := tt.validate
			e := newEngine(t, buildctx.Options{ValidateArgs: &validate})
			ops := bind(t, e, buildGraph(t))

			info := &request.Info{FieldName: "addRecipe", ParentType: "Mutation"}
			res, err := mustResolver(t, ops, language.Mutation, "addRecipe")(context.Background(), nil, map[string]any{"input": map[string]any{"title": tt.title}}, info)
			if tt.wantErr {
				var verrs validator.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				var pe *ParamError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, 1, pe.Index)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, res.(*Recipe).Title)
		})
	}
}

func TestMutationPublishesToTrigger(t *testing.T) {
	engine := pubsub.NewMemory()
	bus := eventbus.New()
	var published []string
	var mu sync.Mutex
	eventbus.Subscribe(bus, func(_ context.Context, ev events.PublishFinish) {
		mu.Lock()
		published = append(published, ev.Topic)
		mu.Unlock()
	})
	e := newEngine(t, buildctx.Options{PubSub: engine, Bus: bus})
	ops := bind(t, e, buildGraph(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgs, err := engine.Subscribe(ctx, "recipes")
	require.NoError(t, err)

	info := &request.Info{FieldName: "addRecipe", ParentType: "Mutation"}
	_, err = mustResolver(t, ops, language.Mutation, "addRecipe")(context.Background(), nil, map[string]any{"input": map[string]any{"title": "Soup"}}, info)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "Soup", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message published")
	}
	mu.Lock()
	assert.Equal(t, []string{"recipes"}, published)
	mu.Unlock()
}

func TestSubscriptionSource(t *testing.T) {
	engine := pubsub.NewMemory()
	e := newEngine(t, buildctx.Options{PubSub: engine})
	ops := bind(t, e, buildGraph(t))
	source, ok := ops.Sources["recipeAdded"]
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	info := &request.Info{FieldName: "recipeAdded", ParentType: "Subscription"}
	stream, err := source(ctx, nil, nil, info)
	require.NoError(t, err)

	require.NoError(t, engine.Publish(ctx, "recipes", "skip"))
	require.NoError(t, engine.Publish(ctx, "recipes", "Soup"))

	var payload any
	select {
	case payload = <-stream:
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	assert.Equal(t, "Soup", payload)

	res, err := mustResolver(t, ops, language.Subscription, "recipeAdded")(ctx, payload, nil, info)
	require.NoError(t, err)
	assert.Equal(t, "added Soup", res)

	cancel()
	select {
	case _, open := <-stream:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("source not closed after cancel")
	}
}

func TestFieldResolvers(t *testing.T) {
	e := newEngine(t, buildctx.Options{})
	g := buildGraph(t)
	info := &request.Info{FieldName: "averageRating", ParentType: "Recipe"}

	avg := e.FieldResolver(g.FieldResolver(recipeType, "AverageRating"))
	res, err := avg(context.Background(), map[string]any{"title": "Soup", "ratings": []any{4, 5}}, nil, info)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, res, 0.001)

	res, err = avg(context.Background(), &Recipe{Ratings: []int{3}}, nil, info)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res, 0.001)

	author := e.FieldResolver(g.FieldResolver(resolverType, "Author"))
	res, err = author(context.Background(), &Recipe{Title: "Stew"}, map[string]any{"suffix": "!"}, &request.Info{FieldName: "author", ParentType: "Recipe"})
	require.NoError(t, err)
	assert.Equal(t, "chef of Stew!", res)
}

func TestBasicFieldResolver(t *testing.T) {
	e := newEngine(t, buildctx.Options{})
	g := buildGraph(t)
	title := e.BasicFieldResolver(g.ObjectType(recipeType).Field("Title"))
	info := &request.Info{FieldName: "title", ParentType: "Recipe"}

	res, err := title(context.Background(), &Recipe{Title: "Soup"}, nil, info)
	require.NoError(t, err)
	assert.Equal(t, "Soup", res)

	res, err = title(context.Background(), map[string]any{"title": "Stew"}, nil, info)
	require.NoError(t, err)
	assert.Equal(t, "Stew", res)

	_, err = title(context.Background(), struct{ Other int }{}, nil, info)
	assert.ErrorIs(t, err, ErrNoProperty)
}

func TestResolveEvents(t *testing.T) {
	bus := eventbus.New()
	var starts, finishes []string
	var mu sync.Mutex
	eventbus.Subscribe(bus, func(_ context.Context, ev events.ResolveStart) {
		mu.Lock()
		starts = append(starts, ev.Kind+":"+ev.Method)
		mu.Unlock()
	})
	eventbus.Subscribe(bus, func(_ context.Context, ev events.ResolveFinish) {
		mu.Lock()
		finishes = append(finishes, ev.Method)
		mu.Unlock()
		assert.ErrorIs(t, ev.Err, errRecipeNotFound)
	})
	e := newEngine(t, buildctx.Options{Bus: bus})
	ops := bind(t, e, buildGraph(t))

	_, err := mustResolver(t, ops, language.Query, "recipe")(context.Background(), nil, nil, queryInfo("recipe"))
	require.Error(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"query:Recipe"}, starts)
	assert.Equal(t, []string{"Recipe"}, finishes)
}

func TestConcurrentDispatch(t *testing.T) {
	e := newEngine(t, buildctx.Options{})
	ops := bind(t, e, buildGraph(t))
	whoami := mustResolver(t, ops, language.Query, "whoami")

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := string(rune('a' + i%26))
			ctx := request.WithValues(context.Background(), map[string]any{"user": user})
			res, err := whoami(ctx, nil, nil, queryInfo("whoami"))
			if err != nil {
				errs <- err
				return
			}
			if res != user {
				errs <- errors.New("context leaked across dispatches")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestBindRoutesRequiresDirectory(t *testing.T) {
	e := New(buildctx.New())
	_, err := e.BindRoutes(buildGraph(t))
	assert.ErrorIs(t, err, ErrNoDirectory)
}

func customParam(method string, index int, fn metadata.ParamResolver) *metadata.ParamMetadata {
	return &metadata.ParamMetadata{Kind: metadata.ParamCustom, Target: resolverType, MethodName: method, Index: index, Resolver: fn}
}

func TestCustomParamPanicBecomesError(t *testing.T) {
	e := newEngine(t, buildctx.Options{})
	meta := &metadata.ResolverMetadata{
		Target:     resolverType,
		MethodName: "Whoami",
		Params: []*metadata.ParamMetadata{customParam("Whoami", 0, func(context.Context, *request.ResolverData) (any, error) {
			panic("custom boom")
		})},
	}

	res, err := e.HandlerResolver(meta)(context.Background(), nil, nil, queryInfo("whoami"))
	require.Error(t, err)
	assert.Nil(t, res)

	var pe *ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Index)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "custom boom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestCustomParamsKeepIndexOrder(t *testing.T) {
	errSecond := errors.New("second failed")
	tests := []struct {
		name    string
		second  func(release chan struct{}) metadata.ParamResolver
		want    any
		wantErr error
	}{
		{
			name: "later index finishes first",
			second: func(release chan struct{}) metadata.ParamResolver {
				return func(context.Context, *request.ResolverData) (any, error) {
					close(release)
					return "b", nil
				}
			},
			want: "a,b",
		},
		{
			name: "later index fails",
			second: func(release chan struct{}) metadata.ParamResolver {
				return func(context.Context, *request.ResolverData) (any, error) {
					close(release)
					return nil, errSecond
				}
			},
			wantErr: errSecond,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release := make(chan struct{})
			first := func(context.Context, *request.ResolverData) (any, error) {
				select {
				case <-release:
					return "a", nil
				case <-time.After(time.Second):
					return nil, errors.New("second resolver never ran")
				}
			}
			meta := &metadata.ResolverMetadata{
				Target:     resolverType,
				MethodName: "Pair",
				Params: []*metadata.ParamMetadata{
					customParam("Pair", 0, first),
					customParam("Pair", 1, tt.second(release)),
				},
			}

			res, err := newEngine(t, buildctx.Options{}).HandlerResolver(meta)(context.Background(), nil, nil, queryInfo("pair"))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var pe *ParamError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, 1, pe.Index)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestConcreteErrorResult(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		args    map[string]any
		wantErr string
	}{
		{name: "nil pointer error", method: "Reject", args: map[string]any{"reason": ""}},
		{name: "pointer error", method: "Reject", args: map[string]any{"reason": "too salty"}, wantErr: "rejected: too salty"},
		{name: "value error", method: "Quota", wantErr: "quota exceeded"},
	}
	e := newEngine(t, buildctx.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := &metadata.ResolverMetadata{Target: resolverType, MethodName: tt.method}
			if tt.method == "Reject" {
				meta.Params = []*metadata.ParamMetadata{{Kind: metadata.ParamArg, Target: resolverType, MethodName: "Reject", Index: 0, Name: "reason"}}
			}

			res, err := e.HandlerResolver(meta)(context.Background(), nil, tt.args, queryInfo("reject"))
			assert.Nil(t, res)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}
