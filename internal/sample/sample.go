// Package sample is a small recipe catalogue wired through routegraph. The
// CLI dispatches against it.
package sample

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hanpama/routegraph/internal/container"
	"github.com/hanpama/routegraph/internal/metadata"
	"github.com/hanpama/routegraph/internal/pubsub"
	"github.com/hanpama/routegraph/internal/request"
	"github.com/hanpama/routegraph/internal/router"
)

// TopicRecipeAdded carries every added recipe.
const TopicRecipeAdded = "recipes.added"

var ErrRecipeNotFound = errors.New("sample: recipe not found")

type Recipe struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Ratings     []int     `json:"ratings"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AverageRating is the mean of the recipe's ratings, 0 without any.
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

type RecipeInput struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description" validate:"max=200"`
}

type RateInput struct {
	Title  string `validate:"required"`
	Rating int    `validate:"min=1,max=5"`
}

// Catalogue is the in-memory recipe store shared by handlers.
type Catalogue struct {
	mu      sync.RWMutex
	recipes []*Recipe
}

func NewCatalogue(seed ...*Recipe) *Catalogue {
	return &Catalogue{recipes: slices.Clone(seed)}
}

// Seed returns the recipes the CLI starts with.
func Seed() []*Recipe {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*Recipe{
		{Title: "Tomato Soup", Description: "Slow roasted", Ratings: []int{4, 5}, CreatedAt: at},
		{Title: "Green Salad", Ratings: []int{3}, CreatedAt: at.Add(time.Hour)},
		{Title: "Beef Stew", Description: "Winter classic", CreatedAt: at.Add(2 * time.Hour)},
	}
}

func (c *Catalogue) find(title string) *Recipe {
	for _, r := range c.recipes {
		if strings.EqualFold(r.Title, title) {
			return r
		}
	}
	return nil
}

// baseResolver holds handlers shared by the catalogue resolvers.
type baseResolver struct{}

func (baseResolver) Version() string { return "v1" }

// RecipeResolver serves the recipe routes.
type RecipeResolver struct {
	baseResolver
	Catalogue *Catalogue
}

func (r *RecipeResolver) Recipes(_ context.Context, limit int) []*Recipe {
	r.Catalogue.mu.RLock()
	defer r.Catalogue.mu.RUnlock()
	out := slices.Clone(r.Catalogue.recipes)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (r *RecipeResolver) Recipe(title string) (*Recipe, error) {
	r.Catalogue.mu.RLock()
	defer r.Catalogue.mu.RUnlock()
	if rec := r.Catalogue.find(title); rec != nil {
		return rec, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrRecipeNotFound, title)
}

func (r *RecipeResolver) AddRecipe(ctx context.Context, input RecipeInput, author string, publish pubsub.Publisher) (*Recipe, error) {
	rec := &Recipe{Title: input.Title, Description: input.Description, CreatedAt: time.Now().UTC()}
	if author != "" {
		rec.Description = strings.TrimSpace(rec.Description + " by " + author)
	}
	r.Catalogue.mu.Lock()
	if r.Catalogue.find(rec.Title) != nil {
		r.Catalogue.mu.Unlock()
		return nil, fmt.Errorf("sample: recipe %q already exists", rec.Title)
	}
	r.Catalogue.recipes = append(r.Catalogue.recipes, rec)
	r.Catalogue.mu.Unlock()

	if err := publish(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RecipeResolver) Rate(input RateInput) (*Recipe, error) {
	r.Catalogue.mu.Lock()
	defer r.Catalogue.mu.Unlock()
	rec := r.Catalogue.find(input.Title)
	if rec == nil {
		return nil, fmt.Errorf("%w: %q", ErrRecipeNotFound, input.Title)
	}
	rec.Ratings = append(rec.Ratings, input.Rating)
	return rec, nil
}

func (r *RecipeResolver) RecipeAdded(recipe *Recipe) *Recipe { return recipe }

// Similar lists the other recipes sharing a word with the root's title.
func (r *RecipeResolver) Similar(root *Recipe) []string {
	r.Catalogue.mu.RLock()
	defer r.Catalogue.mu.RUnlock()
	words := strings.Fields(strings.ToLower(root.Title))
	var out []string
	for _, rec := range r.Catalogue.recipes {
		if rec.Title == root.Title {
			continue
		}
		for _, w := range strings.Fields(strings.ToLower(rec.Title)) {
			if slices.Contains(words, w) {
				out = append(out, rec.Title)
				break
			}
		}
	}
	return out
}

var (
	recipeType   = metadata.TargetOf[Recipe]()
	inputType    = metadata.TargetOf[RecipeInput]()
	rateType     = metadata.TargetOf[RateInput]()
	resolverType = metadata.TargetOf[RecipeResolver]()
	baseType     = metadata.TargetOf[baseResolver]()
)

func typeOf[T any]() metadata.TypeFunc {
	return func() any { return reflect.TypeOf((*T)(nil)).Elem() }
}

// Register declares the catalogue types and handlers on s.
func Register(s *metadata.Storage) {
	s.CollectResolverClassMetadata(&metadata.ResolverClassMetadata{Target: baseType, IsAbstract: true})
	s.CollectResolverClassMetadata(&metadata.ResolverClassMetadata{
		Target:        resolverType,
		GetObjectType: func() metadata.Target { return recipeType },
		Extends:       baseType,
	})

	s.CollectObjectMetadata(&metadata.ClassMetadata{Name: "Recipe", Target: recipeType, Description: "A recipe in the catalogue"})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Title", SchemaName: "title", Target: recipeType, GetType: typeOf[string]()})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Description", SchemaName: "description", Target: recipeType, GetType: typeOf[string](), TypeOptions: metadata.TypeOptions{Nullable: true}})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Ratings", SchemaName: "ratings", Target: recipeType, GetType: typeOf[int](), TypeOptions: metadata.TypeOptions{List: 1}})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "CreatedAt", SchemaName: "createdAt", Target: recipeType, GetType: typeOf[time.Time]()})
	s.CollectInputMetadata(&metadata.ClassMetadata{Name: "RecipeInput", Target: inputType})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Title", SchemaName: "title", Target: inputType, GetType: typeOf[string]()})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Description", SchemaName: "description", Target: inputType, GetType: typeOf[string](), TypeOptions: metadata.TypeOptions{Nullable: true}})
	s.CollectArgsMetadata(&metadata.ClassMetadata{Name: "RateArgs", Target: rateType})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Title", SchemaName: "title", Target: rateType, GetType: typeOf[string]()})
	s.CollectClassFieldMetadata(&metadata.FieldMetadata{Name: "Rating", SchemaName: "rating", Target: rateType, GetType: typeOf[int]()})

	s.CollectQueryHandlerMetadata(&metadata.ResolverMetadata{Target: baseType, MethodName: "Version", SchemaName: "version", GetType: typeOf[string]()})
	s.CollectQueryHandlerMetadata(&metadata.ResolverMetadata{Target: resolverType, MethodName: "Recipes", SchemaName: "recipes", GetType: typeOf[Recipe](), TypeOptions: metadata.TypeOptions{List: 1}})
	s.CollectQueryHandlerMetadata(&metadata.ResolverMetadata{Target: resolverType, MethodName: "Recipe", SchemaName: "recipe", GetType: typeOf[Recipe]()})
	s.CollectMutationHandlerMetadata(&metadata.ResolverMetadata{Target: resolverType, MethodName: "AddRecipe", SchemaName: "addRecipe", GetType: typeOf[Recipe]()})
	s.CollectMutationHandlerMetadata(&metadata.ResolverMetadata{Target: resolverType, MethodName: "Rate", SchemaName: "rate", GetType: typeOf[Recipe]()})
	s.CollectSubscriptionHandlerMetadata(&metadata.SubscriptionResolverMetadata{
		ResolverMetadata: metadata.ResolverMetadata{Target: resolverType, MethodName: "RecipeAdded", SchemaName: "recipeAdded", GetType: typeOf[Recipe]()},
		Topics:           []string{TopicRecipeAdded},
	})
	s.CollectFieldResolverMetadata(&metadata.FieldResolverMetadata{
		ResolverMetadata: metadata.ResolverMetadata{Target: recipeType, MethodName: "AverageRating", SchemaName: "averageRating", GetType: typeOf[float64]()},
		Kind:             metadata.FieldResolverInternal,
	})
	s.CollectFieldResolverMetadata(&metadata.FieldResolverMetadata{
		ResolverMetadata: metadata.ResolverMetadata{Target: resolverType, MethodName: "Similar", SchemaName: "similar", GetType: typeOf[string](), TypeOptions: metadata.TypeOptions{List: 1}},
		Kind:             metadata.FieldResolverExternal,
	})

	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamArg, Target: resolverType, MethodName: "Recipes", Index: 1, Name: "limit", GetType: typeOf[int](), TypeOptions: metadata.TypeOptions{Nullable: true}})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamArg, Target: resolverType, MethodName: "Recipe", Index: 0, Name: "title", GetType: typeOf[string]()})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamArg, Target: resolverType, MethodName: "AddRecipe", Index: 1, Name: "input", GetType: typeOf[RecipeInput]()})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamContext, Target: resolverType, MethodName: "AddRecipe", Index: 2, PropertyName: "user"})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamPubSub, Target: resolverType, MethodName: "AddRecipe", Index: 3, TriggerKey: TopicRecipeAdded})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamArgs, Target: resolverType, MethodName: "Rate", Index: 0, GetType: typeOf[RateInput]()})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamRoot, Target: resolverType, MethodName: "RecipeAdded", Index: 0, GetType: typeOf[Recipe]()})
	s.CollectHandlerParamMetadata(&metadata.ParamMetadata{Kind: metadata.ParamRoot, Target: resolverType, MethodName: "Similar", Index: 0, GetType: typeOf[Recipe]()})
}

// Container binds the catalogue handlers over cat.
func Container(cat *Catalogue) *container.Default {
	return container.NewDefault().
		Bind("RecipeResolver", resolverType).
		Provide(resolverType, func(*request.ResolverData) (any, error) {
			return &RecipeResolver{Catalogue: cat}, nil
		})
}

// Router declares the catalogue routes.
func Router() *router.Router {
	r := router.New()
	r.Query("version", "RecipeResolver.Version")
	r.Query("recipes", "RecipeResolver.Recipes")
	r.Query("recipe", "RecipeResolver.Recipe")
	r.Mutation("addRecipe", "RecipeResolver.AddRecipe")
	r.Mutation("rate", "RecipeResolver.Rate")
	r.Subscription("recipeAdded", "RecipeResolver.RecipeAdded")
	return r
}
