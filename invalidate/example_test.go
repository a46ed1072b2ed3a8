package invalidate_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/contentops/cache"
	"github.com/jonwraymond/contentops/invalidate"
)

// ExampleEngine wires the engine to an in-memory store and shows a post
// creation sweeping the site's post and taxonomy listings while leaving
// unrelated entries alone.
func ExampleEngine() {
	ctx := context.Background()

	store, err := cache.NewMemoryStore(cache.DefaultPolicy())
	if err != nil {
		fmt.Println("store:", err)
		return
	}
	_ = store.Set(ctx, "site1:posts", []string{"hello world"})
	_ = store.Set(ctx, "site1:categories", []string{"news"})
	_ = store.Set(ctx, "site1:users/1", "alice")

	boundary, err := invalidate.NewStoreBoundary(store)
	if err != nil {
		fmt.Println("boundary:", err)
		return
	}
	engine, err := invalidate.NewEngine(boundary)
	if err != nil {
		fmt.Println("engine:", err)
		return
	}

	engine.Trigger(invalidate.Event{
		Type:     invalidate.ActionCreate,
		Resource: "posts",
		ID:       "42",
		SiteID:   "site1",
	})
	if err := engine.Flush(ctx); err != nil {
		fmt.Println("flush:", err)
		return
	}

	fmt.Println("posts cached:", store.Has(ctx, "site1:posts"))
	fmt.Println("categories cached:", store.Has(ctx, "site1:categories"))
	fmt.Println("user cached:", store.Has(ctx, "site1:users/1"))
	// Output:
	// posts cached: false
	// categories cached: false
	// user cached: true
}

// ExampleEngine_RegisterRule declares a custom rule with an explicit
// cascade to a dependent listing.
func ExampleEngine_RegisterRule() {
	ctx := context.Background()

	store, _ := cache.NewMemoryStore(cache.DefaultPolicy())
	_ = store.Set(ctx, "posts", []string{"a", "b"})
	_ = store.Set(ctx, "category:tech:posts", []string{"a"})
	_ = store.Set(ctx, "category:life:posts", []string{"b"})

	boundary, _ := invalidate.NewStoreBoundary(store)
	engine, _ := invalidate.NewEngine(boundary, invalidate.WithoutDefaultRules())
	engine.RegisterRule("posts", invalidate.Rule{
		Trigger:         invalidate.ActionCreate,
		Patterns:        []string{"posts"},
		Cascade:         true,
		CascadePatterns: []string{"category:{category}:posts"},
	})

	engine.Trigger(invalidate.Event{
		Type:     invalidate.ActionCreate,
		Resource: "posts",
		ID:       "4",
		Data:     map[string]string{"category": "tech"},
	})
	_ = engine.Flush(ctx)

	fmt.Println("posts cached:", store.Has(ctx, "posts"))
	fmt.Println("tech cached:", store.Has(ctx, "category:tech:posts"))
	fmt.Println("life cached:", store.Has(ctx, "category:life:posts"))
	// Output:
	// posts cached: false
	// tech cached: false
	// life cached: true
}

// ExampleEngine_BatchInvalidate deduplicates patterns across a batch of
// events before touching the store.
func ExampleEngine_BatchInvalidate() {
	ctx := context.Background()

	store, _ := cache.NewMemoryStore(cache.DefaultPolicy())
	_ = store.Set(ctx, "site1:posts", []string{"a"})

	boundary, _ := invalidate.NewStoreBoundary(store)
	engine, _ := invalidate.NewEngine(boundary)

	err := engine.BatchInvalidate(ctx, []invalidate.Event{
		{Type: invalidate.ActionUpdate, Resource: "posts", ID: "1", SiteID: "site1"},
		{Type: invalidate.ActionUpdate, Resource: "posts", ID: "2", SiteID: "site1"},
	})
	fmt.Println("err:", err)
	fmt.Println("posts cached:", store.Has(ctx, "site1:posts"))
	// Output:
	// err: <nil>
	// posts cached: false
}
