package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/cookbook"
	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/mealdb"
	"github.com/hpungsan/larder/internal/recipe"
)

// fakeSource is a scripted recipe API that records the calls it receives.
type fakeSource struct {
	mu         sync.Mutex
	search     map[string]mealdb.Result[recipe.Recipe]
	lookup     map[string]mealdb.Result[recipe.Recipe]
	byCategory map[string]mealdb.Result[recipe.Summary]
	byIngr     map[string]mealdb.Result[recipe.Summary]
	categories mealdb.Result[recipe.Category]
	random     mealdb.Result[recipe.Recipe]
	// gates holds search terms whose response waits until the channel is closed.
	gates map[string]chan struct{}
	calls map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		search:     map[string]mealdb.Result[recipe.Recipe]{},
		lookup:     map[string]mealdb.Result[recipe.Recipe]{},
		byCategory: map[string]mealdb.Result[recipe.Summary]{},
		byIngr:     map[string]mealdb.Result[recipe.Summary]{},
		gates:      map[string]chan struct{}{},
		calls:      map[string]int{},
	}
}

func (f *fakeSource) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeSource) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.calls {
		n += v
	}
	return n
}

func (f *fakeSource) Search(_ context.Context, term string) mealdb.Result[recipe.Recipe] {
	f.record("search")
	f.mu.Lock()
	gate := f.gates[term]
	res, ok := f.search[term]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if !ok {
		return mealdb.Found[recipe.Recipe](nil)
	}
	return res
}

func (f *fakeSource) Lookup(_ context.Context, id string) mealdb.Result[recipe.Recipe] {
	f.record("lookup")
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.lookup[id]; ok {
		return res
	}
	return mealdb.Found[recipe.Recipe](nil)
}

func (f *fakeSource) Random(context.Context) mealdb.Result[recipe.Recipe] {
	f.record("random")
	return f.random
}

func (f *fakeSource) Categories(context.Context) mealdb.Result[recipe.Category] {
	f.record("categories")
	return f.categories
}

func (f *fakeSource) FilterByCategory(_ context.Context, category string) mealdb.Result[recipe.Summary] {
	f.record("filter_category")
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.byCategory[category]; ok {
		return res
	}
	return mealdb.Found[recipe.Summary](nil)
}

func (f *fakeSource) FilterByIngredient(_ context.Context, ingredient string) mealdb.Result[recipe.Summary] {
	f.record("filter_ingredient")
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.byIngr[ingredient]; ok {
		return res
	}
	return mealdb.Found[recipe.Summary](nil)
}

// addRecipes registers full recipes for lookup and returns their summaries.
func (f *fakeSource) addRecipes(prefix string, n int, category string) []recipe.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recipe.Summary, 0, n)
	for i := 1; i <= n; i++ {
		id := prefix + strconv.Itoa(i)
		r := recipe.Recipe{ID: id, Name: fmt.Sprintf("%s dish %d", prefix, i), Category: category}
		f.lookup[id] = mealdb.Found([]recipe.Recipe{r})
		out = append(out, recipe.Summary{ID: id, Name: r.Name})
	}
	return out
}

// memStorage is an in-memory cookbook.Storage counting writes.
type memStorage struct {
	mu      sync.Mutex
	data    map[string]string
	puts    int
	failPut bool
}

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return fmt.Errorf("quota exceeded")
	}
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.puts++
	m.data[key] = value
	return nil
}

func (m *memStorage) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

type harness struct {
	source  *fakeSource
	storage *memStorage
	ctrl    *Controller
}

func newHarness() *harness {
	src := newFakeSource()
	st := &memStorage{}
	store := cookbook.Open(context.Background(), st, nil)
	return &harness{source: src, storage: st, ctrl: New(src, store, config.DefaultConfig(), nil)}
}

func failed[T any]() mealdb.Result[T] {
	return mealdb.Failed[T](errors.NewUpstreamFailed("test", fmt.Errorf("connection reset")))
}
