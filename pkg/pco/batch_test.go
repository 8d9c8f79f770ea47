package pco_test

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

// routeGetter answers by path and tracks peak concurrency.
type routeGetter struct {
	mu      sync.Mutex
	routes  map[string]*pco.Document
	queries []url.Values
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (g *routeGetter) Get(_ context.Context, path string, query url.Values) (*pco.Document, error) {
	current := g.active.Add(1)
	defer g.active.Add(-1)

	for {
		peak := g.peak.Load()
		if current <= peak || g.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	if g.release != nil {
		<-g.release
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.queries = append(g.queries, query)

	if strings.HasSuffix(path, "/500") {
		return nil, errBoom
	}

	doc, ok := g.routes[path]
	if !ok {
		return nil, &pco.ResponseError{StatusCode: 404}
	}

	return doc, nil
}

func TestFindMany(t *testing.T) {
	t.Parallel()

	getter := &routeGetter{routes: map[string]*pco.Document{
		"people/v2/people/1": pco.NewSingleDocument(person("1", "Ann", "Lee")),
		"people/v2/people/2": pco.NewSingleDocument(person("2", "Bob", "Ray")),
	}}

	types := newPeopleTypes(getter, nil)

	results := types.person.FindMany(context.Background(), []string{"2", "404", "1", "500"}, 2, nil)
	require.Len(t, results, 4)

	assert.Equal(t, "2", results[0].ID)
	require.NoError(t, results[0].Error)
	assert.Equal(t, "Bob", results[0].Object.String("first_name"))

	require.ErrorIs(t, results[1].Error, pco.ErrRecordNotFound)
	assert.Nil(t, results[1].Object)

	require.NoError(t, results[2].Error)
	assert.Equal(t, 1, results[2].Object.ID())

	require.ErrorIs(t, results[3].Error, errBoom)
}

func TestFindManyBoundsConcurrency(t *testing.T) {
	t.Parallel()

	getter := &routeGetter{
		routes:  map[string]*pco.Document{},
		release: make(chan struct{}),
	}

	types := newPeopleTypes(getter, nil)
	ids := []string{"1", "2", "3", "4", "5", "6"}

	done := make(chan []pco.FindResult)

	go func() {
		done <- types.person.FindMany(context.Background(), ids, 2, nil)
	}()

	for range ids {
		getter.release <- struct{}{}
	}

	results := <-done
	assert.Len(t, results, len(ids))
	assert.LessOrEqual(t, getter.peak.Load(), int32(2))
}

func TestFindManyConfigure(t *testing.T) {
	t.Parallel()

	getter := &routeGetter{routes: map[string]*pco.Document{
		"people/v2/people/1": pco.NewSingleDocument(person("1", "Ann", "Lee")),
	}}

	types := newPeopleTypes(getter, nil)

	results := types.person.FindMany(context.Background(), []string{"1"}, 0, func(proxy *pco.CollectionProxy) {
		proxy.Includes(pco.Includes{"addresses": types.address})
	})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Error)

	require.Len(t, getter.queries, 1)
	assert.Equal(t, "addresses", getter.queries[0].Get(pco.ParamInclude))
}
