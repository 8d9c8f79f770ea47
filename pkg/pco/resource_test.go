package pco_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

func TestResourceType_FullPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		basePath string
		path     string
		want     string
	}{
		{name: "base and path", basePath: "/people/v2", path: "people", want: "people/v2/people"},
		{name: "trailing slash on base", basePath: "/people/v2/", path: "people", want: "people/v2/people"},
		{name: "leading slash on path", basePath: "people/v2", path: "/people", want: "people/v2/people"},
		{name: "both slashes", basePath: "/people/v2/", path: "/people", want: "people/v2/people"},
		{name: "path only", path: "/services/v2/songs", want: "services/v2/songs"},
		{name: "base only", basePath: "/people/v2", want: "people/v2"},
		{name: "neither", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := pco.NewResourceType(pco.ResourceConfig{BasePath: tt.basePath, Path: tt.path})
			assert.Equal(t, tt.want, rt.FullPath())
		})
	}
}

func TestResourceType_Inheritance(t *testing.T) {
	t.Parallel()

	conn := &fakeGetter{}
	base := pco.NewResourceType(pco.ResourceConfig{
		BasePath:   "/people/v2",
		Connection: conn,
		PerPage:    50,
		Params:     url.Values{"fields[Person]": []string{"first_name"}},
	})

	child := pco.NewResourceType(pco.ResourceConfig{Name: "Person", Path: "people", Parent: base})
	assert.Equal(t, "people/v2/people", child.FullPath())
	assert.Same(t, conn, child.Connection())

	query := child.All().Query()
	assert.Equal(t, "50", query.Get("per_page"))
	assert.Equal(t, "first_name", query.Get("fields[Person]"))

	override := pco.NewResourceType(pco.ResourceConfig{
		Name:     "Song",
		BasePath: "/services/v2",
		Path:     "songs",
		PerPage:  10,
		Parent:   base,
	})
	assert.Equal(t, "services/v2/songs", override.FullPath())
	assert.Equal(t, "10", override.All().Query().Get("per_page"))

	grandchild := pco.NewResourceType(pco.ResourceConfig{Name: "Adult", Parent: child})
	assert.Equal(t, "people/v2/people", grandchild.FullPath())
}

func TestResourceType_ProxiesAreIndependent(t *testing.T) {
	t.Parallel()

	conn := (&fakeGetter{}).
		respond(page(1, -1, person("1", "Tim", "Morgan"))).
		respond(page(1, -1, person("1", "Tim", "Morgan")))
	types := newPeopleTypes(conn, nil)

	_, err := types.person.Where(map[string]string{"first_name": "Tim"}).First(context.Background())
	require.NoError(t, err)

	_, err = types.person.First(context.Background())
	require.NoError(t, err)

	calls := conn.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Tim", calls[0].Query.Get("where[first_name]"))
	assert.Empty(t, calls[1].Query.Get("where[first_name]"))
}

func TestResourceType_NewObject(t *testing.T) {
	t.Parallel()

	types := newPeopleTypes(&fakeGetter{}, nil)

	fromString := types.person.NewObject(map[string]interface{}{"id": "5", "first_name": "Tim"})
	fromInt := types.person.NewObject(map[string]interface{}{"id": 5, "first_name": "Tim"})

	assert.Equal(t, 5, fromString.ID())
	assert.True(t, fromString.Equal(fromInt))
	assert.Equal(t, "5", fromInt.RecordID())
}
