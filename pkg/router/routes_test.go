package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTableMatch(t *testing.T) {
	table := NewRouteTable[string]()
	require.NoError(t, table.Register(MethodGet, "/", "root"))
	require.NoError(t, table.Register(MethodGet, "/user/:id", "user"))
	require.NoError(t, table.Register(MethodGet, "/user/me", "me"))
	require.NoError(t, table.Register(MethodPost, "/user/:id", "update"))
	require.NoError(t, table.Register(MethodAll, "/any/:a/:b", "any"))
	require.NoError(t, table.Register(MethodGet, "/files/", "files"))

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedMatch  bool
		expectedRoute  string
		expectedParams map[string]string
	}{
		{"Root", "GET", "/", true, "root", nil},
		{"Param", "GET", "/user/42", true, "user", map[string]string{"id": "42"}},
		{"First match wins over literal", "GET", "/user/me", true, "user", map[string]string{"id": "me"}},
		{"Method selects route", "POST", "/user/42", true, "update", map[string]string{"id": "42"}},
		{"Wildcard method", "DELETE", "/any/x/y", true, "any", map[string]string{"a": "x", "b": "y"}},
		{"Segment count mismatch", "GET", "/user/42/extra", false, "", nil},
		{"Too few segments", "GET", "/user", false, "", nil},
		{"No trailing slash normalization", "GET", "/user/42/", false, "", nil},
		{"Trailing slash literal", "GET", "/files/", true, "files", nil},
		{"Trailing slash required", "GET", "/files", false, "", nil},
		{"Empty param segment", "GET", "/user/", true, "user", map[string]string{"id": ""}},
		{"Unknown method", "PUT", "/user/42", false, "", nil},
		{"Empty path", "GET", "", false, "", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			route, params, ok := table.Match(tc.method, tc.path)
			require.Equal(t, tc.expectedMatch, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.expectedRoute, route.Handler)
			assert.Len(t, params, len(tc.expectedParams))
			for k, v := range tc.expectedParams {
				assert.Equal(t, v, params.ByName(k))
			}
		})
	}
}

func TestRouteTableRegistrationOrder(t *testing.T) {
	table := NewRouteTable[int]()
	require.NoError(t, table.Register(MethodGet, "/a/:x", 1))
	require.NoError(t, table.Register(MethodGet, "/a/b", 2))

	route, _, ok := table.Match("GET", "/a/b")
	require.True(t, ok)
	assert.Equal(t, 1, route.Handler)

	// Reverse order lets the literal route win.
	table = NewRouteTable[int]()
	require.NoError(t, table.Register(MethodGet, "/a/b", 2))
	require.NoError(t, table.Register(MethodGet, "/a/:x", 1))
	route, _, ok = table.Match("GET", "/a/b")
	require.True(t, ok)
	assert.Equal(t, 2, route.Handler)
}

func TestRouteTableDuplicateParamNames(t *testing.T) {
	table := NewRouteTable[int]()
	require.NoError(t, table.Register(MethodGet, "/p/:id/:id", 1))

	_, params, ok := table.Match("GET", "/p/first/second")
	require.True(t, ok)
	assert.Equal(t, "first", params.ByName("id"))
	assert.Len(t, params, 2)
}

func TestRouteTableRegisterErrors(t *testing.T) {
	table := NewRouteTable[int]()

	err := table.Register(MethodGet, "user", 1)
	assert.True(t, errors.Is(err, ErrInvalidPattern))

	err = table.Register(MethodGet, "/user/:", 1)
	assert.ErrorIs(t, err, ErrInvalidPattern)

	err = table.Register(Method("BREW"), "/coffee", 1)
	assert.ErrorIs(t, err, ErrInvalidMethod)

	assert.Equal(t, 0, table.Len())
}

func TestRouteTableRoutes(t *testing.T) {
	table := NewRouteTable[int]()
	require.NoError(t, table.Register(MethodGet, "/a", 1))
	require.NoError(t, table.Register(MethodPost, "/b", 2))

	routes := table.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/a", routes[0].Pattern)
	assert.Equal(t, MethodPost, routes[1].Method)

	routes[0].Pattern = "/mutated"
	assert.Equal(t, "/a", table.Routes()[0].Pattern)
}
