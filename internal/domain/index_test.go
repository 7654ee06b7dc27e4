package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mapaudit/mapaudit/internal/domain"
)

func TestNormalizeRouteKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GET /api/users", "GET /api/users"},
		{"get /api/users/", "GET /api/users"},
		{"post   /api//chat", "POST /api/chat"},
		{" DELETE /api/users/:id ", "DELETE /api/users/:id"},
		{"not-a-route-key", "not-a-route-key"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.NormalizeRouteKey(tt.in), "input %q", tt.in)
	}
}

func TestIndex_HasFile(t *testing.T) {
	ix := domain.NewIndex("/proj", []string{"src/App.tsx", "src/db/users.ts"}, nil, nil)

	assert.True(t, ix.HasFile("src/App.tsx"))
	assert.True(t, ix.HasFile("./src/App.tsx"))
	assert.True(t, ix.HasFile("src\\db\\users.ts"))
	assert.False(t, ix.HasFile("src/Missing.tsx"))
}

func TestIndex_HandlersFor_ExactMatch(t *testing.T) {
	ix := domain.NewIndex("/proj", nil, map[string][]string{
		"GET /api/users": {"src/routes.ts"},
	}, nil)

	assert.Equal(t, []string{"src/routes.ts"}, ix.HandlersFor("GET /api/users"))
	assert.Equal(t, []string{"src/routes.ts"}, ix.HandlersFor("get /api/users/"))
	assert.Nil(t, ix.HandlersFor("POST /api/users"))
}

func TestIndex_HandlersFor_TemplatedSegments(t *testing.T) {
	ix := domain.NewIndex("/proj", nil, map[string][]string{
		"GET /api/users/:userId": {"src/routes.ts"},
	}, nil)

	// Same template with a different parameter name matches structurally.
	assert.Equal(t, []string{"src/routes.ts"}, ix.HandlersFor("GET /api/users/:id"))
	assert.Equal(t, []string{"src/routes.ts"}, ix.HandlersFor("GET /api/users/{id}"))

	// Different arity does not match.
	assert.Nil(t, ix.HandlersFor("GET /api/users/:id/posts"))
	// Different concrete segment does not match.
	assert.Nil(t, ix.HandlersFor("GET /api/teams/:id"))
}

func TestIndex_HandlersFor_MalformedKey(t *testing.T) {
	ix := domain.NewIndex("/proj", nil, map[string][]string{
		"GET /api/users": {"src/routes.ts"},
	}, nil)

	assert.Nil(t, ix.HandlersFor("just-a-string"))
}
