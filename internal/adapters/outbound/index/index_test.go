package index_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mapaudit/mapaudit/internal/adapters/outbound/cache"
	indexAdapter "github.com/mapaudit/mapaudit/internal/adapters/outbound/index"
	"github.com/mapaudit/mapaudit/internal/domain"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func defaultScanning() domain.ScanningConfig {
	return domain.DefaultConfig().Scanning
}

func build(t *testing.T, root string, scanning domain.ScanningConfig) *domain.Index {
	t.Helper()
	ix, err := indexAdapter.New(nil, zap.NewNop()).Build(context.Background(), root, scanning)
	require.NoError(t, err)
	return ix
}

func TestBuild_FileSetIncludesEverything(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/App.tsx", "export {}")
	write(t, root, "docs/README.md", "# docs")

	ix := build(t, root, defaultScanning())

	// Existence lookups cover all extensions; only source files are
	// route-scanned.
	assert.True(t, ix.HasFile("src/App.tsx"))
	assert.True(t, ix.HasFile("docs/README.md"))
	assert.False(t, ix.HasFile("src/Missing.tsx"))
}

func TestBuild_SkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "node_modules/lib/index.js", "app.get('/x', h)")
	write(t, root, "src/routes.ts", "app.get('/api/ping', h)")

	ix := build(t, root, defaultScanning())

	assert.False(t, ix.HasFile("node_modules/lib/index.js"))
	assert.Equal(t, []string{"src/routes.ts"}, ix.HandlersFor("GET /api/ping"))
}

func TestBuild_UnreadableRootIsError(t *testing.T) {
	_, err := indexAdapter.New(nil, zap.NewNop()).Build(context.Background(), filepath.Join(t.TempDir(), "missing"), defaultScanning())
	assert.Error(t, err)
}

func TestBuild_UnreadableSubdirSkippedWithWarning(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	write(t, root, "src/routes.ts", "app.get('/api/ping', h)")
	write(t, root, "locked/hidden.ts", "app.get('/api/hidden', h)")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "locked"), 0o755) })

	ix := build(t, root, defaultScanning())

	// the rest of the index still built
	assert.True(t, ix.HasFile("src/routes.ts"))
	assert.Equal(t, []string{"src/routes.ts"}, ix.HandlersFor("GET /api/ping"))

	var kinds []string
	for _, issue := range ix.ScanIssues {
		kinds = append(kinds, issue.Kind)
		assert.Equal(t, domain.SeverityWarning, issue.Severity)
	}
	assert.Contains(t, kinds, domain.KindScanSkipped)
}

func TestBuild_BinaryFileSkippedWithWarning(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/blob.ts", "lead\x00trailing binary bytes")
	write(t, root, "src/routes.ts", "app.get('/api/ping', h)")

	ix := build(t, root, defaultScanning())

	require.Len(t, ix.ScanIssues, 1)
	assert.Equal(t, domain.KindScanSkipped, ix.ScanIssues[0].Kind)
	assert.Equal(t, domain.SeverityWarning, ix.ScanIssues[0].Severity)
	assert.Equal(t, "src/blob.ts", ix.ScanIssues[0].File)
	// The rest of the build is unaffected.
	assert.NotNil(t, ix.HandlersFor("GET /api/ping"))
}

func TestBuild_CacheReusedWhileUnchanged(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/routes.ts", "app.get('/api/ping', h)")

	store := cache.New()
	builder := indexAdapter.New(store, zap.NewNop())

	first, err := builder.Build(context.Background(), root, defaultScanning())
	require.NoError(t, err)
	assert.NotNil(t, first.HandlersFor("GET /api/ping"))

	cached, err := store.Load(root)
	require.NoError(t, err)
	require.NotNil(t, cached)

	second, err := builder.Build(context.Background(), root, defaultScanning())
	require.NoError(t, err)
	assert.Equal(t, first.Routes, second.Routes)
}

func TestScanRoutes_ExpressStyle(t *testing.T) {
	src := `
		app.get('/api/users', listUsers);
		router.post("/api/users/:id/posts", addPost);
		server.delete('/api/users/:id', removeUser);
	`
	keys := indexAdapter.ScanRoutes([]byte(src))
	assert.Contains(t, keys, "GET /api/users")
	assert.Contains(t, keys, "POST /api/users/:id/posts")
	assert.Contains(t, keys, "DELETE /api/users/:id")
}

func TestScanRoutes_AllExpandsMethods(t *testing.T) {
	keys := indexAdapter.ScanRoutes([]byte(`app.all('/api/anything', h)`))
	assert.Contains(t, keys, "GET /api/anything")
	assert.Contains(t, keys, "POST /api/anything")
	assert.Contains(t, keys, "DELETE /api/anything")
}

func TestScanRoutes_DecoratorStyle(t *testing.T) {
	src := `
		@Get(':id')
		findOne() {}

		@Post()
		create() {}
	`
	keys := indexAdapter.ScanRoutes([]byte(src))
	assert.Contains(t, keys, "GET /:id")
	assert.Contains(t, keys, "POST /")
}

func TestScanRoutes_GoMuxStyle(t *testing.T) {
	src := `mux.HandleFunc("GET /api/records/{id}", getRecord)`
	keys := indexAdapter.ScanRoutes([]byte(src))
	assert.Contains(t, keys, "GET /api/records/{id}")
}

func TestScanRoutes_DynamicRoutesNotDetected(t *testing.T) {
	// Known limitation of the syntactic scan.
	keys := indexAdapter.ScanRoutes([]byte(`app.get(prefix + '/users', h)`))
	assert.Empty(t, keys)
}

func TestScanRoutes_SameRouteTwiceOneFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/routes.ts", "app.get('/api/ping', a)\napp.get('/api/ping', b)")

	ix := build(t, root, defaultScanning())
	assert.Equal(t, []string{"src/routes.ts"}, ix.HandlersFor("GET /api/ping"))
}
