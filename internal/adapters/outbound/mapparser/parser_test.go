package mapparser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapaudit/mapaudit/internal/adapters/outbound/mapparser"
	"github.com/mapaudit/mapaudit/internal/domain"
)

func writeMap(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse_WellFormedSystemMap(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "chat.system-map.json", `{
		"name": "chat",
		"lastUpdated": "2026-08-01",
		"components": {"ChatWindow": "src/chat/ChatWindow.tsx"},
		"apiEndpoints": {"GET /api/chat/history": "src/chat/routes.ts"},
		"database": {"messages": "src/db/messages.ts"}
	}`)

	m, manifest, issues := mapparser.New().Parse(path, dir)

	require.NotNil(t, m)
	assert.Nil(t, manifest)
	assert.Empty(t, issues)
	assert.Equal(t, "chat", m.Name)
	assert.Equal(t, "chat.system-map.json", m.File)
	assert.Equal(t, "src/chat/ChatWindow.tsx", m.Components["ChatWindow"])
	assert.Equal(t, "src/chat/routes.ts", m.APIEndpoints["GET /api/chat/history"])
	assert.Equal(t, "src/db/messages.ts", m.Database["messages"])
}

func TestParse_RootManifestByShape(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "root.system-map.json", `{
		"appName": "demo-app",
		"version": "1.2.0",
		"domains": {
			"chat": {"description": "messaging", "path": "chat.system-map.json"}
		}
	}`)

	m, manifest, issues := mapparser.New().Parse(path, dir)

	assert.Nil(t, m)
	require.NotNil(t, manifest)
	assert.Empty(t, issues)
	assert.Equal(t, "demo-app", manifest.AppName)
	assert.Equal(t, "chat.system-map.json", manifest.Domains["chat"].Path)
}

func TestParse_UnreadableFile(t *testing.T) {
	m, manifest, issues := mapparser.New().Parse("/nonexistent/x.system-map.json", "")

	assert.Nil(t, m)
	assert.Nil(t, manifest)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.KindParseError, issues[0].Kind)
	assert.Equal(t, domain.SeverityError, issues[0].Severity)
}

func TestParse_CorruptedJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "broken.system-map.json", `{"name": "broken", "components": {`)

	m, manifest, issues := mapparser.New().Parse(path, dir)

	assert.Nil(t, m)
	assert.Nil(t, manifest)
	require.NotEmpty(t, issues)
	assert.Equal(t, domain.KindParseError, issues[len(issues)-1].Kind)
	assert.Equal(t, "broken.system-map.json", issues[len(issues)-1].File)
}

func TestParse_TrailingDataIsParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "chat.system-map.json", `{"name": "chat"} trailing garbage`)

	m, manifest, issues := mapparser.New().Parse(path, dir)

	assert.Nil(t, m)
	assert.Nil(t, manifest)
	require.NotEmpty(t, issues)
	assert.Equal(t, domain.KindParseError, issues[len(issues)-1].Kind)
	assert.Equal(t, domain.SeverityError, issues[len(issues)-1].Severity)
}

func TestParse_ComponentsAsListIsStructureError(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "bad.system-map.json", `{
		"name": "bad",
		"components": ["src/A.ts", "src/B.ts"],
		"database": {"users": "src/db/users.ts"}
	}`)

	m, _, issues := mapparser.New().Parse(path, dir)

	// Partial structure: the valid database mapping survives.
	require.NotNil(t, m)
	assert.Equal(t, "bad", m.Name)
	assert.Nil(t, m.Components)
	assert.Equal(t, "src/db/users.ts", m.Database["users"])

	require.Len(t, issues, 1)
	assert.Equal(t, domain.KindStructureInvalid, issues[0].Kind)
	assert.Equal(t, domain.SeverityError, issues[0].Severity)
	assert.Equal(t, "/components", issues[0].Pointer)
	assert.Contains(t, issues[0].Message, "list")
}

func TestParse_NonStringValueInsideMapping(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "mixed.system-map.json", `{
		"name": "mixed",
		"components": {"Good": "src/Good.ts", "Bad": 42}
	}`)

	m, _, issues := mapparser.New().Parse(path, dir)

	require.NotNil(t, m)
	assert.Equal(t, "src/Good.ts", m.Components["Good"])
	_, hasBad := m.Components["Bad"]
	assert.False(t, hasBad)

	require.Len(t, issues, 1)
	assert.Equal(t, "/components/Bad", issues[0].Pointer)
	assert.Contains(t, issues[0].Message, "number")
}

func TestParse_MissingNameIsStructureError(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "anon.system-map.json", `{"components": {}}`)

	m, _, issues := mapparser.New().Parse(path, dir)

	require.NotNil(t, m)
	assert.Empty(t, m.Name)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.KindStructureInvalid, issues[0].Kind)
	assert.Equal(t, "/name", issues[0].Pointer)
}

func TestParse_DuplicateKeySingleWarning(t *testing.T) {
	dir := t.TempDir()
	// "ChatWindow" appears three times; exactly one warning, last value wins.
	path := writeMap(t, dir, "dup.system-map.json", `{
		"name": "dup",
		"components": {
			"ChatWindow": "src/a.ts",
			"ChatWindow": "src/b.ts",
			"ChatWindow": "src/c.ts"
		}
	}`)

	m, _, issues := mapparser.New().Parse(path, dir)

	require.NotNil(t, m)
	assert.Equal(t, "src/c.ts", m.Components["ChatWindow"])

	var dupes []domain.Issue
	for _, issue := range issues {
		if issue.Kind == domain.KindDuplicateKey {
			dupes = append(dupes, issue)
		}
	}
	require.Len(t, dupes, 1)
	assert.Equal(t, domain.SeverityWarning, dupes[0].Severity)
	assert.Equal(t, "/components/ChatWindow", dupes[0].Pointer)
	assert.Equal(t, "dup.system-map.json", dupes[0].File)
}

func TestParse_TopLevelArray(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "arr.system-map.json", `["not", "a", "map"]`)

	m, manifest, issues := mapparser.New().Parse(path, dir)

	assert.Nil(t, m)
	assert.Nil(t, manifest)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.KindStructureInvalid, issues[0].Kind)
}

func TestParse_FlowsParsed(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "flow.system-map.json", `{
		"name": "flow",
		"components": {"A": "src/A.ts"},
		"flows": {
			"onboarding": {
				"description": "first run",
				"steps": [{"component": "A"}, {"endpoint": "GET /api/start"}]
			}
		}
	}`)

	m, _, issues := mapparser.New().Parse(path, dir)

	require.NotNil(t, m)
	assert.Empty(t, issues)
	require.Len(t, m.Flows["onboarding"].Steps, 2)
	assert.Equal(t, "A", m.Flows["onboarding"].Steps[0].Component)
	assert.Equal(t, "GET /api/start", m.Flows["onboarding"].Steps[1].Endpoint)
}

func TestParse_ManifestDomainMissingPath(t *testing.T) {
	dir := t.TempDir()
	path := writeMap(t, dir, "root.system-map.json", `{
		"appName": "demo",
		"domains": {"chat": {"description": "no path here"}}
	}`)

	_, manifest, issues := mapparser.New().Parse(path, dir)

	require.NotNil(t, manifest)
	_, registered := manifest.Domains["chat"]
	assert.False(t, registered)
	require.Len(t, issues, 1)
	assert.Equal(t, "/domains/chat/path", issues[0].Pointer)
}
