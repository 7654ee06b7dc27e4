package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapaudit/mapaudit/internal/domain"
)

func TestAggregate_CountsAndPassed(t *testing.T) {
	result := domain.Aggregate(2,
		[]domain.Issue{
			{Kind: domain.KindComponentNotFound, Severity: domain.SeverityError, File: "chat.system-map.json"},
			{Kind: domain.KindMapTooLarge, Severity: domain.SeverityInfo, File: "chat.system-map.json"},
		},
		[]domain.Issue{
			{Kind: domain.KindDuplicateKey, Severity: domain.SeverityWarning, File: "health.system-map.json"},
		},
	)

	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.Warnings)
	assert.Equal(t, 1, result.Infos)
	assert.Equal(t, 2, result.MapsTotal)
	assert.False(t, result.Passed)
}

func TestAggregate_OrderingIsSeverityThenFile(t *testing.T) {
	result := domain.Aggregate(3, []domain.Issue{
		{Kind: domain.KindMapTooLarge, Severity: domain.SeverityInfo, File: "a.system-map.json"},
		{Kind: domain.KindDuplicateKey, Severity: domain.SeverityWarning, File: "b.system-map.json"},
		{Kind: domain.KindEndpointNotHandled, Severity: domain.SeverityError, File: "c.system-map.json"},
		{Kind: domain.KindComponentNotFound, Severity: domain.SeverityError, File: "a.system-map.json"},
	})

	require.Len(t, result.Issues, 4)
	assert.Equal(t, domain.KindComponentNotFound, result.Issues[0].Kind) // error, a
	assert.Equal(t, domain.KindEndpointNotHandled, result.Issues[1].Kind) // error, c
	assert.Equal(t, domain.KindDuplicateKey, result.Issues[2].Kind)
	assert.Equal(t, domain.KindMapTooLarge, result.Issues[3].Kind)
}

func TestAggregate_StableWithinFile(t *testing.T) {
	// Two errors in the same file keep their emission order.
	result := domain.Aggregate(1, []domain.Issue{
		{Kind: domain.KindComponentNotFound, Severity: domain.SeverityError, File: "m.system-map.json", Message: "first"},
		{Kind: domain.KindComponentNotFound, Severity: domain.SeverityError, File: "m.system-map.json", Message: "second"},
	})

	require.Len(t, result.Issues, 2)
	assert.Equal(t, "first", result.Issues[0].Message)
	assert.Equal(t, "second", result.Issues[1].Message)
}

func TestAggregate_ZeroMapsWarnsButPasses(t *testing.T) {
	result := domain.Aggregate(0)

	assert.True(t, result.Passed)
	assert.Equal(t, 0, result.Errors)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, domain.KindNoSystemMaps, result.Issues[0].Kind)
	assert.Equal(t, domain.SeverityWarning, result.Issues[0].Severity)
}

func TestAggregate_OnlyWarningsStillPasses(t *testing.T) {
	result := domain.Aggregate(1, []domain.Issue{
		{Kind: domain.KindNameMismatch, Severity: domain.SeverityWarning, File: "root.system-map.json"},
	})

	assert.True(t, result.Passed)
	assert.Equal(t, 1, result.Warnings)
}

func TestSystemMap_EntryCount(t *testing.T) {
	m := &domain.SystemMap{
		Components:   map[string]string{"A": "a.ts", "B": "b.ts"},
		APIEndpoints: map[string]string{"GET /a": "a.ts"},
		Database:     map[string]string{"users": "users.ts"},
	}
	assert.Equal(t, 4, m.EntryCount())
}
