package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetModelFields(t *testing.T) {
	assert.Equal(t, []string{"id", "username", "password"}, getModelFields(User{}))
	assert.Equal(t,
		[]string{"id", "title", "description", "category", "created_at", "updated_at"},
		getModelFields(Project{}))
	assert.Equal(t,
		[]string{"id", "project_id", "filename", "original_name", "is_cover"},
		getModelFields(ProjectImage{}))
}

func TestFindColumnMismatches(t *testing.T) {
	got := findColumnMismatches(
		[]string{"id", "title", "published", "created_at"},
		getModelFields(Project{}),
	)
	assert.Equal(t, []string{"published"}, got)
	assert.Empty(t, findColumnMismatches([]string{"id", "username", "password"}, getModelFields(User{})))
}

func TestExtractColumnNameFromGormTag(t *testing.T) {
	assert.Equal(t, "password", extractColumnNameFromGormTag("column:password;type:text;not null"))
	assert.Equal(t, "", extractColumnNameFromGormTag("primaryKey;autoIncrement"))
}
