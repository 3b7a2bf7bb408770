package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/pkg/utils"
)

func TestSchemaContext(t *testing.T) {
	assert.Equal(t, "No relevant table schema available.", SchemaContext(nil))
	assert.Equal(t,
		"Table: orders\nDescription: one row per order\nTable: users\nDescription: members",
		SchemaContext([]entities.SimilarTable{
			{TableName: "orders", Description: "one row per order"},
			{TableName: "users", Description: "members"},
		}))
}

func TestMemberFilter(t *testing.T) {
	assert.Equal(t, "/* id filter missing */", MemberFilter(""))
	assert.Equal(t, "id = 'abc-123'", MemberFilter("abc-123"))
	assert.Equal(t, "id = 'o''brien'", MemberFilter("o'brien"))
}

func TestDefaultsCoverWorkflowPlaceholders(t *testing.T) {
	cases := map[string][]string{
		entities.PromptDecideNextStep:      {"query"},
		entities.PromptGenerateSQLQuery:    {"combined_schema", "member_filter", "today_date", "query"},
		entities.PromptGenerateFinalAnswer: {"query", "sql_query", "sql_result", "table_prompt"},
	}
	for name, want := range cases {
		tmpl, ok := Default(name)
		assert.True(t, ok, name)
		assert.ElementsMatch(t, want, utils.Placeholders(tmpl), name)
	}

	_, ok := Default("unknown")
	assert.False(t, ok)
}

func TestTableDescriptionPlaceholders(t *testing.T) {
	assert.ElementsMatch(t, []string{"table_name", "columns", "sample_rows"}, utils.Placeholders(TableDescription))
}
