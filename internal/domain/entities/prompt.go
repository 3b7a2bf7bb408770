package entities

import "strings"

const promptObjectSuffix = ".md"

// Names of the workflow prompt templates in the prompt store.
const (
	PromptDecideNextStep      = "decide_next_step"
	PromptGenerateSQLQuery    = "generate_sql_query"
	PromptGenerateFinalAnswer = "generate_final_answer"
)

// PromptObjectKey maps a prompt name to its object key.
func PromptObjectKey(name string) string {
	return name + promptObjectSuffix
}

// TableDescriptionKey maps a table to the key its generated description is stored under.
func TableDescriptionKey(catalog, table string) string {
	return strings.TrimSuffix(catalog, "/") + "/" + table + promptObjectSuffix
}
