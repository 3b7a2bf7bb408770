// Package prompts holds the built-in prompt templates. Stored templates in the
// prompt store take precedence over the defaults here.
package prompts

import (
	"fmt"
	"strings"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

const DecideNextStep = `You route questions for a data assistant.

Reply with exactly one label and nothing else:
- database_query: the question asks about the user's own records, numbers, totals, trends, dates or anything answerable from tables.
- general_query: the question asks about policies, how-to guidance, definitions or general knowledge.

Question: {query}`

const GenerateSQLQuery = `You write a single SQL query that answers the question using only the tables below.

Relevant tables:
{combined_schema}

Rules:
- Always restrict rows with this filter: {member_filter}
- Today's date is {today_date}; resolve relative dates against it.
- Select a deeplink column when the table has one.
- Return only the SQL, without explanation.

Question: {query}`

const GenerateFinalAnswer = `Answer the user's question from the query result.

Question: {query}

SQL used:
{sql_query}

Result:
{sql_result}

Table notes:
{table_prompt}

If the result is empty or reports an error, say that the data is not available. Reply in Markdown without code block markers.`

// RAGAnswer is the conversational answer template for knowledge base questions.
const RAGAnswer = "Answer the question based on the following context:\n" +
	"{context}\n" +
	"\n" +
	"Instructions:\n" +
	"- Analyze both the question and context carefully.\n" +
	"- Provide direct, conversational answers without mentioning the context itself.\n" +
	"- Connect ideas from different parts of the context when reasoning is needed.\n" +
	"- Make logical inferences based only on what's in the context.\n" +
	"- If information is missing to answer the question directly, say so naturally.\n" +
	"- Use a friendly, helpful tone as if having a natural conversation.\n" +
	"- Keep answers concise but complete.\n" +
	"- Focus on what you do know rather than what you don’t know.\n" +
	"## output format:\n" +
	"- Always return the final output in Markdown format without adding anything extra, including unnecessary code block markers (```). Maintain clear formatting for readability, using elements like bold, italics, lists, while preserving the original structure of the data.\n" +
	"\n" +
	"Question: {query}"

const SubQuerySystem = "You are a helpful assistant that generates multiple search queries based on a single input query."

const SubQueryUser = "Generate multiple search queries related to: {question} \n OUTPUT (2 queries):"

const ConversationSummary = "Summarize the core topic of the following user query in exactly 3-4 words: {question}"

const TableDescription = `You are a senior database architect with expertise in SQL DDL generation. Based on the provided table name, column names, and sample data, generate a precise SQL DDL statement.

### Requirements:
- Generate a ` + "`CREATE EXTERNAL TABLE`" + ` statement for ` + "`{table_name}`" + `
- Each column must include an appropriate SQL data type
- Include ` + "`COMMENT`" + ` annotations for each column based on inferred meaning
- Define a ` + "`PRIMARY KEY`" + ` if an identifier column exists
- Use consistent formatting for readability
- Include additional annotations for ` + "`Tags`, `Purpose`, and `Description`" + ` at the end of the DDL

### Output Format:
` + "```" + `
CREATE EXTERNAL TABLE {table_name} (
    column_name1 DATA_TYPE COMMENT 'Description',
    column_name2 DATA_TYPE COMMENT 'Description',
    ...
    column_nameN DATA_TYPE COMMENT 'Description',
    CONSTRAINT pk_{table_name} PRIMARY KEY (primary_key_column)
);

Tags: tag1, tag2, tag3;
Purpose: Description of the table's purpose;
Description: More detailed explanation of the table's role and use case;
` + "```" + `

### Data for Analysis:
- Table Name: {table_name}
- Columns: {columns}

Sample data (first 5 rows):
{sample_rows}

Ensure the SQL DDL is production-ready, well-commented, and includes the required tags, purpose, and description sections.`

// Defaults maps each workflow prompt name to its built-in template
var Defaults = map[string]string{
	entities.PromptDecideNextStep:      DecideNextStep,
	entities.PromptGenerateSQLQuery:    GenerateSQLQuery,
	entities.PromptGenerateFinalAnswer: GenerateFinalAnswer,
}

// Default returns the built-in template for name
func Default(name string) (string, bool) {
	t, ok := Defaults[name]
	return t, ok
}

// SchemaContext renders the tables section of the SQL prompt
func SchemaContext(tables []entities.SimilarTable) string {
	if len(tables) == 0 {
		return "No relevant table schema available."
	}
	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = fmt.Sprintf("Table: %s\nDescription: %s", t.TableName, t.Description)
	}
	return strings.Join(parts, "\n")
}

// MemberFilter renders the row filter for a client id
func MemberFilter(clientID string) string {
	if clientID == "" {
		return "/* id filter missing */"
	}
	return fmt.Sprintf("id = '%s'", strings.ReplaceAll(clientID, "'", "''"))
}
