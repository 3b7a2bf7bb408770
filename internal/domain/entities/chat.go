package entities

// ChatResult is what the chat endpoint returns for a question.
type ChatResult struct {
	Answer              string `json:"answer"`
	ConversationSummary string `json:"conversation_summary,omitempty"`
	Deeplink            string `json:"deeplink,omitempty"`
	SQLQuery            string `json:"sql_query,omitempty"`
	TableUsed           string `json:"table_used,omitempty"`
}
