package model

// ChatMessage is one role/content turn sent to a chat model.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// LabelScore is one entry of a classifier's probability distribution.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
