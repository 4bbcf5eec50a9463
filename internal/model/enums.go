package model

type Mood string

const (
	MoodJoy      Mood = "joy"
	MoodAnger    Mood = "anger"
	MoodSadness  Mood = "sadness"
	MoodFear     Mood = "fear"
	MoodSurprise Mood = "surprise"
	MoodLove     Mood = "love"
	MoodNeutral  Mood = "neutral"
	MoodDisgust  Mood = "disgust"
)

type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)
