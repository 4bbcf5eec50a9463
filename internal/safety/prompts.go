package safety

import "fmt"

// HarmfulPhrases are the reference intents compared against user text.
var HarmfulPhrases = []string{
	"steal", "rob", "kill", "hurt someone", "suicide", "crime", "mafia", "illegal",
	"attack", "harm", "fraud", "worthless", "give up", "sexual desire",
}

// DefaultThreshold is the similarity above which text counts as harmful.
const DefaultThreshold = 0.65

const reframeInstructionTemplate = "The user has expressed risky, illegal, or sexual thoughts. " +
	"Rephrase their thoughts in a neutral, safe way, " +
	"so that it can be used to give positive motivational advice. " +
	"The user input: %s."

const reframedPromptTemplate = "Provide uplifting, safe, motivational advice based on this rephrased input: '%s'."

const directPromptTemplate = "Give a motivating message to help achieve goal: '%s' while considering they feel: %s."

func combineInput(feeling, goal string) string {
	return fmt.Sprintf("%s. Goal: %s", feeling, goal)
}

func reframeInstruction(combined string) string {
	return fmt.Sprintf(reframeInstructionTemplate, combined)
}

func reframedPrompt(safeText string) string {
	return fmt.Sprintf(reframedPromptTemplate, safeText)
}

func directPrompt(feeling, goal string) string {
	return fmt.Sprintf(directPromptTemplate, goal, feeling)
}
