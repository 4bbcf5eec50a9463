package safety

import (
	"strings"

	"github.com/motivatem3/server/internal/model"
)

// Emotion labels produced by the classifier.
const (
	LabelJoy      = "joy"
	LabelAnger    = "anger"
	LabelSadness  = "sadness"
	LabelFear     = "fear"
	LabelSurprise = "surprise"
	LabelLove     = "love"
	LabelNeutral  = "neutral"
	LabelDisgust  = "disgust"
)

// Labels is the fixed label set the classifier is expected to return.
var Labels = []string{
	LabelJoy, LabelAnger, LabelSadness, LabelFear,
	LabelSurprise, LabelLove, LabelNeutral, LabelDisgust,
}

var moodByLabel = map[string]model.Mood{
	LabelJoy:      model.MoodJoy,
	LabelAnger:    model.MoodAnger,
	LabelSadness:  model.MoodSadness,
	LabelFear:     model.MoodFear,
	LabelSurprise: model.MoodSurprise,
	LabelLove:     model.MoodLove,
	LabelNeutral:  model.MoodNeutral,
	LabelDisgust:  model.MoodDisgust,
}

// riskyLabels force the reframing branch regardless of the harm check.
var riskyLabels = map[string]bool{
	LabelAnger:   true,
	LabelFear:    true,
	LabelSadness: true,
}

// MapToMood never fails; unknown labels become neutral.
func MapToMood(label string) model.Mood {
	if mood, ok := moodByLabel[strings.ToLower(strings.TrimSpace(label))]; ok {
		return mood
	}
	return model.MoodNeutral
}
