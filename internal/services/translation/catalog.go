package translation

import "github.com/magabrotheeeer/speech-translator/internal/models"

// DefaultVoice используется, если голос не выбран.
const DefaultVoice = "alloy"

var languages = []models.Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "pl", Name: "Polish"},
	{Code: "ru", Name: "Russian"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "ar", Name: "Arabic"},
	{Code: "zh", Name: "Chinese (Simplified)"},
	{Code: "cs", Name: "Czech"},
}

var voices = []models.Voice{
	{ID: "alloy", Name: "Alloy"},
	{ID: "echo", Name: "Echo"},
	{ID: "fable", Name: "Fable"},
	{ID: "onyx", Name: "Onyx"},
	{ID: "nova", Name: "Nova"},
	{ID: "shimmer", Name: "Shimmer"},
}

// Languages возвращает список поддерживаемых языков.
func Languages() []models.Language {
	out := make([]models.Language, len(languages))
	copy(out, languages)
	return out
}

// Voices возвращает список голосов синтеза речи.
func Voices() []models.Voice {
	out := make([]models.Voice, len(voices))
	copy(out, voices)
	return out
}

func languageName(code string) (string, bool) {
	for _, l := range languages {
		if l.Code == code {
			return l.Name, true
		}
	}
	return "", false
}

func voiceSupported(id string) bool {
	for _, v := range voices {
		if v.ID == id {
			return true
		}
	}
	return false
}
