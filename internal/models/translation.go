package models

// Language поддерживаемый язык перевода.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Voice голос синтеза речи.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TranslationRequest входные данные конвейера перевода записанной речи.
type TranslationRequest struct {
	Audio          []byte
	FileName       string
	SourceLanguage string
	TargetLanguage string
	Voice          string
}

// TranslationResult результат конвейера: распознанный текст, перевод
// и ссылка на синтезированное аудио. Языки могут быть переставлены,
// если речь уже звучала на целевом языке.
type TranslationResult struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Swapped        bool   `json:"swapped"`
	AudioURL       string `json:"audio_url"`
}

// SpeechResult ссылка на повторно синтезированное аудио.
type SpeechResult struct {
	AudioURL string `json:"audio_url"`
}
