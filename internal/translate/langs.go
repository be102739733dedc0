package translate

// DefaultLang is used when a requested target language is not recognized.
const DefaultLang = "en"

// Language pairs a target code with its display name for the UI selector.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supported = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi"},
	{Code: "te", Name: "Telugu"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
}

// SupportedLanguages returns the target languages offered to clients.
func SupportedLanguages() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// NormalizeLang maps a requested target code onto a supported one, falling
// back to DefaultLang for anything unrecognized.
func NormalizeLang(code string) string {
	for _, l := range supported {
		if l.Code == code {
			return code
		}
	}
	return DefaultLang
}
