package domain

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Language struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Languages is the fixed set offered on the profile page.
var Languages = []Language{
	{Code: "english", Label: "English"},
	{Code: "hindi", Label: "हिंदी (Hindi)"},
	{Code: "tamil", Label: "தமிழ் (Tamil)"},
	{Code: "telugu", Label: "తెలుగు (Telugu)"},
	{Code: "bengali", Label: "বাংলা (Bengali)"},
	{Code: "marathi", Label: "मराठी (Marathi)"},
	{Code: "gujarati", Label: "ગુજરાતી (Gujarati)"},
	{Code: "kannada", Label: "ಕನ್ನಡ (Kannada)"},
}

type Preferences struct {
	Theme    Theme  `json:"theme"`
	Language string `json:"language"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, Language: "english"}
}
