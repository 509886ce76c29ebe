package image

// Default settings values.
const (
	DefaultPlaceholder   = "http://"
	DefaultWidth         = 750
	DefaultLoadingMarker = "data-loading"
)

// Localization holds the user-facing strings of the image request.
type Localization struct {
	Title       string
	URLLabel    string
	LabelLabel  string
	ApplyLabel  string
	CancelLabel string
}

// DefaultLocalization returns the English strings.
func DefaultLocalization() Localization {
	return Localization{
		Title:       "Insert image",
		URLLabel:    "Web address",
		LabelLabel:  "Tooltip",
		ApplyLabel:  "Insert",
		CancelLabel: "Close",
	}
}

// Settings configures the image policy.
type Settings struct {
	// Placeholder is the target reference shown for new images. It is never
	// accepted as a real reference.
	Placeholder string

	// Width and DialogOptions are passed to the gateway.
	Width         int
	DialogOptions map[string]any

	// LoadingMarker is the attribute set on new images until their resource
	// settles. ProvisionalWidth and ProvisionalHeight, when positive, are set
	// as size hints for the same period.
	LoadingMarker     string
	ProvisionalWidth  int
	ProvisionalHeight int

	Localization Localization
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Placeholder:   DefaultPlaceholder,
		Width:         DefaultWidth,
		LoadingMarker: DefaultLoadingMarker,
		Localization:  DefaultLocalization(),
	}
}
