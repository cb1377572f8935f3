package vox

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg int // user utterance accent
	Error   int // error messages
	Tool    int // tool lifecycle markers
	Muted   int // status bar, placeholders
	Accent  int // headings, highlights
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		Error:   1,
		Tool:    3,
		Muted:   8,
		Accent:  5,
	}
}
