package frame

import "fmt"

// EnhancementStyle identifies one enhancement transformation.
type EnhancementStyle string

const (
	StyleRestore          EnhancementStyle = "Restore"
	StyleUnblur           EnhancementStyle = "Unblur"
	StyleRemoveBackground EnhancementStyle = "RemoveBackground"
	StyleCinematic        EnhancementStyle = "Cinematic"
	StyleBokeh            EnhancementStyle = "Bokeh"
)

// ParseStyle validates a style identifier from user input.
func ParseStyle(s string) (EnhancementStyle, error) {
	switch EnhancementStyle(s) {
	case StyleRestore, StyleUnblur, StyleRemoveBackground, StyleCinematic, StyleBokeh:
		return EnhancementStyle(s), nil
	}
	return "", fmt.Errorf("unknown enhancement style %q", s)
}

// PromptClause returns the instruction clause this style contributes to an
// enhancement prompt.
func (s EnhancementStyle) PromptClause() string {
	switch s {
	case StyleUnblur:
		return "Aggressively remove motion blur and out-of-focus softness, then sharpen fine detail."
	case StyleRemoveBackground:
		return "Isolate the subject and place it on a clean, uncluttered backdrop."
	case StyleCinematic:
		return "Apply a high-contrast cinematic teal and orange color grade."
	case StyleBokeh:
		return "Blur the background into soft bokeh while keeping the subject tack sharp."
	default:
		return ""
	}
}
