package render

import "github.com/gdamore/tcell/v2"

// Node colors by row role
var (
	RgbAnchored = tcell.NewRGBColor(255, 80, 80)   // bottom row, fixed
	RgbDriven   = tcell.NewRGBColor(50, 255, 50)   // top row, pulled
	RgbFree     = tcell.NewRGBColor(100, 150, 255) // everything in between
	RgbCapped   = tcell.NewRGBColor(255, 255, 0)   // top row at the pull cap

	RgbLink       = tcell.NewRGBColor(70, 70, 90)
	RgbStatusBar  = tcell.NewRGBColor(255, 255, 255)
	RgbBackground = tcell.NewRGBColor(26, 27, 38) // Tokyo Night background
)

// NodeColor picks the debug color for a node in the given row
func NodeColor(row, height int, capped bool) tcell.Color {
	switch {
	case row == 0:
		return RgbAnchored
	case row == height-1 && capped:
		return RgbCapped
	case row == height-1:
		return RgbDriven
	default:
		return RgbFree
	}
}
