package compositor

import "github.com/orsinium-labs/enum"

// Anchor is a fixed overlay position inside the main frame.
type Anchor enum.Member[string]

var (
	AnchorLeftTop     = Anchor{Value: "left-top"}
	AnchorLeftBottom  = Anchor{Value: "left-bottom"}
	AnchorRightTop    = Anchor{Value: "right-top"}
	AnchorRightBottom = Anchor{Value: "right-bottom"}
	AnchorCenter      = Anchor{Value: "center"}
	Anchors           = enum.New(AnchorLeftTop, AnchorLeftBottom, AnchorRightTop, AnchorRightBottom, AnchorCenter)
)

// Position returns overlay filter x/y expressions placing the overlay flush
// against the anchor.
func (a Anchor) Position() (x, y string) {
	switch a {
	case AnchorLeftTop:
		return "0", "0"
	case AnchorLeftBottom:
		return "0", "main_h-overlay_h"
	case AnchorRightTop:
		return "main_w-overlay_w", "0"
	case AnchorRightBottom:
		return "main_w-overlay_w", "main_h-overlay_h"
	default:
		return "(main_w-overlay_w)/2", "(main_h-overlay_h)/2"
	}
}
