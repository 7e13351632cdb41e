package overlay

// Rect is a rectangle in host-surface coordinates, origin top-left.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Size is a width/height pair in host-surface coordinates.
type Size struct {
	Width  int
	Height int
}

// Placement says which side of the anchor span a popup landed on.
type Placement uint8

const (
	PlaceAbove Placement = iota
	PlaceBelow
)

// String returns the string representation of the placement.
func (p Placement) String() string {
	if p == PlaceAbove {
		return "above"
	}
	return "below"
}

// AnchorPopup positions a detail popup relative to a span's current screen
// rectangle. Placement prefers above the span and falls back to below when
// there is not enough room above. The popup is clamped horizontally into the
// viewport; the host surface decides what to do when neither side fits
// vertically (the below placement is still returned).
func AnchorPopup(span Rect, popup Size, viewport Size) (Rect, Placement) {
	out := Rect{Width: popup.Width, Height: popup.Height}

	placement := PlaceAbove
	if span.Y < popup.Height {
		placement = PlaceBelow
	}

	if placement == PlaceAbove {
		out.Y = span.Y - popup.Height
	} else {
		out.Y = span.Y + span.Height
	}

	out.X = span.X
	if out.X+out.Width > viewport.Width {
		out.X = viewport.Width - out.Width
	}
	if out.X < 0 {
		out.X = 0
	}

	return out, placement
}
