package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"github.com/rs/zerolog"

	"github.com/dshills/redline/internal/app"
	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/engine/buffer"
	"github.com/dshills/redline/internal/overlay"
	"github.com/dshills/redline/internal/rewrite"
	"github.com/dshills/redline/internal/service"
)

type cellPos struct {
	x, y int
}

// statusEvent carries a status-line update into the event loop, so goroutines
// finishing network work never touch UI state directly.
type statusEvent struct {
	tcell.EventTime
	msg string
}

func newStatusEvent(msg string) *statusEvent {
	ev := &statusEvent{msg: msg}
	ev.SetEventNow()
	return ev
}

// UI is a minimal terminal surface for exercising the engine: it renders the
// buffer with category-styled suggestion spans, dispatches clicks, and binds
// accept/dismiss/analyze to keys.
type UI struct {
	screen  tcell.Screen
	session *app.Session
	log     zerolog.Logger

	cursor buffer.Offset
	status string

	// offsetAt maps screen cells to rune offsets for click dispatch,
	// rebuilt on every draw.
	offsetAt map[cellPos]buffer.Offset
	cursorXY cellPos
}

func newUI(documentID, text string, cfg *config.Config, svc service.Service, log zerolog.Logger) (*UI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()

	ui := &UI{
		screen:   screen,
		log:      log,
		status:   "Ctrl-A analyze  Ctrl-R rewrite  Enter accept  Ctrl-D dismiss  Ctrl-Q quit",
		offsetAt: make(map[cellPos]buffer.Offset),
	}

	// Hooks can fire from goroutines running network calls, so they post
	// status updates through the event queue instead of writing UI state.
	ui.session = app.NewSession(documentID, text, cfg, svc,
		app.WithLogger(log),
		app.WithHooks(app.Hooks{
			OnSuggestionClick: func(s service.Suggestion, _ overlay.Span) {
				ui.postStatus(fmt.Sprintf("%s: %s -> %s", s.Category, s.OriginalText, s.SuggestionText))
			},
			OnAccept: func(s service.Suggestion) {
				ui.postStatus(fmt.Sprintf("accepted %q", s.SuggestionText))
			},
			OnDismiss: func(s service.Suggestion) {
				ui.postStatus(fmt.Sprintf("dismissed %q", s.OriginalText))
			},
			OnRetry: func(p service.ParagraphRewrite) {
				ui.postStatus(fmt.Sprintf("new rewrite for paragraph %d", p.ParagraphID))
			},
			OnError: func(err error) {
				ui.postStatus("error: " + err.Error())
			},
		}),
	)

	return ui, nil
}

// Run drives the event loop until quit.
func (u *UI) Run() error {
	for {
		u.draw()
		switch ev := u.screen.PollEvent().(type) {
		case *tcell.EventResize:
			u.screen.Sync()
		case *tcell.EventMouse:
			u.handleMouse(ev)
		case *statusEvent:
			u.status = ev.msg
		case *tcell.EventKey:
			if quit := u.handleKey(ev); quit {
				return nil
			}
		}
	}
}

// postStatus queues a status update; safe to call from any goroutine.
func (u *UI) postStatus(msg string) {
	_ = u.screen.PostEvent(newStatusEvent(msg))
}

// Close releases the terminal.
func (u *UI) Close() {
	u.screen.Fini()
	u.session.Close()
}

func (u *UI) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyEscape:
		return true
	case tcell.KeyCtrlA:
		// Network calls run off the event loop; typing continues and the
		// engine reconciles the response against whatever the buffer looks
		// like when it lands.
		u.status = "analyzing..."
		go func() {
			if err := u.session.AnalyzeSuggestions(context.Background()); err != nil {
				return
			}
			u.postStatus(fmt.Sprintf("%d suggestions", u.session.Overlay().Len()))
		}()
	case tcell.KeyCtrlR:
		u.status = "requesting rewrite..."
		go func() {
			if err := u.session.AnalyzePages(context.Background(), 1.0); err != nil {
				return
			}
			u.postStatus(fmt.Sprintf("%d rewrite offers", len(u.session.VisibleRewrites())))
		}()
	case tcell.KeyCtrlD:
		if sp, ok := u.session.Overlay().SpanAt(u.cursor); ok {
			_ = u.session.Dismiss(context.Background(), sp.SuggestionID)
		}
	case tcell.KeyEnter:
		if sp, ok := u.session.Overlay().SpanAt(u.cursor); ok {
			if err := u.session.Accept(sp.SuggestionID); err == nil {
				u.cursor = sp.Range.Start
			}
			break
		}
		u.insert("\n")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if u.cursor > 0 {
			if err := u.session.Delete(u.cursor-1, u.cursor); err == nil {
				u.cursor--
			}
		}
	case tcell.KeyLeft:
		if u.cursor > 0 {
			u.cursor--
		}
	case tcell.KeyRight:
		if u.cursor < u.session.Buffer().Len() {
			u.cursor++
		}
	case tcell.KeyUp:
		u.moveVertical(-1)
	case tcell.KeyDown:
		u.moveVertical(1)
	case tcell.KeyRune:
		u.insert(string(ev.Rune()))
	}
	return false
}

func (u *UI) insert(text string) {
	if err := u.session.Insert(u.cursor, text); err == nil {
		u.cursor += buffer.Offset(len([]rune(text)))
	}
}

func (u *UI) moveVertical(delta int) {
	buf := u.session.Buffer()
	pt := buf.OffsetToPoint(u.cursor)
	line := int(pt.Line) + delta
	if line < 0 {
		line = 0
	}
	u.cursor = buf.PointToOffset(buffer.Point{Line: uint32(line), Column: pt.Column})
}

func (u *UI) handleMouse(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		return
	}
	x, y := ev.Position()
	off, ok := u.offsetAt[cellPos{x, y}]
	if !ok {
		return
	}
	u.cursor = off
	if sp, ok := u.session.Overlay().SpanAt(off); ok {
		u.session.Click(sp.SuggestionID)
	}
}

func (u *UI) draw() {
	u.screen.Clear()
	width, height := u.screen.Size()
	u.offsetAt = make(map[cellPos]buffer.Offset)
	u.cursorXY = cellPos{0, 0}

	text := u.session.Text()
	set := u.session.Overlay()

	x, y := 0, 0
	offset := buffer.Offset(0)
	for g := uniseg.NewGraphemes(text); g.Next(); {
		runes := g.Runes()
		if offset == u.cursor {
			u.cursorXY = cellPos{x, y}
		}

		if len(runes) == 1 && runes[0] == '\n' {
			u.offsetAt[cellPos{x, y}] = offset
			x = 0
			y++
			offset++
			continue
		}

		w := g.Width()
		if x+w > width {
			x = 0
			y++
		}
		if y >= height-1 {
			break
		}

		style := tcell.StyleDefault
		if sp, ok := set.SpanAt(offset); ok {
			style = categoryStyle(sp.Category)
		}
		u.screen.SetContent(x, y, runes[0], runes[1:], style)
		for i := 0; i < w; i++ {
			u.offsetAt[cellPos{x + i, y}] = offset
		}
		x += w
		offset += buffer.Offset(len(runes))
	}
	if offset == u.cursor {
		u.cursorXY = cellPos{x, y}
	}

	u.drawPopup(width, height)
	u.drawStatus(width, height)
	u.screen.ShowCursor(u.cursorXY.x, u.cursorXY.y)
	u.screen.Show()
}

// drawPopup renders the suggestion card for the span under the cursor,
// anchored above the span when there is room and below otherwise.
func (u *UI) drawPopup(width, height int) {
	sp, ok := u.session.Overlay().SpanAt(u.cursor)
	if !ok {
		return
	}

	lines := []string{sp.Message, sp.OriginalText + " -> " + sp.SuggestionText}
	boxW := 0
	for _, l := range lines {
		if w := uniseg.StringWidth(l) + 2; w > boxW {
			boxW = w
		}
	}
	if boxW > width {
		boxW = width
	}

	box, _ := overlay.AnchorPopup(
		overlay.Rect{X: u.cursorXY.x, Y: u.cursorXY.y, Width: 1, Height: 1},
		overlay.Size{Width: boxW, Height: len(lines)},
		overlay.Size{Width: width, Height: height - 1},
	)

	style := tcell.StyleDefault.Reverse(true)
	for i, l := range lines {
		yy := box.Y + i
		if yy < 0 || yy >= height-1 {
			continue
		}
		xx := box.X
		for j := 0; j < boxW; j++ {
			u.screen.SetContent(xx+j, yy, ' ', nil, style)
		}
		col := xx + 1
		for g := uniseg.NewGraphemes(l); g.Next(); {
			if col >= xx+boxW-1 {
				break
			}
			runes := g.Runes()
			u.screen.SetContent(col, yy, runes[0], runes[1:], style)
			col += g.Width()
		}
	}
}

func (u *UI) drawStatus(width, height int) {
	text := u.session.Text()
	line := fmt.Sprintf(" %s | %d words %d chars", u.status, rewrite.CountWords(text), rewrite.CountCharacters(text))
	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < width; x++ {
		u.screen.SetContent(x, height-1, ' ', nil, style)
	}
	col := 0
	for g := uniseg.NewGraphemes(line); g.Next(); {
		if col >= width {
			break
		}
		runes := g.Runes()
		u.screen.SetContent(col, height-1, runes[0], runes[1:], style)
		col += g.Width()
	}
}

func categoryStyle(cat service.Category) tcell.Style {
	switch cat {
	case service.CategorySpelling:
		return tcell.StyleDefault.Foreground(tcell.ColorRed).Underline(true)
	case service.CategoryGrammar:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow).Underline(true)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorBlue).Underline(true)
	}
}
