package ringrun

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

type UiModule struct{}

type UiButton struct {
	Label       string
	Position    [2]float64 // Screen pixels, top-left
	Width       float64    // Optional fixed width. If 0, auto-size.
	Scale       float64    // Optional scale multiplier (default 1.0)
	Color       string
	Clicked     bool
	Highlighted bool
	OnClick     func()
}

type UiTable struct {
	Headers  []string
	Rows     [][]string
	Position [2]float64
	Width    float64 // Optional fixed total width.
	Scale    float64
	// 1-based row to highlight; 0 highlights nothing.
	Highlight int
}

type TextComponent struct {
	Text     string
	Position [2]float64 // Pixels, top-left
	Scale    float64
	Color    string
}

// TextMetrics measures text in screen pixels.
type TextMetrics interface {
	MeasureText(text string, scale float64) (w, h float64)
}

// TextSurface is where the UI draws. Front ends provide one.
type TextSurface interface {
	TextMetrics
	DrawText(text string, x, y, scale float64, color string)
}

// FaceMetrics measures with a font face. The zero value uses basicfont.
type FaceMetrics struct {
	Face font.Face
}

func (m FaceMetrics) MeasureText(text string, scale float64) (float64, float64) {
	face := m.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	if scale <= 0 {
		scale = 1
	}
	w := float64(font.MeasureString(face, text).Ceil())
	h := float64(face.Metrics().Height.Ceil())
	return w * scale, h * scale
}

// UiSurface holds the front end's surface. Surface stays nil when nothing
// renders, and measurements then fall back to FaceMetrics.
type UiSurface struct {
	Surface TextSurface
}

func (ui *UiSurface) Metrics() TextMetrics {
	if ui.Surface != nil {
		return ui.Surface
	}
	return FaceMetrics{}
}

func (ui *UiSurface) lineHeight(scale float64) float64 {
	_, h := ui.Metrics().MeasureText("|", scale)
	return h
}

const (
	uiButtonPaddingChars = 2

	uiTextColor      = "#ffffff"
	uiHighlightColor = "#facc15"
)

func (UiModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&UiSurface{})
	app.UseSystem(System(uiInputSystem).InStage(PreUpdate).RunAlways())
	app.UseSystem(System(uiRenderSystem).InStage(PostRender).RunAlways())
}

func scaleOr1(scale float64) float64 {
	if scale <= 0 {
		return 1
	}
	return scale
}

// ButtonSize returns the button's outer size: a bordered box three lines high.
func ButtonSize(btn *UiButton, m TextMetrics) (w, h float64) {
	scale := scaleOr1(btn.Scale)
	tw, th := m.MeasureText(btn.Label, scale)
	padW, _ := m.MeasureText(strings.Repeat(" ", uiButtonPaddingChars+1), scale)
	w = btn.Width
	if w == 0 {
		w = tw + padW*2
	}
	return w, 3 * th
}

func uiInputSystem(ui *UiSurface, input *Input, cmd *Commands) {
	mx, my := input.MouseX, input.MouseY
	isLMB := input.JustPressed[MouseButtonLeft]
	metrics := ui.Metrics()

	MakeQuery1[UiButton](cmd).Map(func(eid EntityId, btn *UiButton) bool {
		btn.Clicked = false
		if !input.HasPointer {
			btn.Highlighted = false
			return true
		}

		w, h := ButtonSize(btn, metrics)
		if mx >= btn.Position[0] && mx <= btn.Position[0]+w &&
			my >= btn.Position[1] && my <= btn.Position[1]+h {
			btn.Highlighted = true
			if isLMB {
				btn.Clicked = true
				if btn.OnClick != nil {
					btn.OnClick()
				}
			}
		} else {
			btn.Highlighted = false
		}
		return true
	})
}

func uiRenderSystem(ui *UiSurface, cmd *Commands) {
	surface := ui.Surface
	if surface == nil {
		return
	}

	// Horizontal border: corners with dashes between.
	drawBoxHLine := func(x, y, w, scale float64, color string) {
		plusW, _ := surface.MeasureText("+", scale)
		dashW, _ := surface.MeasureText("-", scale)
		surface.DrawText("+", x, y, scale, color)
		if interiorW := w - 2*plusW; interiorW > 0 && dashW > 0 {
			surface.DrawText(strings.Repeat("-", int(interiorW/dashW)), x+plusW, y, scale, color)
		}
		surface.DrawText("+", x+w-plusW, y, scale, color)
	}

	MakeQuery1[TextComponent](cmd).Map(func(eid EntityId, text *TextComponent) bool {
		color := text.Color
		if color == "" {
			color = uiTextColor
		}
		scale := scaleOr1(text.Scale)
		lineH := ui.lineHeight(scale)
		for i, line := range strings.Split(text.Text, "\n") {
			surface.DrawText(line, text.Position[0], text.Position[1]+float64(i)*lineH, scale, color)
		}
		return true
	})

	MakeQuery1[UiButton](cmd).Map(func(eid EntityId, btn *UiButton) bool {
		color := btn.Color
		if color == "" {
			color = uiTextColor
		}
		if btn.Highlighted {
			color = uiHighlightColor
		}
		scale := scaleOr1(btn.Scale)
		w, _ := ButtonSize(btn, surface)
		tw, _ := surface.MeasureText(btn.Label, scale)
		pipeW, _ := surface.MeasureText("|", scale)
		lineH := ui.lineHeight(scale)

		x, y := btn.Position[0], btn.Position[1]
		drawBoxHLine(x, y, w, scale, color)
		y += lineH
		surface.DrawText("|", x, y, scale, color)
		surface.DrawText(btn.Label, x+(w-tw)/2, y, scale, uiTextColor)
		surface.DrawText("|", x+w-pipeW, y, scale, color)
		y += lineH
		drawBoxHLine(x, y, w, scale, color)
		return true
	})

	MakeQuery1[UiTable](cmd).Map(func(eid EntityId, table *UiTable) bool {
		if len(table.Headers) == 0 {
			return true
		}
		scale := scaleOr1(table.Scale)
		layout := LayoutTable(table, surface)
		pipeW, _ := surface.MeasureText("|", scale)
		dashW, _ := surface.MeasureText("-", scale)
		lineH := ui.lineHeight(scale)

		drawTableHLine := func(y float64) {
			x := table.Position[0]
			surface.DrawText("+", x, y, scale, uiTextColor)
			x += pipeW
			for _, cw := range layout.Columns {
				if dashW > 0 {
					surface.DrawText(strings.Repeat("-", int(cw/dashW)), x, y, scale, uiTextColor)
				}
				x += cw
				surface.DrawText("+", x, y, scale, uiTextColor)
				x += pipeW
			}
		}
		renderRow := func(items []string, y float64, color string) {
			x := table.Position[0]
			surface.DrawText("|", x, y, scale, uiTextColor)
			x += pipeW
			for i, cw := range layout.Columns {
				if i < len(items) {
					itemW, _ := surface.MeasureText(items[i], scale)
					surface.DrawText(items[i], x+(cw-itemW)/2, y, scale, color)
				}
				x += cw
				surface.DrawText("|", x, y, scale, uiTextColor)
				x += pipeW
			}
		}

		y := table.Position[1]
		drawTableHLine(y)
		y += lineH
		renderRow(table.Headers, y, uiHighlightColor)
		y += lineH
		drawTableHLine(y)
		y += lineH
		for i, row := range table.Rows {
			color := uiTextColor
			if i+1 == table.Highlight {
				color = uiHighlightColor
			}
			renderRow(row, y, color)
			y += lineH
		}
		drawTableHLine(y)
		return true
	})
}

type TableLayout struct {
	Columns []float64
	Width   float64
	Height  float64
}

// LayoutTable sizes each column to its widest cell plus padding, spreading
// any extra fixed width evenly.
func LayoutTable(table *UiTable, m TextMetrics) TableLayout {
	scale := scaleOr1(table.Scale)
	padding, lineH := m.MeasureText("  ", scale)
	pipeW, _ := m.MeasureText("|", scale)

	cols := make([]float64, len(table.Headers))
	for i, h := range table.Headers {
		tw, _ := m.MeasureText(h, scale)
		cols[i] = tw + padding
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if i >= len(cols) {
				break
			}
			if tw, _ := m.MeasureText(cell, scale); tw+padding > cols[i] {
				cols[i] = tw + padding
			}
		}
	}

	width := pipeW
	for _, cw := range cols {
		width += cw + pipeW
	}
	if extra := table.Width - width; extra > 0 && len(cols) > 0 {
		added := extra / float64(len(cols))
		for i := range cols {
			cols[i] += added
		}
		width = table.Width
	}
	return TableLayout{
		Columns: cols,
		Width:   width,
		Height:  float64(len(table.Rows)+4) * lineH,
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
