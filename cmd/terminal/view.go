package main

import (
	"fmt"

	"arcade-defense/internal/game"

	"github.com/gdamore/tcell/v2"
)

// hudRows is reserved at the top of the screen for the status line.
const hudRows = 1

// viewport maps world coordinates onto terminal cells.
type viewport struct {
	cols, rows     int
	worldW, worldH float64
}

func (v viewport) playRows() int {
	return max(1, v.rows-hudRows)
}

// toCell returns the cell for a world position.
func (v viewport) toCell(p game.Vec2) (int, int) {
	x := int(p.X / v.worldW * float64(v.cols))
	y := int(p.Y/v.worldH*float64(v.playRows())) + hudRows
	return x, y
}

// toWorld returns the world position at the center of a cell.
func (v viewport) toWorld(x, y int) game.Vec2 {
	return game.Vec2{
		X: (float64(x) + 0.5) / float64(v.cols) * v.worldW,
		Y: (float64(y-hudRows) + 0.5) / float64(v.playRows()) * v.worldH,
	}
}

func (v viewport) inside(x, y int) bool {
	return x >= 0 && x < v.cols && y >= hudRows && y < v.rows
}

var (
	styleHUD       = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBuilding  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(80, 140, 200))
	styleRubble    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(90, 80, 70))
	styleGround    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(40, 90, 40))
	styleTrail     = tcell.StyleDefault.Foreground(tcell.NewRGBColor(110, 60, 60))
	styleShot      = tcell.StyleDefault.Foreground(tcell.NewRGBColor(120, 220, 255))
	styleTurret    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 200, 140))
	styleExplosion = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 149, 0))
	styleCursor    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleBanner    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

func enemyStyle(kind string) (rune, tcell.Style) {
	switch kind {
	case "fast":
		return '>', tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case "heavy":
		return '@', tcell.StyleDefault.Foreground(tcell.ColorPurple)
	case "wobbly":
		return '~', tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case "bullet":
		return '!', tcell.StyleDefault.Foreground(tcell.ColorWhite)
	case "laser":
		return '|', tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
	case "bomb":
		return 'o', tcell.StyleDefault.Foreground(tcell.ColorOrange)
	default:
		return '*', tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
}

func (v viewport) set(s tcell.Screen, p game.Vec2, r rune, style tcell.Style) {
	x, y := v.toCell(p)
	if v.inside(x, y) {
		s.SetContent(x, y, r, nil, style)
	}
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}

// draw paints one snapshot.
func draw(s tcell.Screen, snap *game.GameSnapshot, cursor game.Vec2) {
	cols, rows := s.Size()
	v := viewport{cols: cols, rows: rows, worldW: snap.Width, worldH: snap.Height}
	s.Clear()

	_, groundY := v.toCell(game.Vec2{Y: snap.DefenseLine})
	for y := groundY; y < rows; y++ {
		for x := 0; x < cols; x++ {
			s.SetContent(x, y, '░', nil, styleGround)
		}
	}

	for _, b := range snap.Buildings {
		x0, y0 := v.toCell(game.Vec2{X: b.X, Y: b.Y})
		x1, _ := v.toCell(game.Vec2{X: b.X + b.W, Y: b.Y})
		ch, style := '█', styleBuilding
		if b.Destroyed {
			ch, style = '▁', styleRubble
			y0 = groundY - 1
		}
		for x := x0; x < max(x1, x0+1); x++ {
			for y := y0; y < groundY; y++ {
				if v.inside(x, y) {
					s.SetContent(x, y, ch, nil, style)
				}
			}
		}
	}

	for _, x := range snap.Explosions {
		v.set(s, game.Vec2{X: x.X, Y: x.Y}, '✸', styleExplosion)
	}
	for _, e := range snap.Enemies {
		for _, p := range e.Trail {
			v.set(s, p, '·', styleTrail)
		}
		r, style := enemyStyle(e.Type)
		v.set(s, game.Vec2{X: e.X, Y: e.Y}, r, style)
	}
	for _, in := range snap.Interceptors {
		for _, p := range in.Trail {
			v.set(s, p, '·', styleShot)
		}
		v.set(s, game.Vec2{X: in.X, Y: in.Y}, '^', styleShot)
	}
	for _, p := range snap.Projectiles {
		v.set(s, game.Vec2{X: p.X, Y: p.Y}, '•', styleTurret)
	}
	v.set(s, snap.Launcher, 'A', styleHUD)
	v.set(s, cursor, '+', styleCursor)

	status := fmt.Sprintf(" %s  L%d  %3.0fs  SCORE %d  HIGH %d  x%d  SHIELD %3.0f%%",
		snap.State, snap.Level, snap.TimeLeft, snap.Score, snap.HighScore, snap.Combo, snap.Shield.Fraction()*100)
	drawText(s, 0, 0, status, styleHUD)

	if banner := bannerFor(snap.State); banner != "" {
		drawText(s, max(0, (cols-len(banner))/2), rows/2, banner, styleBanner)
	}
	s.Show()
}

func bannerFor(state string) string {
	switch state {
	case game.StateMenu.String():
		return "1 easy  2 normal  3 hard  |  q quit"
	case game.StatePaused.String():
		return "PAUSED - p to resume, m for menu"
	case game.StateLevelComplete.String():
		return "LEVEL CLEARED - n for next level"
	case game.StateGameOver.String():
		return "GAME OVER - m for menu"
	default:
		return ""
	}
}
