// Package render draws game snapshots to images with gg.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"sync"

	"arcade-defense/internal/game"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Config holds renderer settings.
type Config struct {
	Width    int    // Output width in px; 0 uses the world width
	Height   int    // Output height in px; 0 uses the world height
	FontPath string // TTF for the HUD; empty searches common locations
}

// Renderer turns snapshots into frames. It is safe for concurrent use;
// renders are serialized on one reusable context.
type Renderer struct {
	config Config

	mu  sync.Mutex
	dc  *gg.Context
	enc png.Encoder

	fontSmall font.Face
	fontLarge font.Face
}

// NewRenderer creates a renderer and loads the HUD fonts once. Without a
// usable TTF it falls back to the built-in bitmap face.
func NewRenderer(config Config) *Renderer {
	r := &Renderer{
		config:    config,
		enc:       png.Encoder{CompressionLevel: png.BestSpeed},
		fontSmall: basicfont.Face7x13,
		fontLarge: basicfont.Face7x13,
	}
	r.loadFonts()
	return r
}

func (r *Renderer) loadFonts() {
	path := r.config.FontPath
	if path == "" {
		path = findFont()
	}
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️ Failed to read font %s: %v", path, err)
		return
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		log.Printf("⚠️ Failed to parse font: %v", err)
		return
	}

	small, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 14, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("⚠️ Failed to create small font face: %v", err)
		return
	}
	large, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 40, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("⚠️ Failed to create large font face: %v", err)
		return
	}
	r.fontSmall, r.fontLarge = small, large
	log.Printf("✅ Fonts loaded from: %s", path)
}

func findFont() string {
	paths := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// RenderPNG draws snap and writes it to w as PNG.
func (r *Renderer) RenderPNG(w io.Writer, snap *game.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := r.render(snap)
	if err := r.enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

// Render draws snap and returns a copy of the frame.
func (r *Renderer) Render(snap *game.GameSnapshot) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := r.render(snap).(*image.RGBA)
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

// render draws into the shared context. Callers hold r.mu.
func (r *Renderer) render(snap *game.GameSnapshot) image.Image {
	worldW, worldH := snap.Width, snap.Height
	if worldW <= 0 || worldH <= 0 {
		worldW, worldH = game.DefaultWorldWidth, game.DefaultWorldHeight
	}
	w, h := r.config.Width, r.config.Height
	if w <= 0 || h <= 0 {
		w, h = int(worldW), int(worldH)
	}
	if r.dc == nil || r.dc.Width() != w || r.dc.Height() != h {
		r.dc = gg.NewContext(w, h)
	}
	dc := r.dc

	dc.Identity()
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.Clear()

	dc.Push()
	dc.Scale(float64(w)/worldW, float64(h)/worldH)
	drawGround(dc, snap, worldW, worldH)
	drawBuildings(dc, snap.Buildings)
	drawShield(dc, snap)
	drawExplosions(dc, snap.Explosions)
	drawEnemies(dc, snap.Enemies)
	drawInterceptors(dc, snap.Interceptors)
	drawProjectiles(dc, snap.Projectiles)
	drawLauncher(dc, snap.Launcher)
	dc.Pop()

	r.drawHUD(dc, snap, float64(w), float64(h))
	return dc.Image()
}

func drawGround(dc *gg.Context, snap *game.GameSnapshot, w, h float64) {
	dc.SetColor(color.RGBA{30, 40, 30, 255})
	dc.DrawRectangle(0, snap.DefenseLine, w, h-snap.DefenseLine)
	dc.Fill()
}

func drawBuildings(dc *gg.Context, buildings []game.BuildingSnapshot) {
	for _, b := range buildings {
		if b.Destroyed {
			// Rubble
			dc.SetColor(color.RGBA{70, 60, 55, 255})
			dc.DrawRectangle(b.X, b.Y+b.H*0.7, b.W, b.H*0.3)
			dc.Fill()
			continue
		}
		dc.SetColor(color.RGBA{80, 140, 200, 255})
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.Fill()

		dc.SetColor(color.RGBA{255, 230, 120, 255})
		for wy := b.Y + 6; wy < b.Y+b.H-6; wy += 12 {
			for wx := b.X + 6; wx < b.X+b.W-6; wx += 14 {
				dc.DrawRectangle(wx, wy, 6, 6)
			}
		}
		dc.Fill()
	}
}

func drawShield(dc *gg.Context, snap *game.GameSnapshot) {
	frac := snap.Shield.Fraction()
	if frac <= 0 {
		return
	}
	dc.SetColor(color.RGBA{90, 200, 255, uint8(40 + 120*frac)})
	dc.SetLineWidth(3)
	dc.DrawArc(snap.Launcher.X, snap.Launcher.Y, 70, gg.Radians(180), gg.Radians(360))
	dc.Stroke()
}

func drawTrail(dc *gg.Context, trail []game.Vec2, c color.RGBA) {
	n := len(trail)
	if n < 2 {
		return
	}
	dc.SetLineWidth(2)
	for i := 1; i < n; i++ {
		// Oldest first, fading in toward the head.
		c.A = uint8(255 * float64(i) / float64(n))
		dc.SetColor(c)
		dc.DrawLine(trail[i-1].X, trail[i-1].Y, trail[i].X, trail[i].Y)
		dc.Stroke()
	}
}

func enemyColor(kind string) color.RGBA {
	switch kind {
	case "fast":
		return color.RGBA{255, 200, 60, 255}
	case "heavy":
		return color.RGBA{200, 80, 255, 255}
	case "wobbly":
		return color.RGBA{60, 255, 160, 255}
	case "bullet":
		return color.RGBA{255, 255, 255, 255}
	case "laser":
		return color.RGBA{255, 40, 200, 255}
	case "bomb":
		return color.RGBA{255, 120, 40, 255}
	default:
		return color.RGBA{255, 62, 62, 255}
	}
}

func drawEnemies(dc *gg.Context, enemies []game.EnemySnapshot) {
	for _, e := range enemies {
		c := enemyColor(e.Type)
		drawTrail(dc, e.Trail, c)

		dc.SetColor(c)
		dc.DrawCircle(e.X, e.Y, 4)
		dc.Fill()

		if e.Health < 1 {
			dc.SetColor(color.RGBA{51, 51, 51, 255})
			dc.DrawRectangle(e.X-8, e.Y-10, 16, 3)
			dc.Fill()
			dc.SetColor(color.RGBA{83, 255, 69, 255})
			dc.DrawRectangle(e.X-8, e.Y-10, 16*e.Health, 3)
			dc.Fill()
		}
	}
}

func drawInterceptors(dc *gg.Context, interceptors []game.InterceptorSnapshot) {
	for _, in := range interceptors {
		drawTrail(dc, in.Trail, color.RGBA{120, 220, 255, 255})

		dc.SetColor(color.White)
		dc.DrawCircle(in.X, in.Y, 3)
		dc.Fill()

		// Target cross
		dc.SetColor(color.RGBA{120, 220, 255, 200})
		dc.SetLineWidth(1)
		dc.DrawLine(in.TargetX-5, in.TargetY-5, in.TargetX+5, in.TargetY+5)
		dc.DrawLine(in.TargetX+5, in.TargetY-5, in.TargetX-5, in.TargetY+5)
		dc.Stroke()
	}
}

func drawProjectiles(dc *gg.Context, projectiles []game.ProjectileSnapshot) {
	for _, p := range projectiles {
		drawTrail(dc, p.Trail, color.RGBA{255, 160, 60, 255})
		dc.SetColor(color.RGBA{255, 220, 160, 255})
		dc.DrawCircle(p.X, p.Y, 2)
		dc.Fill()
	}
}

func explosionColor(kind string) color.RGBA {
	switch kind {
	case "spark":
		return color.RGBA{255, 255, 200, 255}
	case "shield":
		return color.RGBA{90, 200, 255, 255}
	case "ground", "impact":
		return color.RGBA{255, 90, 40, 255}
	default:
		return color.RGBA{255, 149, 0, 255}
	}
}

func drawExplosions(dc *gg.Context, explosions []game.ExplosionSnapshot) {
	for _, x := range explosions {
		if x.Radius <= 0 {
			continue
		}
		c := explosionColor(x.Kind)
		c.A = uint8(255 * clamp01(x.Alpha))
		dc.SetColor(c)
		dc.DrawCircle(x.X, x.Y, x.Radius)
		dc.Fill()
	}
}

func drawLauncher(dc *gg.Context, at game.Vec2) {
	dc.SetColor(color.RGBA{200, 200, 210, 255})
	dc.MoveTo(at.X-14, at.Y)
	dc.LineTo(at.X, at.Y-18)
	dc.LineTo(at.X+14, at.Y)
	dc.ClosePath()
	dc.Fill()
}

func (r *Renderer) drawHUD(dc *gg.Context, snap *game.GameSnapshot, w, h float64) {
	dc.SetFontFace(r.fontSmall)
	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("SCORE %d", snap.Score), 12, 20)
	dc.DrawString(fmt.Sprintf("HIGH %d", snap.HighScore), 12, 38)
	dc.DrawStringAnchored(fmt.Sprintf("LEVEL %d  %.0fs", snap.Level, snap.TimeLeft), w/2, 14, 0.5, 0.5)
	if snap.Combo > 1 {
		dc.SetColor(color.RGBA{255, 200, 60, 255})
		dc.DrawStringAnchored(fmt.Sprintf("x%d", snap.Combo), w-12, 14, 1, 0.5)
	}

	var banner string
	switch snap.State {
	case game.StateMenu.String():
		banner = "MISSILE DEFENSE"
	case game.StatePaused.String():
		banner = "PAUSED"
	case game.StateLevelComplete.String():
		banner = fmt.Sprintf("LEVEL %d CLEARED", snap.Level)
	case game.StateGameOver.String():
		banner = "GAME OVER"
	}
	if banner != "" {
		dc.SetFontFace(r.fontLarge)
		dc.SetColor(color.RGBA{255, 255, 255, 230})
		dc.DrawStringAnchored(banner, w/2, h/2, 0.5, 0.5)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
