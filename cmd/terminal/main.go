// Command terminal plays the simulation in a terminal. Arrow keys or the
// mouse aim, space or a click fires.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"arcade-defense/internal/audio"
	"arcade-defense/internal/config"
	"arcade-defense/internal/game"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/joho/godotenv"
)

const (
	frameInterval = 16 * time.Millisecond // ~60 FPS
	cursorStep    = 10.0
)

type terminalGame struct {
	screen tcell.Screen
	engine *game.Engine
	cursor game.Vec2
	start  time.Time
	audio  bool
}

func newTerminalGame(cfg config.AppConfig, mute bool) (*terminalGame, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()

	engine := game.NewEngine(game.EngineConfig{
		TickRate:       cfg.Sim.TickRate,
		WorldWidth:     cfg.Sim.Width,
		WorldHeight:    cfg.Sim.Height,
		StallThreshold: cfg.Sim.StallThreshold,
		Seed:           cfg.Sim.Seed,
	})

	g := &terminalGame{
		screen: screen,
		engine: engine,
		cursor: game.Vec2{X: cfg.Sim.Width / 2, Y: cfg.Sim.Height / 3},
		start:  time.Now(),
	}

	if mute {
		return g, nil
	}
	synth := audio.NewSynth(beep.SampleRate(cfg.Audio.SampleRate), cfg.Audio.Volume)
	if err := audio.PlayOnSpeaker(synth); err != nil {
		// Non-fatal, the game runs without sound
		log.Printf("⚠️ Audio disabled: %v", err)
	} else {
		engine.SetAudio(synth)
		g.audio = true
	}
	return g, nil
}

func (g *terminalGame) viewport() viewport {
	cols, rows := g.screen.Size()
	snap := g.engine.GetSnapshot()
	return viewport{cols: cols, rows: rows, worldW: snap.Width, worldH: snap.Height}
}

// handleInput applies one terminal event. It returns false to quit.
func (g *terminalGame) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		switch ev.Key() {
		case tcell.KeyUp:
			g.cursor.Y -= cursorStep
		case tcell.KeyDown:
			g.cursor.Y += cursorStep
		case tcell.KeyLeft:
			g.cursor.X -= cursorStep
		case tcell.KeyRight:
			g.cursor.X += cursorStep
		case tcell.KeyRune:
			return g.handleRune(ev.Rune())
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		g.cursor = g.viewport().toWorld(x, y)
		if ev.Buttons()&tcell.Button1 != 0 {
			g.fire()
		}

	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

func (g *terminalGame) handleRune(r rune) bool {
	var err error
	switch r {
	case 'q':
		return false
	case ' ':
		g.fire()
	case '1':
		_, err = g.engine.StartRun(game.Easy, game.Upgrades{})
	case '2':
		_, err = g.engine.StartRun(game.Normal, game.Upgrades{})
	case '3':
		_, err = g.engine.StartRun(game.Hard, game.Upgrades{})
	case 'p':
		if g.engine.GetSnapshot().State == game.StatePaused.String() {
			err = g.engine.Resume()
		} else {
			err = g.engine.Pause()
		}
	case 'n':
		err = g.engine.NextLevel(game.Upgrades{})
	case 'm':
		err = g.engine.ReturnToMenu()
	}
	if err != nil && !errors.Is(err, game.ErrInvalidTransition) {
		log.Printf("⚠️ %c: %v", r, err)
	}
	return true
}

func (g *terminalGame) fire() {
	if err := g.engine.Fire(g.cursor.X, g.cursor.Y, "terminal"); err != nil {
		log.Printf("⚠️ fire: %v", err)
	}
}

func (g *terminalGame) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return
			}

		case <-ticker.C:
			g.engine.Frame(time.Since(g.start))
			draw(g.screen, g.engine.GetSnapshot(), g.cursor)
		}
	}
}

func (g *terminalGame) cleanup() {
	if g.audio {
		speaker.Close()
	}
	g.screen.Fini()
}

func main() {
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	// The screen owns stdout, so logs go to a file.
	if f, err := os.OpenFile("terminal.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	_ = godotenv.Load(".env")

	g, err := newTerminalGame(config.Load(), *mute)
	if err != nil {
		log.Fatalf("❌ Terminal init failed: %v", err)
	}
	defer g.cleanup()

	g.run()
}
