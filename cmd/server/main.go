package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"arcade-defense/internal/api"
	"arcade-defense/internal/audio"
	"arcade-defense/internal/config"
	"arcade-defense/internal/game"
	"arcade-defense/internal/render"

	"github.com/gopxl/beep"
	"github.com/joho/godotenv"
)

func main() {
	issueToken := flag.Bool("issue-admin-token", false, "print an admin token signed with ADMIN_JWT_SECRET and exit")
	tokenTTL := flag.Duration("token-ttl", api.AdminTokenTTL, "lifetime of tokens printed by -issue-admin-token")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	appConfig := config.Load()
	simCfg := appConfig.Sim
	serverCfg := appConfig.Server

	var adminAuth *api.AdminAuth
	if serverCfg.AdminSecret != "" {
		auth, err := api.NewAdminAuth(serverCfg.AdminSecret)
		if err != nil {
			log.Fatalf("❌ ADMIN_JWT_SECRET: %v", err)
		}
		adminAuth = auth
	}

	if *issueToken {
		if adminAuth == nil {
			log.Fatal("❌ ADMIN_JWT_SECRET is not set")
		}
		token, err := adminAuth.IssueToken("cli", api.RoleAdmin, *tokenTTL)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Println(token)
		return
	}

	log.Println("🎮 ================================")
	log.Println("🎮  ARCADE DEFENSE - GO ENGINE")
	log.Println("🎮 ================================")
	log.Printf("🎮 Config: %d TPS, %.0fx%.0f world, %s difficulty", simCfg.TickRate, simCfg.Width, simCfg.Height, simCfg.Difficulty)

	engine := game.NewEngine(game.EngineConfig{
		TickRate:       simCfg.TickRate,
		WorldWidth:     simCfg.Width,
		WorldHeight:    simCfg.Height,
		StallThreshold: simCfg.StallThreshold,
		Seed:           simCfg.Seed,
		LeaderboardCap: simCfg.LeaderboardCap,
		Limits: game.ResourceLimits{
			MaxEnemies:      appConfig.Limits.MaxEnemies,
			MaxInterceptors: appConfig.Limits.MaxInterceptors,
			MaxProjectiles:  appConfig.Limits.MaxProjectiles,
			MaxExplosions:   appConfig.Limits.MaxExplosions,
		},
	})
	limits := engine.GetLimits()
	log.Printf("🛡️ Snapshot limits: %d enemies, %d interceptors, %d projectiles, %d explosions",
		limits.MaxEnemies, limits.MaxInterceptors, limits.MaxProjectiles, limits.MaxExplosions)

	engine.SetTickObserver(api.ObserveTick)
	engine.SetCallbacks(
		func(stats game.LevelStats, score int64) {
			log.Printf("🏁 Level complete: score=%d stats=%+v", score, stats)
		},
		func(run game.RunRecord) {
			log.Printf("💀 Run %s over: score=%d level=%d", run.RunID, run.Score, run.Level)
		},
	)

	if serverCfg.EventLogPath != "" {
		if err := engine.StartEventLog(serverCfg.EventLogPath); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", serverCfg.EventLogPath)
		}
	}

	if appConfig.Audio.Enabled {
		synth := audio.NewSynth(beep.SampleRate(appConfig.Audio.SampleRate), appConfig.Audio.Volume)
		if err := audio.PlayOnSpeaker(synth); err != nil {
			log.Printf("⚠️ Audio disabled: %v", err)
		} else {
			engine.SetAudio(synth)
		}
	}

	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.ListenAddr = serverCfg.DebugAddr
	debugCfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	debugCfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
	debugServer := api.StartDebugServer(debugCfg)

	if adminAuth != nil {
		log.Println("🔐 Admin authentication ENABLED for save/restore")
	} else {
		log.Println("⚠️ Admin authentication DISABLED (set ADMIN_JWT_SECRET to enable)")
	}

	server := api.NewServer(engine, api.ServerOptions{
		Renderer: render.NewRenderer(render.Config{
			Width:    appConfig.Render.Width,
			Height:   appConfig.Render.Height,
			FontPath: appConfig.Render.FontPath,
		}),
		Admin:          adminAuth,
		AllowedOrigins: serverCfg.AllowedOrigins,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: serverCfg.RequestsPerSec,
			Burst:             serverCfg.Burst,
			FiresPerSecond:    serverCfg.FiresPerSec,
			FireBurst:         serverCfg.FireBurst,
		},
		TrustProxy:        serverCfg.TrustProxy,
		DefaultDifficulty: game.ParseDifficulty(simCfg.Difficulty),
	})

	engine.Start()
	log.Println("✅ Game Engine started")

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}
	engine.Stop()
	engine.StopEventLog()
	log.Println("👋 Goodbye!")
}
