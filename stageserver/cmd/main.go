package main

import (
	"context"
	"net/http"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/imtaco/voice-stage/audioengine"
	"github.com/imtaco/voice-stage/internal/config"
	"github.com/imtaco/voice-stage/internal/errors"
	"github.com/imtaco/voice-stage/internal/httputil"
	wsrpc "github.com/imtaco/voice-stage/internal/jsonrpc/websocket"
	"github.com/imtaco/voice-stage/internal/jwt"
	"github.com/imtaco/voice-stage/internal/log"
	"github.com/imtaco/voice-stage/internal/otel"
	"github.com/imtaco/voice-stage/internal/workflow"
	"github.com/imtaco/voice-stage/room"
	"github.com/imtaco/voice-stage/stageserver/signal"
	"github.com/imtaco/voice-stage/stageserver/transport"
)

type Config struct {
	App       config.App         `mapstructure:"app"`
	WSHttp    httputil.Config    `mapstructure:"ws_http"`
	AdminHttp httputil.Config    `mapstructure:"admin_http"`
	Otel      otel.Config        `mapstructure:"otel"`
	Room      room.Config        `mapstructure:"room"`
	Engine    audioengine.Config `mapstructure:"audio_engine"`
	Admin     transport.Config   `mapstructure:"admin"`

	JWTSecret string `mapstructure:"jwt_secret"`

	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func loadConfig() (*Config, error) {
	return config.Load(&Config{}, func(v *viper.Viper) {
		v.SetDefault("jwt_secret", "MY-secret-key-change-in-production")
		v.SetDefault("allowed_origins", []string{"*"})

		config.Setup(v, "app")
		otel.Setup(v, "otel")
		room.Setup(v, "room")
		audioengine.Setup(v, "audio_engine")
		transport.Setup(v, "admin")
		httputil.Setup(v, "ws_http")
		httputil.Setup(v, "admin_http")

		// override default addrs to ease testing
		v.SetDefault("ws_http.addr", "0.0.0.0:8081")
		v.SetDefault("admin_http.addr", "0.0.0.0:8082")
	})
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	logger, err := log.NewLogger(config.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// Initialize OpenTelemetry
	otelShutdown, err := otel.Init(ctx, &config.Otel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OTEL provider", log.Error(err))
	}

	logger.Info("Starting Stage Server...")

	jwtAuth := jwt.NewAuth(config.JWTSecret)

	// An engine base URL selects the HTTP bridge; without one the room
	// runs listen-only against the noop engine.
	var engine room.AudioEngine
	var engineClose func()
	if config.Engine.BaseURL == "" {
		logger.Warn("No audio engine configured, running listen-only")
		engine = audioengine.NewNoop(logger.Module("AudioEngine"))
		engineClose = func() {}
	} else {
		httpEngine := audioengine.NewHTTP(config.Engine, logger.Module("AudioEngine"))
		engine = httpEngine
		engineClose = func() { _ = httpEngine.Close() }
	}

	roomSvc := room.NewService(config.Room, engine, logger.Module("Room"))

	connGuard := signal.NewConnGuard(logger.Module("ConnGuard"))
	hook := signal.NewWSHook(
		roomSvc,
		connGuard,
		jwtAuth,
		config.Room.ID,
		logger.Module("WSHook"),
	)
	wsRPCServer := wsrpc.NewServer(
		hook,
		config.AllowedOrigins,
		logger.Module("WSRPC"),
	)
	signalServer := signal.NewServer(
		wsRPCServer,
		roomSvc,
		logger.Module("Signal"),
	)

	adminRouter := transport.NewRouter(
		config.Admin,
		roomSvc,
		jwtAuth,
		config.Room.ID,
		logger.Module("Admin"),
	)

	if err := signalServer.Open(ctx); err != nil {
		logger.Fatal("Failed to open Signal Server", log.Error(err))
	}

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", wsRPCServer.HandleWebSocket)
	wsServer := httputil.NewServer(&config.WSHttp, wsMux)
	adminServer := httputil.NewServer(&config.AdminHttp, adminRouter.Handler())

	g := new(errgroup.Group)
	g.Go(func() error {
		logger.Info("Starting WebSocket server", log.String("addr", config.WSHttp.Addr))
		return wsServer.Listen()
	})
	g.Go(func() error {
		logger.Info("Starting admin server", log.String("addr", config.AdminHttp.Addr))
		return adminServer.Listen()
	})
	go func() {
		if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server exited", log.Error(err))
		}
	}()

	// Graceful shutdown
	cleanup := func(ctx context.Context) {
		_ = wsServer.Shutdown(ctx)
		_ = adminServer.Shutdown(ctx)

		if err := signalServer.Close(); err != nil {
			logger.Error("Error closing Signal Server", log.Error(err))
		}
		roomSvc.Shutdown()
		engineClose()

		if err := otelShutdown(ctx); err != nil {
			logger.Error("Failed to shutdown OTEL", log.Error(err))
		}
	}
	workflow.WaitGracefulShutdown(ctx, logger.Module("CleanUp"), cleanup, config.App.ShutdownTimeout)
}
