package server

import (
	"time"

	"backend-breathstats/internal/auth"
	"backend-breathstats/internal/calibration"
	"backend-breathstats/internal/config"
	"backend-breathstats/internal/minigame"
	"backend-breathstats/internal/pacient"
	"backend-breathstats/internal/plataform"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/statistics"
	"backend-breathstats/internal/store"
	"backend-breathstats/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Store    store.Store
	Redis    *redis.Client
	Stream   *stream.Hub
	Logger   *zap.Logger
	Location *time.Location
}

func NewServer(cfg config.Config, st store.Store, redisClient *redis.Client, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          envelope.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger(logger))

	s := &Server{
		App:      app,
		Cfg:      cfg,
		Store:    st,
		Redis:    redisClient,
		Stream:   stream.NewHub(redisClient, logger),
		Logger:   logger,
		Location: loc,
	}

	registerRoutes(s)
	return s, nil
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		if err := s.Store.Ping(c.UserContext()); err != nil {
			s.Logger.Warn("store ping failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	gameToken := auth.GameTokenMiddleware(auth.NewGate(s.Store))
	engine := statistics.NewEngine(s.Store, s.Store, s.Location)

	pacients := s.App.Group("/pacients")
	statistics.RegisterRoutes(pacients, statistics.NewService(engine, s.Location), gameToken)
	pacient.RegisterRoutes(pacients, pacient.NewService(s.Store), gameToken)

	plataform.RegisterRoutes(s.App.Group("/plataform-overviews"), plataform.NewService(s.Store), gameToken)
	minigame.RegisterRoutes(s.App.Group("/minigame-overviews"), minigame.NewService(s.Store, s.Stream), gameToken)
	calibration.RegisterRoutes(s.App.Group("/calibration-overviews"), calibration.NewService(s.Store, s.Stream), gameToken)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Store, gameToken)
}
