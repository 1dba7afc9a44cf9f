// Package api serves a leaderboard.Board over HTTP.
package api

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/gekko3d/ringrun/leaderboard"
)

type Server struct {
	app    *fiber.App
	board  *leaderboard.Board
	logger *slog.Logger
}

// SubmitRequest is the body of a score submission.
type SubmitRequest struct {
	User string  `json:"user"`
	Time float64 `json:"time"`
}

type SubmitResponse struct {
	Rank    int                 `json:"rank"`
	Entries []leaderboard.Entry `json:"entries"`
}

func NewServer(board *leaderboard.Board, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{board: board, logger: logger}

	app := fiber.New(fiber.Config{
		AppName:               "ringrun leaderboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/leaderboard/global", s.handleGlobal)
	api.Get("/leaderboard/:seed/:rings", s.handleCourse)
	api.Post("/leaderboard/:seed/:rings", s.handleSubmit)

	s.app = app
	return s
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("leaderboard API listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleGlobal(c *fiber.Ctx) error {
	return c.JSON(orEmpty(s.board.Global(c.UserContext())))
}

func (s *Server) handleCourse(c *fiber.Ctx) error {
	seed, rings, err := courseParams(c)
	if err != nil {
		return err
	}
	return c.JSON(orEmpty(s.board.Course(c.UserContext(), seed, rings)))
}

func (s *Server) handleSubmit(c *fiber.Ctx) error {
	seed, rings, err := courseParams(c)
	if err != nil {
		return err
	}
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.UserContext()
	rank, err := s.board.Record(ctx, leaderboard.Entry{User: req.User, Time: req.Time, Seed: seed, Rings: rings})
	if errors.Is(err, leaderboard.ErrInvalidEntry) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(SubmitResponse{
		Rank:    rank,
		Entries: orEmpty(s.board.Course(ctx, seed, rings)),
	})
}

func courseParams(c *fiber.Ctx) (uint64, int, error) {
	seed, err := strconv.ParseUint(c.Params("seed"), 10, 64)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "seed must be an unsigned integer")
	}
	rings, err := strconv.Atoi(c.Params("rings"))
	if err != nil || rings <= 0 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "rings must be a positive integer")
	}
	return seed, rings, nil
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func orEmpty(list []leaderboard.Entry) []leaderboard.Entry {
	if list == nil {
		return []leaderboard.Entry{}
	}
	return list
}
