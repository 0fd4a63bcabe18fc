package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/logger"
	"github.com/samcharles93/poet/internal/version"
	"github.com/samcharles93/poet/internal/webui"
)

type Server struct {
	service *PoemService
}

func NewServer(service *PoemService) *Server {
	return &Server{service: service}
}

func (s *Server) Register(e *echo.Echo) {
	page := webui.Handler()
	e.GET("/", func(c *echo.Context) error {
		page.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/genres", s.handleListGenres)
	e.POST("/v1/poems", s.handleCreatePoem)
	e.GET("/v1/poems/:id", s.handleGetPoem)
	e.DELETE("/v1/poems/:id", s.handleDeletePoem)
}

// NewEcho returns an echo instance with request logging, panic recovery and
// the poem routes registered.
func NewEcho(s *Server) *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Resolve().Version,
	})
}

func (s *Server) handleListGenres(c *echo.Context) error {
	genres := s.service.provider.Genres()
	data := make([]GenreInfo, 0, len(genres))
	for i, g := range genres {
		data = append(data, GenreInfo{
			Key:     g.Key,
			Name:    g.Name,
			Rows:    g.Rows,
			Cols:    g.Cols,
			Length:  g.Length(),
			Aliases: genre.Aliases(g),
			Default: i == 0,
		})
	}
	return c.JSON(http.StatusOK, GenreList{Object: "list", Data: data})
}

func (s *Server) handleCreatePoem(c *echo.Context) error {
	req, err := decodeJSON[PoemRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "invalid JSON body: "+err.Error(), "")
	}
	job, err := s.service.Prepare(&req)
	if err != nil {
		return writeServiceError(c, err)
	}

	ctx := c.Request().Context()
	if !req.Stream {
		poem, err := s.service.Run(ctx, job, nil)
		if err != nil {
			logger.FromContext(ctx).Error("poem generation failed", "genre", job.genre.Key, "error", err)
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, poem)
	}

	stream, err := NewSSEStreamWriter(c, job.id)
	if err != nil {
		return writeBadRequest(c, err.Error(), "stream")
	}
	poem, err := s.service.Run(ctx, job, stream.EmitChar)
	if err != nil {
		logger.FromContext(ctx).Error("poem generation failed", "genre", job.genre.Key, "error", err)
		return stream.Failed(err)
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return stream.Complete(poem)
}

func (s *Server) handleGetPoem(c *echo.Context) error {
	poem, ok := s.service.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "poem not found")
	}
	return c.JSON(http.StatusOK, poem)
}

func (s *Server) handleDeletePoem(c *echo.Context) error {
	id := c.Param("id")
	if !s.service.store.Delete(id) {
		return writeNotFound(c, "poem not found")
	}
	return c.JSON(http.StatusOK, DeletePoemResp{ID: id, Object: "poem", Deleted: true})
}
