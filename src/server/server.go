package server

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/recallstack/go-qa/src/memory/store"
	"github.com/recallstack/go-qa/src/qa"
)

// Server exposes the QA service over HTTP. Handlers only shape requests and
// responses; all behavior lives in the service.
type Server struct {
	svc *qa.Service
}

func New(svc *qa.Service) *Server {
	return &Server{svc: svc}
}

type askRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
}

// Echo builds the routed engine. Unexpected panics become a generic 500; all
// error payloads use the {"detail": ...} shape.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.HTTPErrorHandler = errorHandler

	e.GET("/", s.root)
	e.POST("/ask", s.ask)
	e.GET("/history", s.history)
	e.POST("/search-pinecone", s.searchPrimary)
	e.POST("/search-chroma", s.searchSecondary)
	e.GET("/chroma/debug", s.debug)
	return e
}

// Start runs the engine until it fails or is shut down.
func (s *Server) Start(addr string) error {
	return s.Echo().Start(addr)
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	detail := "Internal Server Error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
	}
	if code == http.StatusInternalServerError {
		log.Printf("[http] %s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
		detail = "Internal Server Error"
	}
	if !c.Response().Committed {
		_ = c.JSON(code, echo.Map{"detail": detail})
	}
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Ask me Anything!"})
}

func (s *Server) ask(c echo.Context) error {
	var in askRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid json body")
	}
	if in.Question == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "field 'question' is required")
	}

	answer, err := s.svc.Ask(c.Request().Context(), in.Question, in.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "success",
		"user_id":   answer.UserID,
		"timestamp": answer.Timestamp,
		"answer":    answer.Text,
	})
}

func (s *Server) history(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "query parameter 'user_id' is required")
	}

	entries, err := s.svc.History(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "success",
		"user_id":   userID,
		"questions": entries,
	})
}

func (s *Server) searchPrimary(c echo.Context) error {
	return s.search(c, s.svc.SearchPrimary)
}

func (s *Server) searchSecondary(c echo.Context) error {
	return s.search(c, s.svc.SearchSecondary)
}

func (s *Server) search(c echo.Context, fn func(context.Context, string) ([]store.QARecord, error)) error {
	query := c.QueryParam("query")
	if query == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "query parameter 'query' is required")
	}

	matches, err := fn(c.Request().Context(), query)
	if err != nil {
		return err
	}
	results := make([]echo.Map, 0, len(matches))
	for _, m := range matches {
		results = append(results, echo.Map{
			"id":       m.ID,
			"text":     m.Text,
			"score":    m.Score,
			"metadata": m.Metadata(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"query":   query,
		"results": results,
	})
}

func (s *Server) debug(c echo.Context) error {
	count, items, err := s.svc.Debug(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": count,
		"items": items,
	})
}
