package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nextread/backend/internal/catalog"
	"github.com/nextread/backend/internal/config"
	"github.com/nextread/backend/internal/engine"
)

const (
	DefaultReviewLimit = 10
	MaxReviewLimit     = 100
)

type Server struct {
	Engine *engine.Engine
	Logger *logrus.Entry
	Router chi.Router

	config      config.ServerConfig
	reviewLimit int
	validate    *validator.Validate
	startTime   time.Time
}

func NewServer(eng *engine.Engine, cfg config.ServerConfig, reviewLimit int, logger *logrus.Entry) *Server {
	if reviewLimit <= 0 || reviewLimit > MaxReviewLimit {
		reviewLimit = DefaultReviewLimit
	}
	s := &Server{
		Engine:      eng,
		Logger:      logger,
		Router:      chi.NewRouter(),
		config:      cfg,
		reviewLimit: reviewLimit,
		validate:    validator.New(),
		startTime:   time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Use(RequestID)
	s.Router.Use(chimiddleware.RealIP)
	s.Router.Use(AccessLog(s.Logger))
	s.Router.Use(chimiddleware.Recoverer)
	s.Router.Use(CORS(s.config.AllowedOrigins))

	s.Router.Get("/health", s.handleHealth)
	s.Router.Handle("/metrics", promhttp.Handler())

	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(s.config.RateLimit))

		r.Get("/search", s.handleSearch)
		r.Get("/genres", s.handleGenres)
		r.Get("/books/{id}", s.handleBook)
		r.Get("/books/{id}/reviews", s.handleReviews)
		r.Get("/status", s.handleStatus)
	})

	s.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})
	s.Router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	})
}

// ServeHTTP makes Server usable as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Requests

type SearchRequest struct {
	Query string `validate:"max=256"`
	Genre string `validate:"max=128"`
}

type ReviewsRequest struct {
	Limit int `validate:"min=1,max=100"`
}

// Responses

type ErrorResponse struct {
	Error string `json:"error"`
}

type SearchResponse struct {
	Query   string               `json:"query"`
	Genre   string               `json:"genre"`
	Tier    engine.Tier          `json:"tier"`
	Count   int                  `json:"count"`
	Results []catalog.Projection `json:"results"`
}

type GenresResponse struct {
	Genres []string `json:"genres"`
}

type BookResponse struct {
	catalog.Projection
	ReviewCount int `json:"review_count"`
}

type ReviewsResponse struct {
	WorkID  string           `json:"work_id"`
	Count   int              `json:"count"`
	Reviews []catalog.Review `json:"reviews"`
}

type StatusResponse struct {
	Books          int    `json:"books"`
	Genres         int    `json:"genres"`
	VocabularySize int    `json:"vocabulary_size"`
	OrphanReviews  int    `json:"orphan_reviews"`
	Uptime         string `json:"uptime"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req := SearchRequest{
		Query: r.URL.Query().Get("q"),
		Genre: r.URL.Query().Get("genre"),
	}
	if err := s.validate.Struct(req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: validationMessage(err)})
		return
	}

	result := s.Engine.Resolve(req.Query, req.Genre)

	genre := req.Genre
	if genre == "" {
		genre = s.Engine.AllGenres()
	}
	books := result.Books
	if books == nil {
		books = []catalog.Projection{}
	}

	jsonResponse(w, http.StatusOK, SearchResponse{
		Query:   req.Query,
		Genre:   genre,
		Tier:    result.Tier,
		Count:   len(books),
		Results: books,
	})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	labels := s.Engine.State.Genres
	genres := make([]string, 0, len(labels)+1)
	genres = append(genres, s.Engine.AllGenres())
	genres = append(genres, labels...)
	jsonResponse(w, http.StatusOK, GenresResponse{Genres: genres})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, ok := s.Engine.State.Catalog.ByID(id)
	if !ok {
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: "Book not found"})
		return
	}

	jsonResponse(w, http.StatusOK, BookResponse{
		Projection:  book.Projection(),
		ReviewCount: s.Engine.State.Catalog.ReviewCount(id),
	})
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.Engine.State.Catalog.ByID(id); !ok {
		jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: "Book not found"})
		return
	}

	req := ReviewsRequest{Limit: s.reviewLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
			return
		}
		req.Limit = limit
	}
	if err := s.validate.Struct(req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: validationMessage(err)})
		return
	}

	reviews := s.Engine.State.Catalog.RecentReviews(id, req.Limit)
	if reviews == nil {
		reviews = []catalog.Review{}
	}
	jsonResponse(w, http.StatusOK, ReviewsResponse{
		WorkID:  id,
		Count:   len(reviews),
		Reviews: reviews,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.Engine.State
	jsonResponse(w, http.StatusOK, StatusResponse{
		Books:          state.Catalog.Len(),
		Genres:         len(state.Genres),
		VocabularySize: state.Index.VocabularySize(),
		OrphanReviews:  state.Catalog.OrphanReviews(),
		Uptime:         time.Since(s.startTime).Round(time.Second).String(),
	})
}

// validationMessage turns the first validator failure into a client message
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	name := map[string]string{"Query": "q", "Genre": "genre", "Limit": "limit"}[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "max":
		return name + " must be at most " + fe.Param()
	case "min":
		return name + " must be at least " + fe.Param()
	}
	return name + " is invalid"
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
