package handler // handler package contains catalog browse and admin handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinebooker/cinebooker/internal/repository"
	"github.com/cinebooker/cinebooker/internal/seatgrid"
)

// CatalogHandler groups repositories for movies, theatres, shows and
// seats. Browse endpoints are public; the create endpoints are
// reserved for ADMIN via route middleware.
type CatalogHandler struct {
	MovieRepo   *repository.MovieRepo
	TheatreRepo *repository.TheatreRepo
	ShowRepo    *repository.ShowRepo
	SeatRepo    *repository.SeatRepo
	Layout      seatgrid.Layout
}

// NewCatalogHandler constructs a CatalogHandler and panics if any
// repository is nil.
func NewCatalogHandler(movieRepo *repository.MovieRepo, theatreRepo *repository.TheatreRepo, showRepo *repository.ShowRepo, seatRepo *repository.SeatRepo, layout seatgrid.Layout) *CatalogHandler {
	if movieRepo == nil || theatreRepo == nil || showRepo == nil || seatRepo == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{
		MovieRepo:   movieRepo,
		TheatreRepo: theatreRepo,
		ShowRepo:    showRepo,
		SeatRepo:    seatRepo,
		Layout:      layout,
	}
}

// CreateMovie handles POST /v1/movies. Duplicate titles are allowed in
// storage; the listing endpoint collapses them for display.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var body struct {
		Title    string  `json:"title"`
		Language string  `json:"language"`
		Poster   *string `json:"poster"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	m := &repository.Movie{Title: title, Language: strings.TrimSpace(body.Language), Poster: body.Poster}
	if err := h.MovieRepo.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create movie"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       m.ID,
		"title":    m.Title,
		"language": m.Language,
	})
}

// CreateTheatre handles POST /v1/theatres. The (name, city) pair is
// unique; collisions return 409.
func (h *CatalogHandler) CreateTheatre(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
		City string `json:"city"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	city := strings.TrimSpace(body.City)
	if name == "" || city == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city are required"})
	}
	t := &repository.Theatre{Name: name, City: city}
	if err := h.TheatreRepo.Create(c.Request().Context(), t); err != nil {
		if err == repository.ErrDuplicate {
			return c.JSON(http.StatusConflict, echo.Map{"error": "theatre already exists in this city"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create theatre"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":   t.ID,
		"name": t.Name,
		"city": t.City,
	})
}

// CreateShow handles POST /v1/shows. Creating a show materializes its
// full seat grid in the same transaction; the grid is not an implicit
// storage hook but an explicit step of this operation, so a show
// without seats can never be observed.
func (h *CatalogHandler) CreateShow(c echo.Context) error {
	var body struct {
		MovieID   uint64 `json:"movie_id"`
		TheatreID uint64 `json:"theatre_id"`
		ShowTime  string `json:"show_time"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	showTime := strings.TrimSpace(body.ShowTime)
	if body.MovieID == 0 || body.TheatreID == 0 || showTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, theatre_id and show_time are required"})
	}
	ctx := c.Request().Context()
	if _, err := h.MovieRepo.GetByID(ctx, body.MovieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if _, err := h.TheatreRepo.GetByID(ctx, body.TheatreID); err != nil {
		if err == repository.ErrTheatreNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theatre not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.ShowRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	show := &repository.Show{MovieID: body.MovieID, TheatreID: body.TheatreID, ShowTime: showTime}
	if err := h.ShowRepo.CreateTx(ctx, tx, show); err != nil {
		if err == repository.ErrDuplicate {
			return c.JSON(http.StatusConflict, echo.Map{"error": "show already exists for this movie, theatre and time"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create show"})
	}
	seats := seatgrid.Build(show.ID, h.Layout)
	if err := h.SeatRepo.CreateBulkTx(ctx, tx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create seats"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"id":         show.ID,
		"movie_id":   show.MovieID,
		"theatre_id": show.TheatreID,
		"show_time":  show.ShowTime,
		"seat_count": len(seats),
	})
}

// ListMovies handles GET /v1/movies. Duplicate titles are collapsed
// case-insensitively at listing time only; storage keeps every row.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	movies, err := h.MovieRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
	}
	seen := make(map[string]struct{}, len(movies))
	items := make([]echo.Map, 0, len(movies))
	for _, m := range movies {
		key := strings.ToLower(m.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		item := echo.Map{"id": m.ID, "title": m.Title, "language": m.Language}
		if m.Poster != nil {
			item["poster"] = *m.Poster
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListTheatres handles GET /v1/theatres?city=Chennai.
func (h *CatalogHandler) ListTheatres(c echo.Context) error {
	city := strings.TrimSpace(c.QueryParam("city"))
	theatres, err := h.TheatreRepo.ListByCity(c.Request().Context(), city)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load theatres"})
	}
	items := make([]echo.Map, 0, len(theatres))
	for _, t := range theatres {
		items = append(items, echo.Map{"id": t.ID, "name": t.Name, "city": t.City})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListShows handles GET /v1/movies/:id/shows?city=Chennai and returns
// shows of a movie joined with theatre details.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	ctx := c.Request().Context()
	if _, err := h.MovieRepo.GetByID(ctx, movieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	city := strings.TrimSpace(c.QueryParam("city"))
	listings, err := h.ShowRepo.ListByMovieAndCity(ctx, movieID, city)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listings})
}

// GetShowSeats handles GET /v1/shows/:id/seats and returns the seat
// map grouped by seat class, in grid order, with booked flags so the
// client can render availability.
func (h *CatalogHandler) GetShowSeats(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	if _, err := h.ShowRepo.GetByID(ctx, showID); err != nil {
		if err == repository.ErrShowNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.SeatRepo.ListByShow(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}

	type seatItem struct {
		SeatNumber string `json:"seat_number"`
		Price      uint32 `json:"price"`
		IsBooked   bool   `json:"is_booked"`
	}
	classes := make([]echo.Map, 0, 2)
	index := make(map[string]int)
	for _, s := range seats {
		i, ok := index[s.SeatClass]
		if !ok {
			i = len(classes)
			index[s.SeatClass] = i
			classes = append(classes, echo.Map{"class": s.SeatClass, "seats": []seatItem{}})
		}
		classes[i]["seats"] = append(classes[i]["seats"].([]seatItem), seatItem{
			SeatNumber: s.SeatNumber,
			Price:      s.Price,
			IsBooked:   s.IsBooked,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id": showID,
		"classes": classes,
	})
}
