// Command seed populates the catalog with a demo data set: movies,
// theatres and the full movie x theatre x time show matrix, each show
// with its seat grid. It is idempotent and safe to rerun.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/cinebooker/cinebooker/internal/config"
	"github.com/cinebooker/cinebooker/internal/database"
	"github.com/cinebooker/cinebooker/internal/repository"
	"github.com/cinebooker/cinebooker/internal/seatgrid"
)

var movies = []struct {
	Title    string
	Language string
}{
	{"Mersal", "Tamil"},
	{"Theri", "Tamil"},
	{"Ghilli", "Tamil"},
	{"Jana Nayagan", "Tamil"},
	{"Leo", "Tamil"},
}

var theatres = []struct {
	Name string
	City string
}{
	{"Asian CineSquare", "Chennai"},
	{"SPI Palazzo", "Chennai"},
	{"PVR Warangal", "Warangal"},
	{"Asian CineSquare", "Warangal"},
	{"PVR Orion Mall", "Bangalore"},
	{"INOX Garuda Mall", "Bangalore"},
}

var showTimes = []string{"10:30 AM", "6:30 PM"}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	movieRepo := repository.NewMovieRepo(db)
	theatreRepo := repository.NewTheatreRepo(db)
	showRepo := repository.NewShowRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	layout := seatgrid.DefaultLayout()

	movieIDs := seedMovies(ctx, movieRepo)
	theatreIDs := seedTheatres(ctx, theatreRepo)
	created := seedShows(ctx, showRepo, seatRepo, layout, movieIDs, theatreIDs)

	log.Printf("seed complete: %d movies, %d theatres, %d new shows (%d seats each)",
		len(movieIDs), len(theatreIDs), created, layout.SeatCount())
}

func seedMovies(ctx context.Context, repo *repository.MovieRepo) []uint64 {
	ids := make([]uint64, 0, len(movies))
	for _, m := range movies {
		if existing, err := repo.FindByTitleAndLanguage(ctx, m.Title, m.Language); err == nil {
			ids = append(ids, existing.ID)
			continue
		} else if err != repository.ErrMovieNotFound {
			log.Fatalf("lookup movie %q: %v", m.Title, err)
		}
		mv := &repository.Movie{Title: m.Title, Language: m.Language}
		if err := repo.Create(ctx, mv); err != nil {
			log.Fatalf("create movie %q: %v", m.Title, err)
		}
		ids = append(ids, mv.ID)
	}
	return ids
}

func seedTheatres(ctx context.Context, repo *repository.TheatreRepo) []uint64 {
	ids := make([]uint64, 0, len(theatres))
	for _, t := range theatres {
		th := &repository.Theatre{Name: t.Name, City: t.City}
		err := repo.Create(ctx, th)
		if err == nil {
			ids = append(ids, th.ID)
			continue
		}
		if err != repository.ErrDuplicate {
			log.Fatalf("create theatre %q: %v", t.Name, err)
		}
		// Already seeded: resolve the existing row's id by city scan.
		existing, err := repo.ListByCity(ctx, t.City)
		if err != nil {
			log.Fatalf("list theatres in %q: %v", t.City, err)
		}
		found := false
		for _, e := range existing {
			if e.Name == t.Name {
				ids = append(ids, e.ID)
				found = true
				break
			}
		}
		if !found {
			log.Fatalf("theatre %q/%q reported duplicate but not found", t.Name, t.City)
		}
	}
	return ids
}

// seedShows creates the show matrix. Each new show gets its seat grid
// inside the same transaction, so a partially seeded show is never
// visible. Returns the number of shows created this run.
func seedShows(ctx context.Context, shows *repository.ShowRepo, seats *repository.SeatRepo, layout seatgrid.Layout, movieIDs, theatreIDs []uint64) int {
	created := 0
	for _, movieID := range movieIDs {
		for _, theatreID := range theatreIDs {
			for _, showTime := range showTimes {
				exists, err := shows.ExistsByTriple(ctx, movieID, theatreID, showTime)
				if err != nil {
					log.Fatalf("check show: %v", err)
				}
				if exists {
					continue
				}
				if err := createShow(ctx, shows, seats, layout, movieID, theatreID, showTime); err != nil {
					log.Fatalf("create show (movie=%d theatre=%d %q): %v", movieID, theatreID, showTime, err)
				}
				created++
			}
		}
	}
	return created
}

func createShow(ctx context.Context, shows *repository.ShowRepo, seats *repository.SeatRepo, layout seatgrid.Layout, movieID, theatreID uint64, showTime string) error {
	tx, err := shows.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	show := &repository.Show{MovieID: movieID, TheatreID: theatreID, ShowTime: showTime}
	if err := shows.CreateTx(ctx, tx, show); err != nil {
		if err == repository.ErrDuplicate {
			// Raced with another seeder run; nothing to do.
			return nil
		}
		return err
	}
	if err := seats.CreateBulkTx(ctx, tx, seatgrid.Build(show.ID, layout)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
