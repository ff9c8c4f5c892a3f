package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// seedDemo builds a memory store with one movie, two theaters and a few
// shows over the next days so the API can be tried without MySQL.
func seedDemo(ctx context.Context, cfg config.Config) *repository.MemoryStore {
	store := repository.NewMemoryStore()
	store.AddMovie(model.Movie{ID: 1, Title: "Arrival"})
	store.AddMovie(model.Movie{ID: 2, Title: "Paterson"})
	store.AddTheater(model.Theater{ID: 1, Name: "Grand Hall", Location: "Level 1"})
	store.AddTheater(model.Theater{ID: 2, Name: "Studio", Location: "Level 2"})

	grid := model.DefaultSeatGrid()
	for _, theaterID := range []uint64{1, 2} {
		// Theaters exist, so provisioning cannot fail.
		_, _ = store.ProvisionSeatMap(ctx, theaterID, grid)
	}

	today := time.Now().In(cfg.Location)
	var id uint64
	for day := 1; day <= 3; day++ {
		d := today.AddDate(0, 0, day)
		for i, slot := range []string{"14:00", "20:30"} {
			id++
			store.AddShow(model.Show{
				ID:             id,
				MovieID:        uint64(i + 1),
				TheaterID:      uint64(i + 1),
				ScreenNumber:   1,
				Date:           model.NewDate(d.Year(), d.Month(), d.Day()),
				Time:           slot,
				Price:          decimal.NewFromInt(200),
				TotalSeats:     len(grid),
				AvailableSeats: len(grid),
				IsActive:       true,
			})
		}
	}
	return store
}
