package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"ticketcore/internal/config"
	"ticketcore/internal/database"
	"ticketcore/internal/models"
	"ticketcore/internal/repositories"
)

// segmentSpec derives a segment from an event's base price
type segmentSpec struct {
	id           string
	name         string
	priceFactor  float64
	capacity     int
	maxPerPerson int
	loyaltyOnly  bool
}

// The standard segment lineup applied to every seeded event.
var segmentSpecs = []segmentSpec{
	{"early-bird", "Early Bird", 0.8, 50, 4, false},
	{"regular", "Regular", 1.0, 800, 8, false},
	{"loyalty", "Loyalty", 0.75, 100, 6, true},
	{"vip", "VIP", 2.5, 75, 4, false},
	{"group", "Group", 0.85, 200, 20, false},
	{"premium", "Premium", 1.8, 150, 6, false},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repositories.NewInventoryRepository(db)

	events := []*models.Event{
		buildEvent("Nairobi Jazz Festival", 250000, 1375, 30),
		buildEvent("Tech Summit 2026", 500000, 1375, 60),
		buildEvent("Food & Wine Expo", 150000, 1375, 90),
	}

	for _, event := range events {
		if err := repo.CreateEvent(event); err != nil {
			logger.Error("failed to seed event", "title", event.Title, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded event", "id", event.ID, "title", event.Title,
			"segments", len(event.Segments))
	}
}

// buildEvent assembles an event with the standard segment lineup. Event
// capacity equals the sum of segment capacities.
func buildEvent(title string, basePrice int64, capacity, daysOut int) *models.Event {
	eventID := uuid.NewString()

	event := &models.Event{
		ID:        eventID,
		Title:     title,
		BasePrice: basePrice,
		Capacity:  capacity,
		StartsAt:  time.Now().AddDate(0, 0, daysOut),
		CreatedAt: time.Now(),
	}

	for _, spec := range segmentSpecs {
		event.Segments = append(event.Segments, &models.TicketSegment{
			ID:           spec.id,
			EventID:      eventID,
			Name:         spec.name,
			Price:        int64(float64(basePrice) * spec.priceFactor),
			Capacity:     spec.capacity,
			MaxPerPerson: spec.maxPerPerson,
			LoyaltyOnly:  spec.loyaltyOnly,
		})
	}

	return event
}
