// Command seed fills the appointment store with a demo week for a user, so a
// fresh environment has something to render in every view.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"calgrid/internal/auth"
	"calgrid/internal/calendar"
	"calgrid/internal/config"
	"calgrid/internal/models"
	"calgrid/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("seed: config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	userID := getenv("SEED_USER_ID", "demo-user")
	userName := getenv("SEED_USER_NAME", "Demo User")

	token := os.Getenv("SEED_TOKEN")
	if token == "" {
		if cfg.JWTSecret == "" {
			log.Error("seed: set SEED_TOKEN or JWT_SECRET")
			os.Exit(1)
		}
		manager := &auth.Manager{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer}
		token, err = manager.NewUserToken(userID, userName, time.Hour)
		if err != nil {
			log.Error("seed: token mint failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	client := store.New(cfg.StoreBaseURL, cfg.Timezone)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().In(cfg.Timezone)
	monday := calendar.WeekStart(now).AddDate(0, 0, 1)

	for _, d := range demoWeek(monday) {
		created, err := client.CreateAppointment(ctx, token, userID, d)
		if err != nil {
			log.Error("seed: create failed",
				slog.String("title", d.Title),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		log.Info("seed: created",
			slog.String("id", created.ID),
			slog.String("title", created.Title),
			slog.String("start", models.FormatLocal(created.Start)),
		)
	}
	log.Info("seed: done", slog.String("user_id", userID))
}

func demoWeek(monday time.Time) []calendar.Draft {
	at := func(day int, hh, mm int) time.Time {
		d := monday.AddDate(0, 0, day)
		return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, d.Location())
	}

	return []calendar.Draft{
		{
			Title:           "Daily standup",
			Description:     "Team sync",
			Start:           at(0, 9, 0),
			End:             at(0, 9, 30),
			RecurrenceType:  models.RecurrenceDaily,
			RecurrenceCount: 5,
		},
		{
			Title:       "Sprint planning",
			Description: "Scope the next sprint",
			Start:       at(0, 14, 0),
			End:         at(0, 15, 30),
		},
		{
			Title:           "Gym",
			Start:           at(1, 18, 0),
			End:             at(1, 19, 0),
			RecurrenceType:  models.RecurrenceWeekly,
			RecurrenceCount: 4,
			RecurrenceDays:  []string{"Tue", "Thu"},
		},
		{
			Title:       "Design review",
			Description: "Calendar grid polish",
			Start:       at(2, 11, 0),
			End:         at(2, 12, 0),
		},
		{
			Title:       "On-call handover",
			Start:       at(4, 23, 0),
			End:         at(5, 1, 0),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
