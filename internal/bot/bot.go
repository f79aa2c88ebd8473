// Package bot exposes geocoding over a Telegram bot. Text messages are
// forward-geocoded, shared locations are reverse-geocoded.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/geogate/internal/server"
	"github.com/Proton-105/geogate/pkg/config"
	"github.com/Proton-105/geogate/pkg/geocode"
)

const (
	replyInternalError = "Something went wrong. Please try again later."
	replyUsage         = "Send me an address to geocode it, or share a location to get its address."
)

// Bot wraps telebot.Bot with the geocoding client.
type Bot struct {
	telebot *telebot.Bot
	client  server.GeocodeService
	log     *slog.Logger
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, client server.GeocodeService, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token: cfg.Bot.Token,
		Poller: &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot: tb,
		client:  client,
		log:     log,
	}

	b.registerHandlers()

	return b, nil
}

// Telebot exposes the underlying bot, mostly for health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	b.log.Info("telegram bot starting")
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

func (b *Bot) registerHandlers() {
	b.telebot.Handle("/start", func(c telebot.Context) error {
		return c.Send(replyUsage)
	})

	b.telebot.Handle(telebot.OnText, b.handleText)
	b.telebot.Handle(telebot.OnLocation, b.handleLocation)
}

func (b *Bot) handleText(c telebot.Context) error {
	query := c.Text()
	if query == "" {
		return c.Send(replyUsage)
	}

	loc, err := b.client.Geocode(context.Background(), query)
	if err != nil {
		return c.Send(replyForError(err))
	}
	if loc == nil {
		return c.Send(replyForError(geocode.NewNotFound(query)))
	}

	venue := &telebot.Venue{
		Location: telebot.Location{
			Lat: float32(loc.Latitude),
			Lng: float32(loc.Longitude),
		},
		Title:   query,
		Address: loc.Address,
	}

	return c.Send(venue)
}

func (b *Bot) handleLocation(c telebot.Context) error {
	point := c.Message().Location
	if point == nil {
		return c.Send(replyUsage)
	}

	loc, err := b.client.Reverse(context.Background(), float64(point.Lat), float64(point.Lng))
	if err != nil {
		return c.Send(replyForError(err))
	}
	if loc == nil {
		return c.Send(replyForError(geocode.NewNotFound("location")))
	}

	return c.Send(formatAddress(loc))
}

func formatAddress(loc *geocode.Location) string {
	return fmt.Sprintf("%s\n(%.6f, %.6f)", loc.Address, loc.Latitude, loc.Longitude)
}

// replyForError keeps provider detail out of user-facing messages.
func replyForError(err error) string {
	switch geocode.KindOf(err) {
	case geocode.KindNotFound:
		return "I couldn't find that place."
	case geocode.KindQuery:
		return "I couldn't make sense of that query."
	case geocode.KindRateLimited, geocode.KindQuotaExceeded:
		return "The geocoding service is busy right now. Please try again in a minute."
	case geocode.KindTimedOut, geocode.KindUnavailable:
		return "The geocoding service is not responding. Please try again later."
	default:
		return replyInternalError
	}
}
