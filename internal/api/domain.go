package api

import (
	"github.com/JaimeStill/ineed/internal/assist"
	"github.com/JaimeStill/ineed/internal/config"
	"github.com/JaimeStill/ineed/internal/conversations"
	"github.com/JaimeStill/ineed/internal/listings"
	"github.com/JaimeStill/ineed/internal/moderation"
	"github.com/JaimeStill/ineed/internal/reviews"
	"github.com/JaimeStill/ineed/internal/users"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Users         users.System
	Listings      listings.System
	Conversations conversations.System
	Reviews       reviews.System
	Assist        assist.System
	Moderation    *moderation.Listener
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	usersSystem := users.New(db, runtime.Logger)

	listingsSystem := listings.New(
		db,
		runtime.Storage,
		usersSystem,
		runtime.Logger,
		runtime.Pagination,
		runtime.Feed,
	)

	conversationsSystem := conversations.New(
		db,
		listingsSystem,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	controller := moderation.NewController(
		moderation.NewClassifier(runtime.Gemini, runtime.Logger),
		listingsSystem,
		cfg.Moderation.TimeoutDuration(),
		runtime.Logger,
	)

	listener := moderation.NewListener(
		moderation.PGSource(runtime.Database),
		moderation.NewEventStore(db),
		controller,
		moderation.ListenerOptions{
			Workers:        cfg.Moderation.Workers,
			ReconnectDelay: cfg.Moderation.ReconnectDelayDuration(),
			Lease:          2 * cfg.Moderation.TimeoutDuration(),
		},
		runtime.Logger,
	)

	return &Domain{
		Users:         usersSystem,
		Listings:      listingsSystem,
		Conversations: conversationsSystem,
		Reviews:       reviews.New(db, usersSystem, runtime.Logger, runtime.Pagination),
		Assist:        assist.New(runtime.Gemini, cfg.Assist.TimeoutDuration(), runtime.Logger),
		Moderation:    listener,
	}
}
