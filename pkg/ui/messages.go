package ui

import "github.com/fd1az/marketfeed/business/marketdata/domain"

// EventMsg wraps one domain.Event pulled off the feed client's event
// channel for Bubble Tea's Update loop.
type EventMsg struct {
	Event domain.Event
}

// EventsClosedMsg signals the feed client's event channel was closed
// (session shut down).
type EventsClosedMsg struct{}

// TickMsg is sent periodically to refresh time-sensitive display (time
// since the last frame).
type TickMsg struct{}

// ErrorMsg is sent when an error occurs outside the event stream itself
// (e.g. the initial subscribe call failed).
type ErrorMsg struct {
	Error error
}

// WelcomeCompleteMsg signals the welcome screen is done (after WelcomeDuration).
type WelcomeCompleteMsg struct{}
