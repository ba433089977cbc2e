// Package di contains dependency injection tokens for the marketdata
// bounded context.
package di

import (
	"github.com/fd1az/marketfeed/business/marketdata/app"
	"github.com/fd1az/marketfeed/business/marketdata/infra/session"
	"github.com/fd1az/marketfeed/internal/di"
)

// DI tokens for the marketdata module.
const (
	Transport      = "marketdata.Transport"
	SessionManager = "marketdata.SessionManager"
)

// GetTransport resolves the registered Transport.
func GetTransport(sr di.ServiceRegistry) app.Transport {
	return di.GetToken[app.Transport](sr, Transport)
}

// GetSessionManager resolves the registered session.Manager.
func GetSessionManager(sr di.ServiceRegistry) *session.Manager {
	return di.GetToken[*session.Manager](sr, SessionManager)
}
