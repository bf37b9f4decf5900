// Package exchange turns authorization codes and resource-owner credentials
// into stored sessions.
package exchange

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/identitybridge/ssoclient/api"
	"github.com/identitybridge/ssoclient/internal/guidutil"
	"github.com/identitybridge/ssoclient/storage"
)

// Service performs grant exchanges as single blocking units of work:
// network exchange, then StoreGrant, then the resulting guid. Never call it
// from a caller that cannot tolerate blocking; hosts run it on a worker and
// marshal the result back themselves.
//
// Service carries no synchronization of its own: concurrent exchanges for
// different codes are made safe by the storage backend's internal
// synchronization.
type Service struct {
	backend storage.Backend
	client  api.Client
}

// New builds an exchange service over backend and client.
func New(backend storage.Backend, client api.Client) *Service {
	return &Service{backend: backend, client: client}
}

// ProcessCodeGrant exchanges an authorization code for token material and
// persists it. It returns the guid the grant was processed for, or "" when
// the grant could not be attributed to a session (including the
// malformed-response case, where the backend wipes the session's auth state
// and the grant still counts as handled). Transport failures surface as
// *api.SocketError.
func (s *Service) ProcessCodeGrant(ctx context.Context, code, redirectURI string) (string, error) {
	fields, err := s.client.ExchangeCodeForGrant(ctx, code, redirectURI)
	if err != nil {
		return "", err
	}
	return s.storeGrant(fields)
}

// ProcessPasswordGrant exchanges resource-owner credentials for token
// material and persists it, with the same result contract as
// ProcessCodeGrant.
func (s *Service) ProcessPasswordGrant(ctx context.Context, username, password string) (string, error) {
	fields, err := s.client.ExchangePasswordForGrant(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.storeGrant(fields)
}

func (s *Service) storeGrant(fields api.Fields) (string, error) {
	if errCode := fields.Get(api.FieldError); errCode != "" {
		log.Warn().Str("error", errCode).Msg("identity provider rejected grant")
		return "", nil
	}

	guid := guidutil.FromGrant(fields)
	if guid == "" {
		log.Warn().Msg("grant response carries no usable guid")
		return "", nil
	}

	if !s.backend.StoreGrant(guid, fields) {
		return "", nil
	}
	if !s.backend.IsValidSession(guid) {
		// the backend wiped the session while handling a malformed response
		return "", nil
	}
	return guid, nil
}
