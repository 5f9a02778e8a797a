package feast

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Backend is the slice of the backend client the service needs.
type Backend interface {
	CreateFeast(ctx context.Context, principal string, draft *Draft) (*Feast, error)
	ListNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]Feast, error)
	ReportFeast(ctx context.Context, feastID string) (*Feast, error)
}

// PrincipalSource exposes the signed-in principal. identity.Provider
// satisfies it.
type PrincipalSource interface {
	CurrentPrincipal() string
}

// ErrNoSession indicates a foreground operation that requires a principal
// was attempted before sign-in completed.
var ErrNoSession = fmt.Errorf("not signed in")

// ServiceConfig holds configuration for the feast service.
type ServiceConfig struct {
	Backend   Backend
	Principal PrincipalSource
	Logger    zerolog.Logger
}

// Service provides the user-initiated feast operations. Unlike the
// background sync flow, failures here propagate to the caller so the UI can
// surface them.
type Service struct {
	backend   Backend
	principal PrincipalSource
	logger    zerolog.Logger

	mu       sync.Mutex
	inactive map[string]bool // feasts known to be deactivated; terminal
}

// NewService creates a new feast service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		backend:   cfg.Backend,
		principal: cfg.Principal,
		logger:    cfg.Logger,
		inactive:  make(map[string]bool),
	}
}

// Nearby returns feasts around the given point, in server order, each
// annotated with the server-computed distance. The client applies no
// filtering of its own.
func (s *Service) Nearby(ctx context.Context, lat, lon, radiusMeters float64) ([]Feast, error) {
	feasts, err := s.backend.ListNearby(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range feasts {
		if !feasts[i].IsActive {
			s.inactive[feasts[i].ID] = true
		}
	}
	s.mu.Unlock()

	return feasts, nil
}

// Create announces a new feast on behalf of the signed-in principal.
func (s *Service) Create(ctx context.Context, draft *Draft) (*Feast, error) {
	principal := s.principal.CurrentPrincipal()
	if principal == "" {
		return nil, ErrNoSession
	}
	return s.backend.CreateFeast(ctx, principal, draft)
}

// Report reports a feast and returns the updated snapshot. A feast the
// service already knows to be inactive is terminal: the report is refused
// locally with ErrInactive. When the returned snapshot comes back inactive,
// the feast is recorded as terminal from then on.
func (s *Service) Report(ctx context.Context, feastID string) (*Feast, error) {
	s.mu.Lock()
	if s.inactive[feastID] {
		s.mu.Unlock()
		return nil, ErrInactive
	}
	s.mu.Unlock()

	updated, err := s.backend.ReportFeast(ctx, feastID)
	if err != nil {
		return nil, err
	}

	if !updated.IsActive {
		s.mu.Lock()
		s.inactive[updated.ID] = true
		s.mu.Unlock()
		s.logger.Info().Str("feast_id", updated.ID).Msg("feast deactivated by report threshold")
	}

	return updated, nil
}
