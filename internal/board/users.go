package board

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/service"
)

// DemoUserName is the display name given to generated accounts.
const DemoUserName = "Demo User"

// CreateDemoUser creates a throwaway account with default calendar settings.
func (s *Service) CreateDemoUser(ctx context.Context) (service.User, error) {
	id := s.newID()
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	u := service.User{
		ID:        id,
		Email:     fmt.Sprintf("demo-%s@taskboard.demo", short),
		Name:      DemoUserName,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return service.User{}, err
	}
	if err := s.store.UpsertCalendarSettings(ctx, service.DefaultCalendarSettings(u.ID)); err != nil {
		return service.User{}, err
	}
	log.WithField("user", u.ID).Info("created demo user")
	return u, nil
}

// User returns the account with the given id.
func (s *Service) User(ctx context.Context, id string) (service.User, error) {
	return s.store.GetUser(ctx, id)
}

// EnsureUser returns the account with the given id, creating a demo account
// when id is empty or unknown.
func (s *Service) EnsureUser(ctx context.Context, id string) (service.User, bool, error) {
	if id != "" {
		u, err := s.store.GetUser(ctx, id)
		if err == nil {
			return u, false, nil
		}
		if !errors.Is(err, service.ErrNotFound) {
			return service.User{}, false, err
		}
	}
	u, err := s.CreateDemoUser(ctx)
	return u, err == nil, err
}
