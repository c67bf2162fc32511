package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/stratushq/tenant_go_server/internal/model"
	"github.com/stratushq/tenant_go_server/internal/model/dto"
	"github.com/stratushq/tenant_go_server/internal/pkg/cache"
	"github.com/stratushq/tenant_go_server/internal/repository"
)

var (
	ErrNoActiveSession = errors.New("no active session for user")
	ErrSessionNotFound = errors.New("session not found")
)

// SessionService reconciles per-login session rows. A session opens at
// sign-in and is finalized by exactly one of: an explicit sign-out, a
// page-exit flush, or the stale-session cleanup job.
type SessionService struct {
	sessionRepo *repository.SessionRepository
	cache       *cache.Service
}

func NewSessionService(sessionRepo *repository.SessionRepository, c *cache.Service) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, cache: c}
}

// CreateSession returns the user's open session, creating one only when
// none exists. Safe to call repeatedly for the same login.
func (s *SessionService) CreateSession(ctx context.Context, userID int64) (int64, error) {
	if id, ok := s.cachedSessionID(userID); ok {
		return id, nil
	}

	open, err := s.sessionRepo.GetOpenByUser(userID)
	if err == nil {
		s.cacheSessionID(userID, open.ID)
		return open.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	session := &model.UserSession{
		UserID:    userID,
		StartTime: time.Now().UTC(),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return 0, err
	}
	s.cacheSessionID(userID, session.ID)
	return session.ID, nil
}

// UpdateSession finalizes the user's open session with the tracker's
// accumulated active milliseconds. Returns ErrNoActiveSession without
// touching the database when no open session exists.
func (s *SessionService) UpdateSession(ctx context.Context, userID int64, activeTimeMs int64) (int64, error) {
	sessionID, ok := s.cachedSessionID(userID)
	if !ok {
		open, err := s.sessionRepo.GetOpenByUser(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrNoActiveSession
			}
			return 0, err
		}
		sessionID = open.ID
	}

	if err := s.finalize(sessionID, activeTimeMs); err != nil {
		return 0, err
	}
	s.cache.Invalidate("session", strconv.FormatInt(userID, 10))
	return sessionID, nil
}

// Flush finalizes a session by id. This is the page-exit path: the browser
// fires it via sendBeacon, so the caller may no longer be authenticated.
func (s *SessionService) Flush(sessionID int64, activeTimeMs int64) error {
	if _, err := s.sessionRepo.GetByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return s.finalize(sessionID, activeTimeMs)
}

// finalize computes the inactive remainder server-side: everything in the
// wall-clock span that was not reported active counts as inactive, clamped
// at zero when clock skew puts the active total past the elapsed span.
func (s *SessionService) finalize(sessionID int64, activeTimeMs int64) error {
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	activeSec := activeTimeMs / 1000
	if activeSec < 0 {
		activeSec = 0
	}

	elapsedSec := int64(now.Sub(session.StartTime) / time.Second)
	alreadySec := session.TotalActiveTime + session.TotalInactiveTime
	inactiveSec := elapsedSec - alreadySec - activeSec
	if inactiveSec < 0 {
		inactiveSec = 0
	}

	return s.sessionRepo.AddDurations(sessionID, activeSec, inactiveSec, now)
}

func (s *SessionService) ListByUser(userID int64, page, pageSize int) ([]dto.SessionInfo, int64, error) {
	sessions, total, err := s.sessionRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]dto.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info := dto.SessionInfo{
			SessionID:         sess.ID,
			StartTime:         sess.StartTime.Format(time.RFC3339),
			TotalActiveTime:   sess.TotalActiveTime,
			TotalInactiveTime: sess.TotalInactiveTime,
		}
		if sess.EndTime != nil {
			info.EndTime = sess.EndTime.Format(time.RFC3339)
		}
		infos = append(infos, info)
	}
	return infos, total, nil
}

func (s *SessionService) cachedSessionID(userID int64) (int64, bool) {
	v, ok := s.cache.Get("session", strconv.FormatInt(userID, 10))
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func (s *SessionService) cacheSessionID(userID, sessionID int64) {
	s.cache.Set("session", strconv.FormatInt(userID, 10), sessionID)
}
