package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
	"github.com/yungbote/examprep-backend/internal/realtime"
)

// DefaultHeartbeatInterval is how often clients refresh lastSeenAt.
const DefaultHeartbeatInterval = 30 * time.Second

type SessionStart struct {
	SessionID         uuid.UUID     `json:"sessionId"`
	DeviceID          string        `json:"deviceId"`
	HeartbeatInterval time.Duration `json:"-"`
}

// Principal is an authenticated caller bound to a live session.
type Principal struct {
	Actor     identity.Actor
	SessionID uuid.UUID
	DeviceID  string
}

type SessionService interface {
	StartSession(ctx context.Context, idToken, deviceID, userAgent string) (*SessionStart, error)
	ValidateSession(ctx context.Context, uid, sessionID, deviceID string) error
	Authenticate(ctx context.Context, idToken, sessionID, deviceID string) (*Principal, error)
	Heartbeat(ctx context.Context, uid, sessionID string)
	EndSession(ctx context.Context, uid, sessionID string) error

	SetAccountStatus(ctx context.Context, actor identity.Actor, uid string, status identity.AccountStatus) error
	SetAllowedDevices(ctx context.Context, actor identity.Actor, uid string, deviceIDs []string) error
	RevokeAll(ctx context.Context, uid, reason string) (int, error)
}

type SessionServiceConfig struct {
	// MaxCeiling bounds every profile's concurrent session override.
	MaxCeiling        int
	HeartbeatInterval time.Duration
	Now               func() time.Time
}

type sessionService struct {
	log      *logger.Logger
	verifier IdentityVerifier
	profiles repos.ProfileRepo
	sessions repos.SessionRepo
	emitter  SSEEmitter
	metrics  *observability.Metrics
	cfg      SessionServiceConfig
}

func NewSessionService(
	baseLog *logger.Logger,
	verifier IdentityVerifier,
	profiles repos.ProfileRepo,
	sessions repos.SessionRepo,
	emitter SSEEmitter,
	metrics *observability.Metrics,
	cfg SessionServiceConfig,
) SessionService {
	if cfg.MaxCeiling < 1 {
		cfg.MaxCeiling = 2
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &sessionService{
		log:      baseLog.With("service", "SessionService"),
		verifier: verifier,
		profiles: profiles,
		sessions: sessions,
		emitter:  emitterOrNop(emitter),
		metrics:  metrics,
		cfg:      cfg,
	}
}

func (s *sessionService) now() time.Time { return s.cfg.Now().UTC() }

func (s *sessionService) StartSession(ctx context.Context, idToken, deviceID, userAgent string) (*SessionStart, error) {
	const op = "session.Start"
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Of(ctx)

	profile, err := s.profiles.Get(dbc, id.UID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apierr.NotFound(apierr.CodeProfileMissing, op, "no role profile for this account")
	}
	if !profile.Active() {
		return nil, apierr.Authorization(apierr.CodeAccountSuspended, op, fmt.Sprintf("account is %s", profile.Status))
	}

	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	if !profile.DeviceAllowed(deviceID) {
		return nil, apierr.Authorization(apierr.CodeDeviceNotAllowed, op, "device not allowed")
	}

	now := s.now()
	s.enforceCap(ctx, profile, now)

	sess := &identity.Session{
		ID:         identity.NewSessionID(),
		UID:        profile.UID,
		DeviceID:   deviceID,
		UserAgent:  strings.TrimSpace(userAgent),
		LastSeenAt: now,
		CreatedAt:  now,
	}
	if err := s.sessions.Create(dbc, sess); err != nil {
		return nil, err
	}
	s.log.Info("session started", "uid", profile.UID, "session_id", sess.ID.String(), "device_id", deviceID)
	return &SessionStart{SessionID: sess.ID, DeviceID: deviceID, HeartbeatInterval: s.cfg.HeartbeatInterval}, nil
}

// enforceCap revokes the oldest active sessions so that, once the new session
// exists, at most cap remain. Failures only log.
func (s *sessionService) enforceCap(ctx context.Context, profile *identity.Profile, now time.Time) {
	limit := profile.SessionCap(s.cfg.MaxCeiling)
	active, err := s.sessions.ListActiveByUID(dbctx.Of(ctx), profile.UID)
	if err != nil {
		s.log.Ctx(ctx).Warn("list active sessions failed; continuing without enforcing cap", "uid", profile.UID, "error", err)
		return
	}
	if len(active) <= limit-1 {
		return
	}
	// active is newest first
	stale := active[limit-1:]
	ids := make([]uuid.UUID, 0, len(stale))
	for _, a := range stale {
		ids = append(ids, a.ID)
	}
	if _, err := s.revoke(ctx, profile.UID, ids, identity.RevokeReplacedByNewLogin, now); err != nil {
		s.log.Ctx(ctx).Warn("revoke replaced sessions failed; continuing", "uid", profile.UID, "error", err)
	}
}

// revoke marks sessions revoked and pushes session_revoked to their streams.
func (s *sessionService) revoke(ctx context.Context, uid string, ids []uuid.UUID, reason string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.sessions.Revoke(dbctx.Of(ctx), ids, reason, now)
	if err != nil {
		return 0, err
	}
	s.metrics.AddSessionRevocations(reason, int(n))
	for _, id := range ids {
		s.emitter.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.SessionChannel(id.String()),
			Event:   realtime.SSEEventSessionRevoked,
			Data:    map[string]any{"sessionId": id.String(), "uid": uid, "reason": reason},
		})
	}
	return n, nil
}

func (s *sessionService) load(ctx context.Context, uid, sessionID string) (*identity.Session, error) {
	const op = "session.Validate"
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, apierr.Authorization(apierr.CodeSessionNotFound, op, "session not found")
	}
	sess, err := s.sessions.Get(dbctx.Of(ctx), id)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UID != uid {
		return nil, apierr.Authorization(apierr.CodeSessionNotFound, op, "session not found")
	}
	return sess, nil
}

func (s *sessionService) ValidateSession(ctx context.Context, uid, sessionID, deviceID string) error {
	const op = "session.Validate"
	sess, err := s.load(ctx, uid, sessionID)
	if err != nil {
		return err
	}
	if sess.Revoked {
		return apierr.Authorization(apierr.CodeSessionRevoked, op, "session revoked: "+sess.RevokedReason)
	}
	if sess.DeviceID != strings.TrimSpace(deviceID) {
		return apierr.Authorization(apierr.CodeDeviceMismatch, op, "device does not match session")
	}
	return nil
}

func (s *sessionService) Authenticate(ctx context.Context, idToken, sessionID, deviceID string) (*Principal, error) {
	const op = "session.Authenticate"
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateSession(ctx, id.UID, sessionID, deviceID); err != nil {
		return nil, err
	}
	sid, _ := uuid.Parse(strings.TrimSpace(sessionID))

	profile, err := s.profiles.Get(dbctx.Of(ctx), id.UID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apierr.NotFound(apierr.CodeProfileMissing, op, "no role profile for this account")
	}
	if !profile.Active() {
		_, _ = s.revoke(ctx, id.UID, []uuid.UUID{sid}, identity.RevokeAccountSuspended, s.now())
		return nil, apierr.Authorization(apierr.CodeAccountSuspended, op, fmt.Sprintf("account is %s", profile.Status))
	}
	if !profile.DeviceAllowed(deviceID) {
		_, _ = s.revoke(ctx, id.UID, []uuid.UUID{sid}, identity.RevokeDeviceRemoved, s.now())
		return nil, apierr.Authorization(apierr.CodeDeviceNotAllowed, op, "device no longer allowed")
	}

	actor := profile.Actor()
	if actor.Email == "" {
		actor.Email = id.Email
	}
	if actor.DisplayName == "" {
		actor.DisplayName = id.Name
	}
	return &Principal{Actor: actor, SessionID: sid, DeviceID: strings.TrimSpace(deviceID)}, nil
}

func (s *sessionService) Heartbeat(ctx context.Context, uid, sessionID string) {
	sess, err := s.load(ctx, uid, sessionID)
	if err != nil || sess.Revoked {
		return
	}
	if err := s.sessions.Touch(dbctx.Of(ctx), sess.ID, s.now()); err != nil {
		s.log.Debug("heartbeat write failed", "session_id", sessionID, "error", err)
	}
}

func (s *sessionService) EndSession(ctx context.Context, uid, sessionID string) error {
	sess, err := s.load(ctx, uid, sessionID)
	if err != nil {
		return err
	}
	if sess.Revoked {
		return nil
	}
	_, err = s.revoke(ctx, uid, []uuid.UUID{sess.ID}, identity.RevokeLogout, s.now())
	return err
}

func requirePrivileged(actor identity.Actor, op string) error {
	if !actor.Role.Privileged() {
		return apierr.Authorization(apierr.CodeForbidden, op, "admin role required")
	}
	return nil
}

func (s *sessionService) mustProfile(ctx context.Context, uid, op string) (*identity.Profile, error) {
	p, err := s.profiles.Get(dbctx.Of(ctx), uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound(apierr.CodeProfileMissing, op, "no role profile for this account")
	}
	return p, nil
}

func (s *sessionService) SetAccountStatus(ctx context.Context, actor identity.Actor, uid string, status identity.AccountStatus) error {
	const op = "session.SetAccountStatus"
	if err := requirePrivileged(actor, op); err != nil {
		return err
	}
	if _, ok := identity.ParseAccountStatus(string(status)); !ok {
		return apierr.Validation(apierr.CodeInvalidInput, op, fmt.Sprintf("unknown account status %q", status))
	}
	if _, err := s.mustProfile(ctx, uid, op); err != nil {
		return err
	}
	if err := s.profiles.UpdateStatus(dbctx.Of(ctx), uid, status); err != nil {
		return err
	}
	s.emitProfileChanged(ctx, uid, map[string]any{"status": status})

	if status != identity.StatusActive {
		if _, err := s.RevokeAll(ctx, uid, identity.RevokeAccountSuspended); err != nil {
			return err
		}
	}
	s.log.Info("account status changed", "uid", uid, "status", status, "by", actor.UID)
	return nil
}

func (s *sessionService) SetAllowedDevices(ctx context.Context, actor identity.Actor, uid string, deviceIDs []string) error {
	const op = "session.SetAllowedDevices"
	if err := requirePrivileged(actor, op); err != nil {
		return err
	}
	if _, err := s.mustProfile(ctx, uid, op); err != nil {
		return err
	}
	clean := make([]string, 0, len(deviceIDs))
	seen := map[string]bool{}
	for _, d := range deviceIDs {
		if d = strings.TrimSpace(d); d != "" && !seen[d] {
			seen[d] = true
			clean = append(clean, d)
		}
	}
	if err := s.profiles.UpdateAllowedDevices(dbctx.Of(ctx), uid, clean); err != nil {
		return err
	}
	s.emitProfileChanged(ctx, uid, map[string]any{"allowedDeviceIds": clean})

	updated := &identity.Profile{AllowedDeviceIDs: clean}
	active, err := s.sessions.ListActiveByUID(dbctx.Of(ctx), uid)
	if err != nil {
		return err
	}
	var removed []uuid.UUID
	for _, a := range active {
		if !updated.DeviceAllowed(a.DeviceID) {
			removed = append(removed, a.ID)
		}
	}
	_, err = s.revoke(ctx, uid, removed, identity.RevokeDeviceRemoved, s.now())
	return err
}

func (s *sessionService) RevokeAll(ctx context.Context, uid, reason string) (int, error) {
	active, err := s.sessions.ListActiveByUID(dbctx.Of(ctx), uid)
	if err != nil {
		return 0, err
	}
	ids := make([]uuid.UUID, 0, len(active))
	for _, a := range active {
		ids = append(ids, a.ID)
	}
	if reason == "" {
		reason = identity.RevokeAdmin
	}
	n, err := s.revoke(ctx, uid, ids, reason, s.now())
	return int(n), err
}

func (s *sessionService) emitProfileChanged(ctx context.Context, uid string, data map[string]any) {
	data["uid"] = uid
	s.emitter.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(uid),
		Event:   realtime.SSEEventProfileChanged,
		Data:    data,
	})
}
