// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each value is one of
// "all" (MongoDB + zap), "db", "log" or "off".
type Config struct {
	Auth  string
	Admin string
	Club  string
}

// Logger writes audit events to the audit store and to zap.
// A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ClubID != nil {
		fields = append(fields, zap.String("club_id", event.ClubID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an event according to the category's setting. Store
// failures are logged and otherwise ignored.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	case audit.CategoryClub:
		setting = l.config.Club
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func base(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

func oidPtr(hex string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &oid
}

// --- Authentication Events ---

func (l *Logger) SignUp(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod string) {
	ev := base(r, audit.CategoryAuth, audit.EventSignUp)
	ev.UserID = &userID
	ev.Details = map[string]string{"auth_method": authMethod}
	l.Log(ctx, ev)
}

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginSuccess)
	ev.UserID = &userID
	ev.Details = map[string]string{"auth_method": authMethod}
	l.Log(ctx, ev)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound)
	ev.Success = false
	ev.FailureReason = "user not found"
	ev.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, ev)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword)
	ev.UserID = &userID
	ev.Success = false
	ev.FailureReason = "wrong password"
	l.Log(ctx, ev)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	ev := base(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit)
	ev.Success = false
	ev.FailureReason = "rate limit exceeded"
	ev.Details = map[string]string{"attempted_email": email}
	l.Log(ctx, ev)
}

// Logout takes the session's string id.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	ev := base(r, audit.CategoryAuth, audit.EventLogout)
	ev.UserID = oidPtr(userID)
	l.Log(ctx, ev)
}

// --- Admin Events ---

func (l *Logger) AdminBootstrapped(ctx context.Context, userID primitive.ObjectID, email string, created bool) {
	createdStr := "false"
	if created {
		createdStr = "true"
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAdminBootstrapped,
		UserID:    &userID,
		IP:        "startup",
		Success:   true,
		Details:   map[string]string{"email": email, "created": createdStr},
	})
}

func (l *Logger) ClubCreated(ctx context.Context, r *http.Request, actorID, clubID primitive.ObjectID, name string) {
	ev := base(r, audit.CategoryAdmin, audit.EventClubCreated)
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"club_name": name}
	l.Log(ctx, ev)
}

func (l *Logger) ClubUpdated(ctx context.Context, r *http.Request, actorID, clubID primitive.ObjectID, actorRole string) {
	ev := base(r, audit.CategoryAdmin, audit.EventClubUpdated)
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"actor_role": actorRole}
	l.Log(ctx, ev)
}

// ClubDeleted records the deletion. Member, event and message documents
// of the club are not removed.
func (l *Logger) ClubDeleted(ctx context.Context, r *http.Request, actorID, clubID primitive.ObjectID, name string) {
	ev := base(r, audit.CategoryAdmin, audit.EventClubDeleted)
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"club_name": name, "cascade": "false"}
	l.Log(ctx, ev)
}

func (l *Logger) ProposalApproved(ctx context.Context, r *http.Request, actorID, clubID, proposalID, eventID primitive.ObjectID) {
	ev := base(r, audit.CategoryAdmin, audit.EventProposalApproved)
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"proposal_id": proposalID.Hex(), "event_id": eventID.Hex()}
	l.Log(ctx, ev)
}

func (l *Logger) ProposalRejected(ctx context.Context, r *http.Request, actorID, clubID, proposalID primitive.ObjectID) {
	ev := base(r, audit.CategoryAdmin, audit.EventProposalRejected)
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"proposal_id": proposalID.Hex()}
	l.Log(ctx, ev)
}

// --- Club Events ---

func (l *Logger) JoinRequested(ctx context.Context, r *http.Request, userID, clubID primitive.ObjectID) {
	ev := base(r, audit.CategoryClub, audit.EventJoinRequested)
	ev.UserID = &userID
	ev.ActorID = &userID
	ev.ClubID = &clubID
	l.Log(ctx, ev)
}

func (l *Logger) JoinAccepted(ctx context.Context, r *http.Request, actorID, userID, clubID primitive.ObjectID, actorRole string) {
	ev := base(r, audit.CategoryClub, audit.EventJoinAccepted)
	ev.UserID = &userID
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"actor_role": actorRole}
	l.Log(ctx, ev)
}

func (l *Logger) JoinRejected(ctx context.Context, r *http.Request, actorID, userID, clubID primitive.ObjectID, actorRole string) {
	ev := base(r, audit.CategoryClub, audit.EventJoinRejected)
	ev.UserID = &userID
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"actor_role": actorRole}
	l.Log(ctx, ev)
}

func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, userID, clubID primitive.ObjectID, actorRole string) {
	ev := base(r, audit.CategoryClub, audit.EventMemberRemoved)
	ev.UserID = &userID
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"actor_role": actorRole}
	l.Log(ctx, ev)
}

func (l *Logger) ProposalSubmitted(ctx context.Context, r *http.Request, actorID, clubID, proposalID primitive.ObjectID, title string) {
	ev := base(r, audit.CategoryClub, audit.EventProposalSubmitted)
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"proposal_id": proposalID.Hex(), "title": title}
	l.Log(ctx, ev)
}

// MessageDeleted records moderation deletes; authors removing their own
// messages are not audited.
func (l *Logger) MessageDeleted(ctx context.Context, r *http.Request, actorID, authorID, clubID, messageID primitive.ObjectID, actorRole string) {
	ev := base(r, audit.CategoryClub, audit.EventMessageDeleted)
	ev.UserID = &authorID
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"message_id": messageID.Hex(), "actor_role": actorRole}
	l.Log(ctx, ev)
}

func (l *Logger) EventDeleted(ctx context.Context, r *http.Request, actorID, clubID, eventID primitive.ObjectID, actorRole string) {
	ev := base(r, audit.CategoryClub, audit.EventEventDeleted)
	ev.ActorID = &actorID
	ev.ClubID = &clubID
	ev.Details = map[string]string{"event_id": eventID.Hex(), "actor_role": actorRole}
	l.Log(ctx, ev)
}
