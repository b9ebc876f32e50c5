package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edutrack/edutrack/api/internal/metrics"
	"github.com/edutrack/edutrack/api/internal/models"
	commonaudit "github.com/edutrack/edutrack/common/audit"
	"github.com/edutrack/edutrack/common/logging"
	"github.com/edutrack/edutrack/common/messaging"
)

const publishTimeout = 2 * time.Second

// Entry is the caller-supplied part of an audit event. Id, timestamp,
// client address and signature are filled in by the Logger.
type Entry struct {
	Action string
	Result string
	UserID string
	Email  string
	Reason string
}

// Logger signs authentication events, writes them to the log and
// optionally publishes them to a message broker.
type Logger struct {
	signer    *commonaudit.Signer
	publisher messaging.Publisher
	subject   string
	logger    *logging.Logger
	now       func() time.Time
}

type Option func(*Logger)

// WithPublisher publishes every event as JSON on subject.
func WithPublisher(p messaging.Publisher, subject string) Option {
	return func(l *Logger) {
		l.publisher = p
		l.subject = subject
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(l *Logger) { l.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

func NewLogger(secretKey string, opts ...Option) *Logger {
	l := &Logger{
		signer:  commonaudit.NewSigner(secretKey),
		subject: messaging.SubjectAuditAuth,
		logger:  logging.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records entry. Publish failures are logged and counted, never returned,
// so auditing cannot fail an authentication request.
func (l *Logger) Log(ctx context.Context, entry Entry) *models.AuditEvent {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	client := ClientFromContext(ctx)

	event := &models.AuditEvent{
		ID:        id.String(),
		Timestamp: l.now().UTC(),
		Action:    entry.Action,
		Result:    entry.Result,
		UserID:    entry.UserID,
		Email:     entry.Email,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		Reason:    entry.Reason,
	}
	event.Signature = l.signer.Sign(signedFields(event)...)

	level := slog.LevelInfo
	if event.Result == models.AuditResultFailure {
		level = slog.LevelWarn
	}
	l.logger.WithContext(ctx).LogAttrs(ctx, level, "audit event",
		slog.String("audit_id", event.ID),
		logging.Action(event.Action),
		slog.String("result", event.Result),
		logging.UserID(event.UserID),
		logging.Email(event.Email),
		logging.IP(event.IP),
		slog.String("reason", event.Reason),
	)

	if l.publisher != nil {
		l.publish(ctx, event)
	}

	return event
}

func (l *Logger) publish(ctx context.Context, event *models.AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to encode audit event", logging.Error(err))
		metrics.AuditPublishErrors.Inc()
		return
	}

	// The request may already be finished; the event still goes out.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msg := &messaging.Message{
		Subject: l.subject,
		Data:    data,
		Metadata: map[string]string{
			messaging.HeaderEventType: event.Action,
			messaging.HeaderSignature: event.Signature,
		},
		Timestamp: event.Timestamp,
	}
	if err := l.publisher.PublishMsg(pubCtx, msg); err != nil {
		l.logger.WarnContext(ctx, "failed to publish audit event",
			slog.String("audit_id", event.ID),
			slog.String("subject", l.subject),
			logging.Error(err),
		)
		metrics.AuditPublishErrors.Inc()
	}
}

// Verify reports whether event carries a valid signature for its fields.
func (l *Logger) Verify(event *models.AuditEvent) bool {
	return l.signer.Verify(event.Signature, signedFields(event)...)
}

func signedFields(e *models.AuditEvent) []string {
	return []string{
		e.ID,
		e.Timestamp.Format(time.RFC3339Nano),
		e.Action,
		e.Result,
		e.UserID,
		e.Email,
		e.IP,
		e.UserAgent,
		e.Reason,
	}
}
