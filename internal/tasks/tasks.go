package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypePasswordResetEmail = "email:password_reset"

	QueueEmail = "email"
)

type PasswordResetPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	ResetURL string `json:"reset_url,omitempty"`
}

func NewPasswordResetTask(p PasswordResetPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal password reset payload: %w", err)
	}
	return asynq.NewTask(TypePasswordResetEmail, payload), nil
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Enqueuer struct {
	client taskClient
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueuePasswordReset schedules the reset e-mail. The task expires together
// with the code it carries.
func (e *Enqueuer) EnqueuePasswordReset(ctx context.Context, p PasswordResetPayload, ttl time.Duration) error {
	task, err := NewPasswordResetTask(p)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueEmail),
		asynq.MaxRetry(5),
		asynq.Deadline(time.Now().Add(ttl)),
	); err != nil {
		return fmt.Errorf("enqueue password reset: %w", err)
	}
	return nil
}

type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, code, resetURL string) error
}

type Handler struct {
	mailer ResetMailer
	logger *zap.Logger
}

func NewHandler(mailer ResetMailer, logger *zap.Logger) *Handler {
	return &Handler{mailer: mailer, logger: logger}
}

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePasswordResetEmail, h.HandlePasswordReset)
}

func (h *Handler) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	var p PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode password reset payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.mailer.SendPasswordReset(ctx, p.Email, p.Name, p.Code, p.ResetURL); err != nil {
		h.logger.Warn("password reset email failed", zap.String("email", p.Email), zap.Error(err))
		return err
	}

	h.logger.Info("password reset email sent", zap.String("email", p.Email))
	return nil
}
