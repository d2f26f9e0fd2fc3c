package template

import (
	"context"
	stdErrors "errors"
	"strings"
	"time"

	"template-mailer/internal/dataset"
	"template-mailer/internal/errors"
	"template-mailer/internal/mail"
	"template-mailer/internal/metrics"
	"template-mailer/internal/user"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	ListTemplates(ctx context.Context, ident user.Identity) ([]Template, error)
	GetTemplate(ctx context.Context, ident user.Identity, id TemplateID) (*Template, error)
	CreateTemplate(ctx context.Context, ident user.Identity, fields CreateFields) (*Template, error)
	SetColor(ctx context.Context, ident user.Identity, id TemplateID, color *string) error
	DeleteTemplate(ctx context.Context, ident user.Identity, id TemplateID, confirmName *string) error
	HideTemplate(ctx context.Context, ident user.Identity, id TemplateID) error
	RestoreTemplate(ctx context.Context, ident user.Identity, id TemplateID) error
	SendTemplate(ctx context.Context, ident user.Identity, id TemplateID, values map[string]string, to string) (string, error)
	SendEmail(ctx context.Context, ident user.Identity, msg mail.Message) (string, error)
}

type DefaultService struct {
	repo     OverlayRepository
	migrator *Migrator
	source   dataset.Source
	mailer   mail.Dispatcher
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*DefaultService)

// WithClock replaces the clock used for new template ids.
func WithClock(now func() time.Time) Option {
	return func(s *DefaultService) { s.now = now }
}

func NewService(repo OverlayRepository, source dataset.Source, mailer mail.Dispatcher, log *zap.Logger, opts ...Option) *DefaultService {
	s := &DefaultService{
		repo:     repo,
		migrator: NewMigrator(repo, log),
		source:   source,
		mailer:   mailer,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireIdentity(ident user.Identity) error {
	if ident.Email == "" {
		return errors.Unauthorized("sign in required", nil)
	}
	return nil
}

func track(operation string, err *error) {
	metrics.TemplateOperations.WithLabelValues(operation, metrics.Result(*err)).Inc()
}

// ListTemplates drains pending anonymous and legacy templates into the
// user's overlay, then merges it over the base dataset. The dataset and
// global colors load while migration runs.
func (s *DefaultService) ListTemplates(ctx context.Context, ident user.Identity) (out []Template, err error) {
	defer track("list", &err)
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}

	var (
		base   []Template
		colors GlobalColors
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = s.loadBase(gctx)
		return err
	})
	g.Go(func() error {
		colors = s.repo.GlobalColors(gctx)
		return nil
	})

	overlay := s.repo.Load(ctx, s.repo.UserKey(ident.Email))
	_, migErr := s.migrator.Run(ctx, ident.Email, overlay)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if migErr != nil {
		return nil, migErr
	}
	return ComputeVisibleTemplates(base, *overlay, colors), nil
}

func (s *DefaultService) GetTemplate(ctx context.Context, ident user.Identity, id TemplateID) (*Template, error) {
	list, err := s.ListTemplates(ctx, ident)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, errors.NotFound("template not found", nil)
}

func (s *DefaultService) CreateTemplate(ctx context.Context, ident user.Identity, fields CreateFields) (t *Template, err error) {
	defer track("create", &err)
	if err := requireIdentity(ident); err != nil {
		return nil, err
	}

	key := s.repo.UserKey(ident.Email)
	overlay := s.repo.Load(ctx, key)
	created, err := overlay.Create(fields, ident.Email, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, key, overlay); err != nil {
		return nil, err
	}
	s.log.Info("template created", zap.String("user", ident.Email), zap.Stringer("id", created.ID))
	return &created, nil
}

// SetColor recolors a personal template in place, or records an override
// when id is a base row.
func (s *DefaultService) SetColor(ctx context.Context, ident user.Identity, id TemplateID, color *string) (err error) {
	defer track("set_color", &err)
	if err := requireIdentity(ident); err != nil {
		return err
	}

	key := s.repo.UserKey(ident.Email)
	overlay := s.repo.Load(ctx, key)
	if overlay.additionIndex(id) >= 0 {
		if err := overlay.UpdateColor(id, color); err != nil {
			return err
		}
		return s.repo.Save(ctx, key, overlay)
	}

	ok, err := s.isBaseRow(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound("template not found", nil)
	}
	overlay.SetBaseColor(id, color)
	return s.repo.Save(ctx, key, overlay)
}

func (s *DefaultService) DeleteTemplate(ctx context.Context, ident user.Identity, id TemplateID, confirmName *string) (err error) {
	defer track("delete", &err)
	if err := requireIdentity(ident); err != nil {
		return err
	}

	key := s.repo.UserKey(ident.Email)
	overlay := s.repo.Load(ctx, key)
	if err := overlay.Delete(id, confirmName); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, key, overlay); err != nil {
		return err
	}
	s.log.Info("template deleted", zap.String("user", ident.Email), zap.Stringer("id", id))
	return nil
}

func (s *DefaultService) HideTemplate(ctx context.Context, ident user.Identity, id TemplateID) (err error) {
	defer track("hide", &err)
	return s.mutateBaseRow(ctx, ident, id, (*Overlay).Hide)
}

func (s *DefaultService) RestoreTemplate(ctx context.Context, ident user.Identity, id TemplateID) (err error) {
	defer track("restore", &err)
	return s.mutateBaseRow(ctx, ident, id, (*Overlay).Restore)
}

func (s *DefaultService) mutateBaseRow(ctx context.Context, ident user.Identity, id TemplateID, op func(*Overlay, TemplateID)) error {
	if err := requireIdentity(ident); err != nil {
		return err
	}

	key := s.repo.UserKey(ident.Email)
	overlay := s.repo.Load(ctx, key)
	if overlay.additionIndex(id) >= 0 {
		return errors.NotFound("not a base template", nil)
	}
	ok, err := s.isBaseRow(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound("template not found", nil)
	}
	op(overlay, id)
	return s.repo.Save(ctx, key, overlay)
}

// SendTemplate renders a visible template with values and mails it to to,
// or to the template's recipient when to is empty.
func (s *DefaultService) SendTemplate(ctx context.Context, ident user.Identity, id TemplateID, values map[string]string, to string) (string, error) {
	t, err := s.GetTemplate(ctx, ident, id)
	if err != nil {
		return "", err
	}
	if to = strings.TrimSpace(to); to == "" {
		to = t.ToEmail
	}
	subject, body := mail.Render(t.Subject, t.Body, t.Placeholders, values)
	return s.SendEmail(ctx, ident, mail.Message{To: to, Subject: subject, HTMLBody: body})
}

func (s *DefaultService) SendEmail(ctx context.Context, ident user.Identity, msg mail.Message) (msgID string, err error) {
	defer track("send", &err)
	if err := requireIdentity(ident); err != nil {
		return "", err
	}
	if msg.To == "" || msg.Subject == "" || msg.HTMLBody == "" {
		return "", errors.Validation("to, subject and body are required", nil)
	}

	msgID, err = s.mailer.Send(ctx, msg, ident.AccessToken)
	switch {
	case err == nil:
		return msgID, nil
	case stdErrors.Is(err, mail.ErrNoCredential):
		return "", errors.NoToken("no access token, sign in again")
	case stdErrors.Is(err, mail.ErrInvalidRecipient):
		return "", errors.Validation("invalid recipient", err)
	default:
		return "", errors.Send(err)
	}
}

func (s *DefaultService) loadBase(ctx context.Context) ([]Template, error) {
	rows, err := s.source.Load(ctx)
	if err != nil {
		return nil, errors.Dataset("failed to load base templates", err)
	}
	return fromRows(rows), nil
}

func (s *DefaultService) isBaseRow(ctx context.Context, id TemplateID) (bool, error) {
	base, err := s.loadBase(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range base {
		if t.ID == id {
			return true, nil
		}
	}
	return false, nil
}
