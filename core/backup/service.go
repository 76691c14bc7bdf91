// Package backup archives planner exports in a Store and mails them to the teacher.
package backup

import (
	"bytes"
	"context"
	"net/mail"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/planner"
)

var (
	// errors
	ErrNoStore     = errors.New("no backup store configured")
	ErrNoMailer    = errors.New("no email service configured")
	ErrNoRecipient = errors.New("no recipient: set teacherEmail or give an address")
	ErrNotFound    = core.NewNotFoundError("backup")

	invalidEmailText = core.Texts{"en": "must be a valid email address", "es": "debe ser una dirección de correo válida", "ca": "ha de ser una adreça de correu vàlida"}
)

const templateName = "backup"

type (
	Deps struct {
		Planner      *planner.Service
		Store        Store             // optional
		Mailer       core.EmailService // optional
		Logger       core.Logger
		TeacherEmail string
	}

	Service struct {
		planner      *planner.Service
		store        Store
		mailer       core.EmailService
		logger       core.Logger
		teacherEmail string
	}

	// Summary is the template data of the backup email.
	Summary struct {
		Date       string `json:"date"`
		Filename   string `json:"filename"`
		Activities int    `json:"activities"`
		Students   int    `json:"students"`
		Entries    int    `json:"entries"`
	}
)

func NewService(deps Deps) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Planner, "Planner"),
		vala.IsNotNil(deps.Logger, "Logger"),
	).CheckAndPanic()

	return &Service{
		planner:      deps.Planner,
		store:        deps.Store,
		mailer:       deps.Mailer,
		logger:       deps.Logger,
		teacherEmail: deps.TeacherEmail,
	}
}

func (svc *Service) StoreEnabled() bool  { return svc.store != nil }
func (svc *Service) MailerEnabled() bool { return svc.mailer != nil }

// Archive uploads the current export under its dated file name (the same day overwrites).
func (svc *Service) Archive(ctx context.Context) (Info, error) {
	if svc.store == nil {
		return Info{}, ErrNoStore
	}
	data, filename, err := svc.planner.Export()
	if err != nil {
		return Info{}, err
	}
	info, err := svc.store.Put(ctx, filename, data)
	if err != nil {
		return Info{}, errors.Wrap(err, "archiving backup")
	}
	svc.logger.Info("backup archived: " + info.Key)
	return info, nil
}

func (svc *Service) List(ctx context.Context) ([]Info, error) {
	if svc.store == nil {
		return nil, ErrNoStore
	}
	return svc.store.List(ctx)
}

// Restore imports an archived backup, replacing the whole state.
func (svc *Service) Restore(ctx context.Context, key string) (planner.Snapshot, error) {
	if svc.store == nil {
		return planner.Snapshot{}, ErrNoStore
	}
	infos, err := svc.store.List(ctx)
	if err != nil {
		return planner.Snapshot{}, err
	}
	found := false
	for _, info := range infos {
		if info.Key == key || strings.HasSuffix(info.Key, "/"+key) {
			key, found = info.Key, true
			break
		}
	}
	if !found {
		return planner.Snapshot{}, ErrNotFound
	}

	data, err := svc.store.Get(ctx, key)
	if err != nil {
		return planner.Snapshot{}, errors.Wrap(err, "fetching backup")
	}
	snap, err := svc.planner.Import(ctx, data)
	if err != nil {
		return planner.Snapshot{}, err
	}
	svc.logger.Info("backup restored: " + key)
	return snap, nil
}

// Email sends the current export as an attachment to `to`, or to the teacher's address.
func (svc *Service) Email(to string) (Summary, error) {
	if svc.mailer == nil {
		return Summary{}, ErrNoMailer
	}
	if to = strings.TrimSpace(to); to == "" {
		to = svc.teacherEmail
	}
	if to == "" {
		return Summary{}, ErrNoRecipient
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return Summary{}, core.NewValidationError(err, core.NewFieldError("to", invalidEmailText))
	}

	data, filename, err := svc.planner.Export()
	if err != nil {
		return Summary{}, err
	}
	snap := svc.planner.State().Snapshot()
	summary := Summary{
		Date:       planner.FormatDate(planner.Today()),
		Filename:   filename,
		Activities: len(snap.Activities),
		Students:   len(snap.Students),
		Entries:    len(snap.ClassEntries),
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      "Copia de seguridad " + summary.Date,
		TemplateName: templateName,
		TemplateData: summary,
	}
	if err = msg.Attach(bytes.NewReader(data), filename, "application/json"); err != nil {
		return Summary{}, errors.Wrap(err, "attaching backup")
	}
	svc.mailer.SendMessages(msg)
	return summary, nil
}
