package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ediltrentini/site-backend/errs"
)

// Inquiry is a contact-form submission.
type Inquiry struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

func (i Inquiry) normalized() Inquiry {
	return Inquiry{
		Name:    strings.TrimSpace(i.Name),
		Email:   strings.TrimSpace(i.Email),
		Phone:   strings.TrimSpace(i.Phone),
		Service: strings.TrimSpace(i.Service),
		Message: strings.TrimSpace(i.Message),
	}
}

func (i Inquiry) validate() error {
	switch {
	case i.Name == "":
		return errs.NewMissingRequiredFieldError("name")
	case i.Email == "":
		return errs.NewMissingRequiredFieldError("email")
	case i.Message == "":
		return errs.NewMissingRequiredFieldError("message")
	}
	return nil
}

// InquiryService forwards contact-form submissions to the site owner. Nothing
// is stored.
type InquiryService struct {
	mailer    Mailer
	recipient string
	notifier  Notifier
	logger    zerolog.Logger
}

// NewInquiryService builds the service. notifier may be nil.
func NewInquiryService(mailer Mailer, recipient string, notifier Notifier) *InquiryService {
	return &InquiryService{
		mailer:    mailer,
		recipient: recipient,
		notifier:  notifier,
		logger:    log.With().Str("service", "inquiry").Logger(),
	}
}

// Submit validates the inquiry and mails it to the recipient with the
// submitter as Reply-To. A mail failure is the only server-side error; the SMS
// alert never fails the request.
func (s *InquiryService) Submit(ctx context.Context, in Inquiry) error {
	in = in.normalized()
	if err := in.validate(); err != nil {
		return err
	}

	email := Email{
		To:      []string{s.recipient},
		ReplyTo: in.Email,
		Subject: fmt.Sprintf("Nuova richiesta dal sito: %s", in.Name),
		HTML:    inquiryHTML(in),
		Text:    inquiryText(in),
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		s.logger.Error().Err(err).Str("from", in.Email).Msg("failed to deliver inquiry")
		return errs.NewTransportError("email", err)
	}
	s.logger.Info().Str("from", in.Email).Str("service", in.Service).Msg("inquiry delivered")

	if s.notifier != nil {
		body := fmt.Sprintf("Nuova richiesta da %s (%s)", in.Name, in.Email)
		if in.Phone != "" {
			body += " tel. " + in.Phone
		}
		if err := s.notifier.Notify(ctx, body); err != nil {
			s.logger.Warn().Err(err).Msg("inquiry sms alert failed")
		}
	}
	return nil
}

func inquiryFields(in Inquiry) [][2]string {
	fields := [][2]string{{"Nome", in.Name}, {"Email", in.Email}}
	if in.Phone != "" {
		fields = append(fields, [2]string{"Telefono", in.Phone})
	}
	if in.Service != "" {
		fields = append(fields, [2]string{"Servizio", in.Service})
	}
	return fields
}

func inquiryHTML(in Inquiry) string {
	var b strings.Builder
	b.WriteString("<h2>Nuova richiesta dal sito</h2>\n<table>\n")
	for _, f := range inquiryFields(in) {
		fmt.Fprintf(&b, "<tr><td><strong>%s</strong></td><td>%s</td></tr>\n", f[0], html.EscapeString(f[1]))
	}
	b.WriteString("</table>\n<p>")
	b.WriteString(strings.ReplaceAll(html.EscapeString(in.Message), "\n", "<br>"))
	b.WriteString("</p>\n")
	return b.String()
}

func inquiryText(in Inquiry) string {
	var b strings.Builder
	for _, f := range inquiryFields(in) {
		fmt.Fprintf(&b, "%s: %s\n", f[0], f[1])
	}
	b.WriteString("\n")
	b.WriteString(in.Message)
	b.WriteString("\n")
	return b.String()
}
