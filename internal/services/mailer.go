package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"gorm.io/gorm"
)

const sendgridEndpoint = "/v3/mail/send"

// Mailer sends transactional mail through SendGrid.
type Mailer struct {
	key  string
	host string
	from *sgmail.Email
}

// DefaultMailer is nil when SENDGRID_API_KEY is not set; callers check it.
var DefaultMailer *Mailer

func NewMailer(key, fromName, fromEmail string) *Mailer {
	if key == "" || fromEmail == "" {
		return nil
	}
	return &Mailer{
		key:  key,
		host: "https://api.sendgrid.com",
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

func (m *Mailer) build(to models.User, subject, text, html string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail(to.Name, to.Email))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(
		sgmail.NewContent("text/plain", text),
		sgmail.NewContent("text/html", html),
	)
	return msg
}

func (m *Mailer) Send(to models.User, subject, text, html string) error {
	if to.Email == "" {
		return fmt.Errorf("recipient has no email")
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.build(to, subject, text, html))

	res, err := sendgrid.API(req)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// NotifyCertificateIssued mails the learner in their preferred language.
// Errors are logged only; the certificate is already persisted.
func (m *Mailer) NotifyCertificateIssued(db *gorm.DB, cert models.Certificate) {
	var user models.User
	var course models.Course
	if err := db.First(&user, "id = ?", cert.ClientID).Error; err != nil {
		logger.Error().Err(err).Str("user_id", cert.ClientID).Msg("Certificate mail: user lookup failed")
		return
	}
	if err := db.First(&course, "id = ?", cert.CourseID).Error; err != nil {
		logger.Error().Err(err).Str("course_id", cert.CourseID).Msg("Certificate mail: course lookup failed")
		return
	}

	title := course.Title(user.PreferredLanguage)
	subject := models.Localize(user.PreferredLanguage,
		"Your certificate for "+title,
		"شهادتك في "+title)
	text := models.Localize(user.PreferredLanguage,
		fmt.Sprintf("Congratulations %s! You completed %s.\nCertificate %s: %s", user.Name, title, cert.CertificateNumber, cert.URL),
		fmt.Sprintf("مبروك %s! لقد أكملت %s.\nالشهادة %s: %s", user.Name, title, cert.CertificateNumber, cert.URL))
	html := "<p>" + strings.ReplaceAll(text, "\n", "</p><p>") + "</p>"

	if err := m.Send(user, subject, text, html); err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send certificate mail")
	}
}

// NotifyPaymentConfirmed mails a receipt for a reconciled checkout.
func (m *Mailer) NotifyPaymentConfirmed(db *gorm.DB, clientID, checkoutRef string, total float64, currency string) {
	var user models.User
	if err := db.First(&user, "id = ?", clientID).Error; err != nil {
		logger.Error().Err(err).Str("user_id", clientID).Msg("Payment mail: user lookup failed")
		return
	}
	subject := models.Localize(user.PreferredLanguage, "Payment confirmed", "تم تأكيد الدفع")
	text := models.Localize(user.PreferredLanguage,
		fmt.Sprintf("We received your payment of %.2f %s (ref %s). Your content is now unlocked.", total, currency, checkoutRef),
		fmt.Sprintf("استلمنا دفعتك بقيمة %.2f %s (المرجع %s). تم فتح المحتوى الخاص بك.", total, currency, checkoutRef))

	if err := m.Send(user, subject, text, "<p>"+text+"</p>"); err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send payment mail")
	}
}
