// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ApprovalEmailData fills the teacher application approval email.
type ApprovalEmailData struct {
	SiteName     string
	FullName     string
	Email        string
	TempPassword string
	LoginURL     string
}

// BuildApprovalEmail welcomes an approved teacher and hands over their
// temporary password.
func BuildApprovalEmail(data ApprovalEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hello %s,\n\n", data.FullName)
	fmt.Fprintf(&text, "Your application to teach on %s has been approved.\n\n", data.SiteName)
	fmt.Fprintf(&text, "Sign in with:\n  Email: %s\n  Temporary password: %s\n\n", data.Email, data.TempPassword)
	if data.LoginURL != "" {
		fmt.Fprintf(&text, "%s\n\n", data.LoginURL)
	}
	text.WriteString("Please change your password after your first sign-in.\n")

	return Email{
		To:       data.Email,
		ToName:   data.FullName,
		Subject:  fmt.Sprintf("Your %s teacher application was approved", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(approvalTmpl, data),
	}
}

// NotificationEmailData fills a parent notification email.
type NotificationEmailData struct {
	SiteName    string
	ParentName  string
	ParentEmail string
	Title       string
	Message     string
}

// BuildNotificationEmail mirrors an in-app parent notification.
func BuildNotificationEmail(data NotificationEmailData) Email {
	return Email{
		To:       data.ParentEmail,
		ToName:   data.ParentName,
		Subject:  fmt.Sprintf("[%s] %s", data.SiteName, data.Title),
		TextBody: fmt.Sprintf("Hello %s,\n\n%s\n\n%s\n", data.ParentName, data.Title, data.Message),
		HTMLBody: render(notificationTmpl, data),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

var approvalTmpl = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; font-size: 16px; color: #374151; line-height: 1.5;">
              <p style="margin: 0 0 16px;">Hello {{.FullName}},</p>
              <p style="margin: 0 0 16px;">Your teacher application has been approved.</p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 16px; margin-bottom: 16px;">
                <div>Email: <strong>{{.Email}}</strong></div>
                <div>Temporary password: <strong style="font-family: 'Courier New', monospace;">{{.TempPassword}}</strong></div>
              </div>
              {{if .LoginURL}}<p style="margin: 0 0 16px;"><a href="{{.LoginURL}}" style="color: #4f46e5;">Sign in</a></p>{{end}}
              <p style="margin: 0; font-size: 13px; color: #9ca3af;">Please change your password after your first sign-in.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))

var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px; font-size: 16px; color: #374151; line-height: 1.5;">
              <p style="margin: 0 0 16px;">Hello {{.ParentName}},</p>
              <h2 style="margin: 0 0 12px; font-size: 18px; color: #1f2937;">{{.Title}}</h2>
              <p style="margin: 0;">{{.Message}}</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 16px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; font-size: 12px; color: #9ca3af; text-align: center;">
              {{.SiteName}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))
