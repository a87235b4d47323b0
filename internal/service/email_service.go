package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"village/internal/models"
)

// emailSender is the part of the SES client the email service uses
type emailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     emailSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		if debug {
			log.Println("[DEBUG] Email service will skip sending all emails")
		}
		return &EmailService{
			enabled:    false,
			appBaseURL: appBaseURL,
			debug:      debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From: %s <%s>", fromName, fromEmail)
		log.Printf("[DEBUG] App Base URL: %s", appBaseURL)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailService(client emailSender, fromEmail, fromName, appBaseURL string, debug bool) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimSuffix(appBaseURL, "/"),
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

const emailStyle = `
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2f855a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2f855a; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
		table { width: 100%; border-collapse: collapse; }
		th, td { text-align: left; padding: 6px; border-bottom: 1px solid #ddd; }`

var (
	passwordResetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><style>{{.Style}}</style></head>
<body>
	<div class="container">
		<div class="header"><h1>Password Reset Request</h1></div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>We received a request to reset the password for your Village account.</p>
			<p style="text-align: center;"><a href="{{.Link}}" class="button">Reset Password</a></p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
			<p><strong>This link will expire in 1 hour.</strong></p>
			<p>If you didn't request a password reset, you can safely ignore this email.</p>
		</div>
		<div class="footer"><p>This is an automated email from Village. Please do not reply.</p></div>
	</div>
</body>
</html>
`))

	welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><style>{{.Style}}</style></head>
<body>
	<div class="container">
		<div class="header"><h1>Welcome to Village!</h1></div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>Your Village account is ready. Here's what you can do next:</p>
			<ul>
				<li>Add your children and share the family code with a co-parent</li>
				<li>Set up a school year and its breaks</li>
				<li>Add courses and let Village keep track of where each child should be</li>
				<li>Log attendance, reading, assignments and portfolio work</li>
			</ul>
			<p style="text-align: center;"><a href="{{.Link}}" class="button">Get Started</a></p>
		</div>
		<div class="footer"><p>This is an automated email from Village. Please do not reply.</p></div>
	</div>
</body>
</html>
`))

	progressReportHTML = template.Must(template.New("report").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format(models.DateLayout) },
	}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><style>{{.Style}}</style></head>
<body>
	<div class="container">
		<div class="header"><h1>{{.Report.Child.Name}}'s Progress</h1></div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>Here is {{.Report.Child.Name}}'s progress for {{.Report.SchoolYear.Name}} as of {{date .Report.GeneratedOn}}.</p>
			<h3>Courses</h3>
			<table>
				<tr><th>Course</th><th>Lesson</th><th>Expected</th><th>Status</th><th>Grade</th></tr>
				{{range .Report.Courses}}<tr>
					<td>{{.CourseName}}</td>
					<td>{{.CurrentLesson}} / {{.TotalLessons}}</td>
					<td>{{.ExpectedLesson}}</td>
					<td>{{.Status}}</td>
					<td>{{if .Grade}}{{.Grade.Letter}}{{else}}-{{end}}</td>
				</tr>{{end}}
			</table>
			<h3>This year</h3>
			<ul>
				<li>Days attended: {{.Report.Attendance.DaysAttended}} ({{.Report.Attendance.TotalHours}} hours)</li>
				<li>Reading: {{.Report.Reading.Minutes}} minutes, {{.Report.Reading.BooksFinished}} books finished</li>
				<li>Assignments completed: {{.Report.AssignmentsCompleted}}, pending: {{.Report.AssignmentsPending}}</li>
				<li>Goals completed: {{.Report.GoalsCompleted}}, open: {{.Report.GoalsOpen}}</li>
				<li>Portfolio items: {{.Report.PortfolioItems}}</li>
			</ul>
		</div>
		<div class="footer"><p>This is an automated email from Village. Please do not reply.</p></div>
	</div>
</body>
</html>
`))
)

type emailData struct {
	Style  template.CSS
	Name   string
	Link   string
	Report *ProgressReport
}

func renderEmail(t *template.Template, data emailData) (string, error) {
	data.Style = template.CSS(emailStyle)
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if s.debug {
		log.Printf("[DEBUG] SendPasswordResetEmail called: to=%s, name=%s", toEmail, toName)
	}

	if !s.enabled {
		log.Printf("Skipping email send (service disabled): password reset to %s", toEmail)
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, resetToken)
	htmlBody, err := renderEmail(passwordResetHTML, emailData{Name: toName, Link: resetLink})
	if err != nil {
		return err
	}

	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset the password for your Village account.

Click the link below to reset your password:
%s

This link will expire in 1 hour.

If you didn't request a password reset, you can safely ignore this email.

---
This is an automated email from Village. Please do not reply.
`, toName, resetLink)

	return s.sendEmail(ctx, toEmail, "Reset Your Village Password", htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email to new users
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if s.debug {
		log.Printf("[DEBUG] SendWelcomeEmail called: to=%s, name=%s", toEmail, toName)
	}

	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	link := s.appBaseURL + "/login"
	htmlBody, err := renderEmail(welcomeHTML, emailData{Name: toName, Link: link})
	if err != nil {
		return err
	}

	textBody := fmt.Sprintf(`Hi %s,

Your Village account is ready. Here's what you can do next:
- Add your children and share the family code with a co-parent
- Set up a school year and its breaks
- Add courses and let Village keep track of where each child should be
- Log attendance, reading, assignments and portfolio work

Get started: %s

---
This is an automated email from Village. Please do not reply.
`, toName, link)

	return s.sendEmail(ctx, toEmail, "Welcome to Village!", htmlBody, textBody)
}

// SendProgressReportEmail sends a child's progress report to a parent
func (s *EmailService) SendProgressReportEmail(ctx context.Context, toEmail, toName string, report *ProgressReport) error {
	if s.debug {
		log.Printf("[DEBUG] SendProgressReportEmail called: to=%s, child=%d", toEmail, report.Child.ID)
	}

	if !s.enabled {
		log.Printf("Skipping email send (service disabled): progress report to %s", toEmail)
		return nil
	}

	htmlBody, err := renderEmail(progressReportHTML, emailData{Name: toName, Report: report})
	if err != nil {
		return err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", toName)
	fmt.Fprintf(&text, "Here is %s's progress for %s as of %s.\n\n",
		report.Child.Name, report.SchoolYear.Name, report.GeneratedOn.Format(models.DateLayout))
	for _, c := range report.Courses {
		grade := "-"
		if c.Grade != nil {
			grade = c.Grade.Letter
		}
		fmt.Fprintf(&text, "- %s: lesson %d of %d, expected %d (%s), grade %s\n",
			c.CourseName, c.CurrentLesson, c.TotalLessons, c.ExpectedLesson, c.Status, grade)
	}
	fmt.Fprintf(&text, "\nDays attended: %d\n", report.Attendance.DaysAttended)
	fmt.Fprintf(&text, "Reading minutes: %d\n", report.Reading.Minutes)
	fmt.Fprintf(&text, "Assignments completed: %d, pending: %d\n", report.AssignmentsCompleted, report.AssignmentsPending)
	text.WriteString("\n---\nThis is an automated email from Village. Please do not reply.\n")

	subject := fmt.Sprintf("%s's progress report", report.Child.Name)
	return s.sendEmail(ctx, toEmail, subject, htmlBody, text.String())
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s, to=%s, subject=%s", fromAddress, toEmail, subject)
		log.Printf("[DEBUG] HTML body length: %d bytes, text body length: %d bytes", len(htmlBody), len(textBody))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		if s.debug {
			log.Printf("[DEBUG] SES SendEmail failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
