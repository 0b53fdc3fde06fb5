// Package ses sends agent match digests via AWS SES.
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-matching-engine/internal/models"
	"property-matching-engine/internal/utils"
)

// Service handles SES email operations
type Service struct {
	client    *ses.Client
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// MatchDigestParams contains data for the agent match digest email
type MatchDigestParams struct {
	AgentName     string
	AgentEmail    string
	PropertyTitle string
	PropertyPlace string
	MatchCount    int
	TopClients    []ClientMatchInfo
	DashboardURL  string
}

// ClientMatchInfo contains info about a single matching client for email
type ClientMatchInfo struct {
	Name    string
	Email   string
	Phone   string
	Score   int
	Reasons []string
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service sending from fromEmail.
func NewService(ctx context.Context, region, fromEmail string) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.GetLogger().Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", aws.ToString(result.MessageId)),
	)

	return &SendEmailResult{
		MessageID: aws.ToString(result.MessageId),
		SentAt:    time.Now(),
	}, nil
}

// SendMatchDigest sends the agent a digest of clients matching a property.
func (s *Service) SendMatchDigest(ctx context.Context, params MatchDigestParams) (*SendEmailResult, error) {
	htmlBody, err := RenderMatchDigestHTML(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       params.AgentEmail,
		Subject:  MatchDigestSubject(params),
		HTMLBody: htmlBody,
		TextBody: RenderMatchDigestText(params),
	})
}

// BuildMatchDigestParams creates digest params from a clients-for-property run.
// At most limit clients are listed; limit <= 0 lists all of them.
func BuildMatchDigestParams(agent *models.Agent, property *models.Property, resp *models.MatchResponse, clients map[uuid.UUID]*models.Client, limit int, dashboardURL string) MatchDigestParams {
	matches := resp.Matches
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	top := make([]ClientMatchInfo, 0, len(matches))
	for _, m := range matches {
		info := ClientMatchInfo{
			Name:    m.CandidateName,
			Score:   m.OverallScore,
			Reasons: m.MatchReasons,
		}
		if c, ok := clients[m.CandidateID]; ok {
			info.Email = c.Email
			info.Phone = c.Phone
		}
		top = append(top, info)
	}

	return MatchDigestParams{
		AgentName:     agent.Name,
		AgentEmail:    agent.Email,
		PropertyTitle: property.Title,
		PropertyPlace: placeOf(property),
		MatchCount:    resp.TotalMatches,
		TopClients:    top,
		DashboardURL:  dashboardURL,
	}
}

func placeOf(p *models.Property) string {
	parts := make([]string, 0, 2)
	if p.PostalCode != "" {
		parts = append(parts, p.PostalCode)
	}
	if p.City != "" {
		parts = append(parts, p.City)
	}
	return strings.Join(parts, " ")
}

// MatchDigestSubject returns the digest subject line.
func MatchDigestSubject(params MatchDigestParams) string {
	if params.MatchCount == 1 {
		return fmt.Sprintf("1 client matches %s", params.PropertyTitle)
	}
	return fmt.Sprintf("%d clients match %s", params.MatchCount, params.PropertyTitle)
}

var digestTemplate = template.Must(template.New("match_digest").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f4e79; color: white; padding: 24px; border-radius: 10px 10px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f7f7f7; padding: 24px; border-radius: 0 0 10px 10px; }
        .client-card { background: white; border-radius: 8px; padding: 16px; margin: 12px 0; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
        .client-card h3 { margin: 0 0 6px 0; color: #1f4e79; }
        .contact { color: #666; font-size: 14px; }
        .score-badge { float: right; background: #2e7d32; color: white; padding: 4px 10px; border-radius: 16px; font-weight: bold; }
        .cta-button { display: inline-block; background: #1f4e79; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; font-weight: bold; margin-top: 16px; }
        .footer { text-align: center; margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.PropertyTitle}}</h1>
        {{if .PropertyPlace}}<p>{{.PropertyPlace}}</p>{{end}}
    </div>
    <div class="content">
        <p>Hi {{.AgentName}}, {{.MatchCount}} of your clients match this property.</p>
        {{range .TopClients}}
        <div class="client-card">
            <span class="score-badge">{{.Score}}%</span>
            <h3>{{.Name}}</h3>
            <p class="contact">{{.Email}}{{if and .Email .Phone}} · {{end}}{{.Phone}}</p>
            {{if .Reasons}}<ul>{{range .Reasons}}<li>{{.}}</li>{{end}}</ul>{{end}}
        </div>
        {{end}}
        {{if .DashboardURL}}
        <div style="text-align: center;">
            <a href="{{.DashboardURL}}" class="cta-button">Open dashboard</a>
        </div>
        {{end}}
    </div>
    <div class="footer">
        <p>Sent by the property matching engine</p>
    </div>
</body>
</html>`))

// RenderMatchDigestHTML renders the HTML email body.
func RenderMatchDigestHTML(params MatchDigestParams) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderMatchDigestText renders the plain text version.
func RenderMatchDigestText(params MatchDigestParams) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", params.AgentName))
	buf.WriteString(fmt.Sprintf("%d of your clients match %s", params.MatchCount, params.PropertyTitle))
	if params.PropertyPlace != "" {
		buf.WriteString(fmt.Sprintf(" (%s)", params.PropertyPlace))
	}
	buf.WriteString(".\n\n")

	for i, c := range params.TopClients {
		buf.WriteString(fmt.Sprintf("%d. %s - %d%%\n", i+1, c.Name, c.Score))
		if c.Email != "" {
			buf.WriteString(fmt.Sprintf("   Email: %s\n", c.Email))
		}
		if c.Phone != "" {
			buf.WriteString(fmt.Sprintf("   Phone: %s\n", c.Phone))
		}
		for _, r := range c.Reasons {
			buf.WriteString(fmt.Sprintf("   - %s\n", r))
		}
		buf.WriteString("\n")
	}

	if params.DashboardURL != "" {
		buf.WriteString(fmt.Sprintf("Open dashboard: %s\n\n", params.DashboardURL))
	}

	return buf.String()
}
