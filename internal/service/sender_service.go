package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"smartpark/internal/db"
	"smartpark/internal/entities"
)

// ReportNotifier delivers scheduled analysis reports by e-mail and SMS.
// Either channel may be nil.
type ReportNotifier struct {
	email    EmailSender
	sms      SMSSender
	emailTo  string
	smsTo    string
	language string
	lotName  string
	tmpl     *template.Template
	logger   *slog.Logger
}

type NotifierConfig struct {
	EmailTo  string
	SMSTo    string
	Language string
	LotName  string
}

func NewReportNotifier(email EmailSender, sms SMSSender, cfg NotifierConfig, tmpl *template.Template, logger *slog.Logger) *ReportNotifier {
	if cfg.LotName == "" {
		cfg.LotName = "SmartPark"
	}
	return &ReportNotifier{
		email:    email,
		sms:      sms,
		emailTo:  cfg.EmailTo,
		smsTo:    cfg.SMSTo,
		language: cfg.Language,
		lotName:  cfg.LotName,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Enabled reports whether at least one channel has both a sender and a recipient.
func (n *ReportNotifier) Enabled() bool {
	return (n.email != nil && n.emailTo != "") || (n.sms != nil && n.smsTo != "")
}

// SendReport sends report on every configured channel and joins their errors.
func (n *ReportNotifier) SendReport(ctx context.Context, report *db.AnalysisReport) error {
	data := reportData(n.lotName, report)

	var errs []error
	if n.email != nil && n.emailTo != "" {
		subject, plain := n.emailText(data)
		html, err := n.renderHTML(data)
		if err != nil {
			n.logger.Error("Failed to render report e-mail template", "error", err)
		}
		if html == "" {
			html = "<pre>" + template.HTMLEscapeString(plain) + "</pre>"
		}
		if err := n.email.SendEmail(ctx, n.emailTo, n.lotName, subject, plain, html); err != nil {
			errs = append(errs, fmt.Errorf("report e-mail: %w", err))
		}
	}
	if n.sms != nil && n.smsTo != "" {
		if err := n.sms.SendSMS(ctx, n.smsTo, n.smsText(data)); err != nil {
			errs = append(errs, fmt.Errorf("report SMS: %w", err))
		}
	}
	return errors.Join(errs...)
}

func reportData(lotName string, r *db.AnalysisReport) entities.ReportMessageData {
	rate := 0.0
	if r.Total > 0 {
		rate = float64(r.Occupied) / float64(r.Total) * 100
	}
	return entities.ReportMessageData{
		LotName:       lotName,
		GeneratedAt:   r.GeneratedAt.Format("2006-01-02 15:04 MST"),
		Total:         r.Total,
		Occupied:      r.Occupied,
		Available:     r.Available,
		OccupancyRate: fmt.Sprintf("%.1f%%", rate),
		Analysis:      r.Analysis,
		CurrentYear:   r.GeneratedAt.Year(),
	}
}

func (n *ReportNotifier) emailText(d entities.ReportMessageData) (string, string) {
	switch n.language {
	case "en":
		subject := fmt.Sprintf("%s status report - %s", d.LotName, d.GeneratedAt)
		body := fmt.Sprintf(
			"%s status report (%s)\n\n"+
				"Total spots: %d\n"+
				"Occupied: %d\n"+
				"Available: %d\n"+
				"Occupancy: %s\n\n"+
				"%s\n\n"+
				"%s %d",
			d.LotName, d.GeneratedAt, d.Total, d.Occupied, d.Available, d.OccupancyRate, d.Analysis, d.LotName, d.CurrentYear,
		)
		return subject, body
	default:
		subject := fmt.Sprintf("%s 停車場狀況報告 - %s", d.LotName, d.GeneratedAt)
		body := fmt.Sprintf(
			"%s 停車場狀況報告 (%s)\n\n"+
				"總車位：%d\n"+
				"已佔用：%d\n"+
				"剩餘車位：%d\n"+
				"佔用率：%s\n\n"+
				"%s\n\n"+
				"%s %d",
			d.LotName, d.GeneratedAt, d.Total, d.Occupied, d.Available, d.OccupancyRate, d.Analysis, d.LotName, d.CurrentYear,
		)
		return subject, body
	}
}

// smsText keeps only the first line of the analysis.
func (n *ReportNotifier) smsText(d entities.ReportMessageData) string {
	summary, _, _ := strings.Cut(strings.TrimSpace(d.Analysis), "\n")
	switch n.language {
	case "en":
		return fmt.Sprintf("%s: %d/%d spots free (%s occupied).\n%s", d.LotName, d.Available, d.Total, d.OccupancyRate, summary)
	default:
		return fmt.Sprintf("%s：剩餘 %d/%d 車位（佔用率 %s）。\n%s", d.LotName, d.Available, d.Total, d.OccupancyRate, summary)
	}
}

func (n *ReportNotifier) renderHTML(d entities.ReportMessageData) (string, error) {
	if n.tmpl == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
