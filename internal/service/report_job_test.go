package service

import (
	"context"
	"errors"
	"html/template"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpark/internal/db"
	"smartpark/internal/entities"
)

type sentEmail struct {
	to, subject, plain, html string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, _, subject, plain, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{to, subject, plain, html})
	return f.err
}

type fakeSMS struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (f *fakeSMS) SendSMS(_ context.Context, _ string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	return f.err
}

type staticSnapshot struct {
	snap *entities.Snapshot
}

func (s staticSnapshot) Snapshot() *entities.Snapshot { return s.snap }

func testReport() *db.AnalysisReport {
	return &db.AnalysisReport{
		RequestID:   "req-1",
		Total:       62,
		Occupied:    19,
		Available:   43,
		Analysis:    "適中\n建議開放東側入口",
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestReportNotifier_SendsBothChannels(t *testing.T) {
	email, sms := &fakeEmail{}, &fakeSMS{}
	tmpl := template.Must(template.New("r").Parse(`<p>{{.LotName}} {{.Available}}/{{.Total}} {{.Analysis}}</p>`))
	n := NewReportNotifier(email, sms, NotifierConfig{EmailTo: "ops@example.com", SMSTo: "+15550100"}, tmpl, quietLogger())

	require.True(t, n.Enabled())
	require.NoError(t, n.SendReport(context.Background(), testReport()))

	require.Len(t, email.sent, 1)
	assert.Equal(t, "ops@example.com", email.sent[0].to)
	assert.Contains(t, email.sent[0].subject, "SmartPark 停車場狀況報告")
	assert.Contains(t, email.sent[0].plain, "佔用率：30.6%")
	assert.Contains(t, email.sent[0].html, "<p>SmartPark 43/62")

	require.Len(t, sms.bodies, 1)
	assert.Equal(t, "SmartPark：剩餘 43/62 車位（佔用率 30.6%）。\n適中", sms.bodies[0])
}

func TestReportNotifier_English(t *testing.T) {
	email := &fakeEmail{}
	n := NewReportNotifier(email, nil, NotifierConfig{EmailTo: "ops@example.com", Language: "en", LotName: "North"}, nil, quietLogger())

	require.NoError(t, n.SendReport(context.Background(), testReport()))
	require.Len(t, email.sent, 1)
	assert.Equal(t, "North status report - 2026-03-01 09:00 UTC", email.sent[0].subject)
	assert.Contains(t, email.sent[0].html, "<pre>North status report")
}

func TestReportNotifier_JoinsErrors(t *testing.T) {
	n := NewReportNotifier(
		&fakeEmail{err: errors.New("smtp")}, &fakeSMS{err: errors.New("sms")},
		NotifierConfig{EmailTo: "a@b.c", SMSTo: "+1"}, nil, quietLogger(),
	)
	err := n.SendReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report e-mail")
	assert.Contains(t, err.Error(), "report SMS")
}

func TestReportNotifier_DisabledWithoutRecipients(t *testing.T) {
	n := NewReportNotifier(&fakeEmail{}, &fakeSMS{}, NotifierConfig{}, nil, quietLogger())
	assert.False(t, n.Enabled())
}

func TestReportJob_Run(t *testing.T) {
	an := &gatedAnalyzer{release: make(chan struct{}), text: "scheduled text"}
	close(an.release)
	archive := &memArchive{}
	analysis := NewAnalysisService(an, WithReportArchiver(archive), WithAnalysisLogger(quietLogger()))
	email := &fakeEmail{}
	notifier := NewReportNotifier(email, nil, NotifierConfig{EmailTo: "ops@example.com"}, nil, quietLogger())

	lot := staticSnapshot{&entities.Snapshot{Stats: sampleStats()}}
	job := NewReportJob(lot, analysis, notifier, time.Second, quietLogger())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, archive.reports, 1)
	assert.Equal(t, TriggerScheduled, archive.reports[0].Trigger)
	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].plain, "scheduled text")
}

func TestReportJob_ArchiveFailureStillDelivers(t *testing.T) {
	an := &gatedAnalyzer{release: make(chan struct{}), text: "t"}
	close(an.release)
	analysis := NewAnalysisService(an, WithReportArchiver(&memArchive{err: errors.New("db down")}))
	email := &fakeEmail{}
	notifier := NewReportNotifier(email, nil, NotifierConfig{EmailTo: "ops@example.com"}, nil, quietLogger())

	job := NewReportJob(staticSnapshot{&entities.Snapshot{Stats: sampleStats()}}, analysis, notifier, 0, quietLogger())

	assert.Error(t, job.Run(context.Background()))
	assert.Len(t, email.sent, 1)
}

func TestReportJob_Schedule(t *testing.T) {
	job := NewReportJob(staticSnapshot{&entities.Snapshot{}}, NewAnalysisService(&gatedAnalyzer{}), nil, 0, quietLogger())
	c := cron.New()

	_, err := job.Schedule(context.Background(), c, "0 8 * * *")
	assert.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = job.Schedule(context.Background(), c, "every day")
	assert.Error(t, err)
}
