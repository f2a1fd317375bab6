package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smtplib "github.com/clubops/club-billing/internal/lib/smtp"
	"github.com/clubops/club-billing/internal/models"
)

type writeCloserStub struct {
	bytes.Buffer
}

func (w *writeCloserStub) Close() error { return nil }

type clientStub struct {
	from   string
	rcpts  []string
	data   writeCloserStub
	closed bool
}

func (c *clientStub) Mail(from string) error { c.from = from; return nil }
func (c *clientStub) Rcpt(to string) error   { c.rcpts = append(c.rcpts, to); return nil }
func (c *clientStub) Data() (io.WriteCloser, error) {
	return &c.data, nil
}
func (c *clientStub) Quit() error  { return nil }
func (c *clientStub) Close() error { c.closed = true; return nil }

type transportStub struct {
	client     *clientStub
	connectErr error
}

func (t *transportStub) Connect() (smtplib.Client, error) {
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	return t.client, nil
}

func (t *transportStub) GetSMTPUser() string { return "billing@club.example" }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSendShareCreatedEmail(t *testing.T) {
	client := &clientStub{}
	transport := &transportStub{client: client}
	service := NewSenderService(newNoopLogger(), transport)

	info := models.ShareCreatedInfo{
		Email:      "ana@example.com",
		MemberName: "Ana Gomez",
		PeriodDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Amount:     30000,
	}
	body, err := json.Marshal(info)
	require.NoError(t, err)

	require.NoError(t, service.SendShareCreatedEmail(body))

	assert.Equal(t, "billing@club.example", client.from)
	assert.Equal(t, []string{"ana@example.com"}, client.rcpts)

	msg := client.data.String()
	assert.Contains(t, msg, "Subject: Клубный взнос за 07-2025")
	assert.Contains(t, msg, "Ana Gomez")
	assert.Contains(t, msg, "30000")
	assert.Contains(t, msg, "10%")
	assert.Contains(t, msg, "20%")
}

func TestSendShareCreatedEmail_BadBody(t *testing.T) {
	service := NewSenderService(newNoopLogger(), &transportStub{client: &clientStub{}})

	err := service.SendShareCreatedEmail([]byte("{not json"))
	require.Error(t, err)
}

func TestSendShareCreatedEmail_ConnectError(t *testing.T) {
	transport := &transportStub{connectErr: errors.New("dial tcp: refused")}
	service := NewSenderService(newNoopLogger(), transport)

	info := models.ShareCreatedInfo{Email: "ana@example.com", MemberName: "Ana"}
	body, err := json.Marshal(info)
	require.NoError(t, err)

	require.Error(t, service.SendShareCreatedEmail(body))
}
