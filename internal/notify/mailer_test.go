package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joestump/curated-links/internal/notify"
)

func newTestSESMailer(t *testing.T, h http.HandlerFunc) *notify.SESMailer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	m, err := notify.NewSESMailer(context.Background(), notify.SESConfig{
		Region:          "us-east-1",
		From:            "links@example.com",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        srv.URL,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return m
}

func TestNewSESMailer_RequiresFrom(t *testing.T) {
	_, err := notify.NewSESMailer(context.Background(), notify.SESConfig{Region: "us-east-1"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestSESMailer_SendSingleRecipient(t *testing.T) {
	var path string
	var body struct {
		FromEmailAddress string
		Destination      struct{ ToAddresses []string }
		Content          struct {
			Simple struct {
				Subject struct{ Data string }
			}
		}
	}
	m := newTestSESMailer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"MessageId":"0100-abc"}`)
	})

	err := m.Send(context.Background(), &notify.Message{
		To: "u1@example.com", Subject: "New link published | Curated Links", HTML: "<p>x</p>", Text: "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "/v2/email/outbound-emails", path)
	assert.Equal(t, "links@example.com", body.FromEmailAddress)
	assert.Equal(t, []string{"u1@example.com"}, body.Destination.ToAddresses)
	assert.Equal(t, "New link published | Curated Links", body.Content.Simple.Subject.Data)
}

func TestSESMailer_SendRejected(t *testing.T) {
	m := newTestSESMailer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Amzn-Errortype", "MessageRejected")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Email address is not verified."}`)
	})

	err := m.Send(context.Background(), &notify.Message{To: "u1@example.com", Subject: "s", Text: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MessageRejected")
}

func TestLogMailer(t *testing.T) {
	m := notify.NewLogMailer(zaptest.NewLogger(t))
	assert.NoError(t, m.Send(context.Background(), &notify.Message{To: "u1@example.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, &notify.Message{To: "u1@example.com"}), context.Canceled)
}
