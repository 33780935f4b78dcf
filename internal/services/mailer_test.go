package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer_DisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewMailer("", "Academy", "no-reply@academy.example"))
	assert.Nil(t, NewMailer("key", "Academy", ""))
}

func TestMailer_NotifyCertificateIssued(t *testing.T) {
	var got struct {
		Personalizations []struct {
			To      []struct{ Email string } `json:"to"`
			Subject string                   `json:"subject"`
		} `json:"personalizations"`
		From    struct{ Email string } `json:"from"`
		Content []struct{ Type, Value string } `json:"content"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendgridEndpoint, r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	db := newTestDB(t)
	u := createUser(t, db, "amal", models.RoleClient, models.TierFree)
	require.NoError(t, db.Model(&u).Update("preferred_language", models.LangArabic).Error)
	createCourse(t, db, "go101", 1)

	m := NewMailer("sg-key", "Academy", "no-reply@academy.example")
	m.host = srv.URL
	m.NotifyCertificateIssued(db, models.Certificate{ClientID: "amal", CourseID: "go101", CertificateNumber: "CERT-1", URL: "https://x/c"})

	assert.Equal(t, "Bearer sg-key", auth)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "amal@example.com", got.Personalizations[0].To[0].Email)
	assert.Contains(t, got.Personalizations[0].Subject, "دورة")
	assert.Equal(t, "no-reply@academy.example", got.From.Email)
	require.Len(t, got.Content, 2)
	assert.Contains(t, got.Content[0].Value, "CERT-1")
}

func TestMailer_SendReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	m := NewMailer("bad", "Academy", "no-reply@academy.example")
	m.host = srv.URL
	err := m.Send(models.User{Name: "A", Email: "a@example.com"}, "hi", "text", "<p>text</p>")
	assert.Error(t, err)

	err = m.Send(models.User{Name: "A"}, "hi", "text", "<p>text</p>")
	assert.Error(t, err)
}
