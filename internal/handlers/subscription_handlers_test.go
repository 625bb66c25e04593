package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academy_app_echo/internal/models"
	"academy_app_echo/internal/repository"
)

type memSubscriptionRepo struct {
	repository.SubscriptionRepository
	subs   map[uint]*models.WebhookSubscription
	nextID uint
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: map[uint]*models.WebhookSubscription{}, nextID: 1}
}

func (r *memSubscriptionRepo) List(context.Context) ([]models.WebhookSubscription, error) {
	out := make([]models.WebhookSubscription, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memSubscriptionRepo) FindByID(_ context.Context, id uint) (*models.WebhookSubscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSubscriptionRepo) Create(_ context.Context, sub *models.WebhookSubscription) error {
	sub.ID = r.nextID
	r.nextID++
	r.subs[sub.ID] = sub
	return nil
}

func (r *memSubscriptionRepo) Update(_ context.Context, sub *models.WebhookSubscription) error {
	r.subs[sub.ID] = sub
	return nil
}

func (r *memSubscriptionRepo) Delete(_ context.Context, id uint) error {
	delete(r.subs, id)
	return nil
}

func newSubscriptionContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateSubscription(t *testing.T) {
	repo := newMemSubscriptionRepo()
	h := NewSubscriptionHandler(repo, nil)

	c, rec := newSubscriptionContext(t, http.MethodPost, "/admin/webhooks",
		`{"name":"billing","url":"https://example.com/hook","events":["payment.succeeded"],"secret_key":"whsec_1"}`)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.WebhookSubscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "billing", created.Name)
	assert.True(t, created.IsActive, "subscriptions default to active")
	assert.Equal(t, []string{"payment.succeeded"}, created.Events)

	stored, _ := repo.FindByID(context.Background(), created.ID)
	require.NotNil(t, stored)
}

func TestCreateSubscriptionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{"name":"x","events":["payment.succeeded"]}`},
		{"invalid url", `{"name":"x","url":"not a url","events":["payment.succeeded"]}`},
		{"empty events", `{"name":"x","url":"https://example.com","events":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSubscriptionHandler(newMemSubscriptionRepo(), nil)
			c, _ := newSubscriptionContext(t, http.MethodPost, "/admin/webhooks", tt.body)

			err := h.Create(c)
			require.Error(t, err)
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Code)
		})
	}
}

func TestUpdateSubscriptionPartial(t *testing.T) {
	repo := newMemSubscriptionRepo()
	require.NoError(t, repo.Create(context.Background(), &models.WebhookSubscription{
		Name: "billing", URL: "https://example.com/hook",
		Events: []string{"payment.succeeded"}, IsActive: true, SecretKey: "whsec_1",
	}))
	h := NewSubscriptionHandler(repo, nil)

	c, rec := newSubscriptionContext(t, http.MethodPut, "/admin/webhooks/1", `{"is_active":false}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "billing", stored.Name, "unset fields stay untouched")
	assert.Equal(t, "whsec_1", stored.SecretKey)
}

func TestGetSubscriptionNotFound(t *testing.T) {
	h := NewSubscriptionHandler(newMemSubscriptionRepo(), nil)
	c, _ := newSubscriptionContext(t, http.MethodGet, "/admin/webhooks/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	err := h.Get(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeleteSubscription(t *testing.T) {
	repo := newMemSubscriptionRepo()
	require.NoError(t, repo.Create(context.Background(), &models.WebhookSubscription{
		Name: "billing", URL: "https://example.com/hook", Events: []string{"payment.succeeded"},
	}))
	h := NewSubscriptionHandler(repo, nil)

	c, rec := newSubscriptionContext(t, http.MethodDelete, "/admin/webhooks/1", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored, _ := repo.FindByID(context.Background(), 1)
	assert.Nil(t, stored)
}
