package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/rsalgados/internal/middleware"
	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/service"
)

func TestParseFormItems(t *testing.T) {
	form := url.Values{
		"items[10].description": {"Empada"},
		"items[10].quantity":    {"1"},
		"items[10].unit_price":  {"4,50"},
		"items[2].description":  {"Coxinha"},
		"items[2].quantity":     {"3"},
		"items[2].unit_price":   {"2.00"},
		"items[5].description":  {""},
		"items[5].quantity":     {" "},
		"csrf":                  {"ignored"},
	}

	items, err := parseFormItems(form)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Coxinha", items[0].Description)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Empada", items[1].Description)
	assert.True(t, decimal.RequireFromString("4.5").Equal(items[1].UnitPrice))
}

func TestParseFormItemsErrors(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "bad quantity", form: url.Values{"items[0].quantity": {"two"}}},
		{name: "bad price", form: url.Values{"items[0].unit_price": {"abc"}}},
		{name: "negative price", form: url.Values{"items[0].quantity": {"1"}, "items[0].unit_price": {"-3"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFormItems(tt.form)
			assert.Error(t, err)
		})
	}
}

func TestCreateOrderForm(t *testing.T) {
	form := url.Values{
		"items[0].description": {"Pastel"},
		"items[0].quantity":    {"2"},
		"items[0].unit_price":  {"6"},
	}

	t.Run("redirects to orders", func(t *testing.T) {
		svc := &stubService{order: sampleOrder()}
		env := newTestEnv(t, svc)

		rec := env.postForm("/orders", form, true)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/orders", rec.Header().Get("Location"))
		assert.Equal(t, env.caller, svc.lastCaller)
		assert.Equal(t, uuid.Nil, svc.createFor)
		require.Len(t, svc.lastItems, 1)
		assert.Equal(t, 2, svc.lastItems[0].Quantity)
	})

	t.Run("without cookie", func(t *testing.T) {
		svc := &stubService{}
		env := newTestEnv(t, svc)

		rec := env.postForm("/orders", form, false)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
		assert.Nil(t, svc.lastItems)
	})

	t.Run("caller without client", func(t *testing.T) {
		env := newTestEnv(t, &stubService{orderErr: service.ErrNotAuthenticated})

		rec := env.postForm("/orders", form, true)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	})

	t.Run("wrong role", func(t *testing.T) {
		env := newTestEnv(t, &stubService{orderErr: service.ErrWrongRole})

		rec := env.postForm("/orders", form, true)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid rows", func(t *testing.T) {
		env := newTestEnv(t, &stubService{})

		rec := env.postForm("/orders", url.Values{"items[0].quantity": {"x"}}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReplaceOrderForm(t *testing.T) {
	orderID := uuid.New()
	newOwner := uuid.New()

	svc := &stubService{order: sampleOrder()}
	env := newTestEnv(t, svc)

	rec := env.postForm("/orders/"+orderID.String(), url.Values{
		"client_id":            {newOwner.String()},
		"items[0].description": {"Kibe"},
		"items[0].quantity":    {"4"},
		"items[0].unit_price":  {"1,25"},
	}, true)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
	assert.Equal(t, 1, svc.replaceHits)
	assert.Equal(t, orderID, svc.lastOrderID)
	require.NotNil(t, svc.lastClientID)
	assert.Equal(t, newOwner, *svc.lastClientID)

	rec = env.postForm("/orders/"+orderID.String(), url.Values{"client_id": {"nope"}}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, svc.replaceHits)
}

func TestRegisterForm(t *testing.T) {
	valid := url.Values{
		"email":    {"joao@example.com"},
		"password": {"segredo"},
		"name":     {"João"},
	}

	tests := []struct {
		name     string
		form     url.Values
		err      error
		location string
	}{
		{name: "registered", form: valid, location: "/auth/login?success"},
		{name: "duplicate", form: valid, err: service.ErrDuplicateEmail, location: "/auth/register?error=email"},
		{name: "invalid", form: url.Values{"email": {"x"}}, location: "/auth/register?error=invalid"},
		{name: "password too long", form: valid, err: service.ErrPasswordTooLong, location: "/auth/register?error=invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &stubService{registerClient: &model.Client{ID: uuid.New()}, registerErr: tt.err})

			rec := env.postForm("/auth/register", tt.form, false)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestLoginForm(t *testing.T) {
	form := url.Values{"email": {"a@example.com"}, "password": {"segredo"}}

	t.Run("client", func(t *testing.T) {
		env := newTestEnv(t, &stubService{authUser: &model.User{ID: uuid.New(), Role: model.RoleClient, Active: true}})

		rec := env.postForm("/auth/login", form, false)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/orders", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.AuthCookieName, cookies[0].Name)
	})

	t.Run("admin", func(t *testing.T) {
		env := newTestEnv(t, &stubService{authUser: &model.User{ID: uuid.New(), Role: model.RoleAdmin, Active: true}})

		rec := env.postForm("/auth/login", form, false)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/login?error", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("bad credentials", func(t *testing.T) {
		env := newTestEnv(t, &stubService{authErr: service.ErrInvalidCredentials})

		rec := env.postForm("/auth/login", form, false)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/login?error", rec.Header().Get("Location"))
	})
}

func TestLogoutForm(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := env.postForm("/auth/logout", url.Values{}, true)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?logout", rec.Header().Get("Location"))
}
