package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/binder"
	"github.com/dmitrymomot/tenantkit/pkg/handler"
)

type echoRequest struct {
	Name string `json:"name"`
}

var errDomainMissing = errors.New("thing is missing")

func mapDomain(err error) (handler.HTTPError, bool) {
	if errors.Is(err, errDomainMissing) {
		return handler.NewHTTPError(http.StatusNotFound, "missing", "thing is missing"), true
	}
	return handler.HTTPError{}, false
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONBody {
	t.Helper()
	var body handler.JSONBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWrap(t *testing.T) {
	t.Parallel()

	echo := handler.HandlerFunc[echoRequest](func(ctx handler.Context, req echoRequest) handler.Response {
		switch req.Name {
		case "missing":
			return handler.Error(errDomainMissing)
		case "invalid":
			v := handler.NewValidationError()
			v.Add("name", "is reserved")
			return handler.Error(v)
		case "boom":
			return handler.Error(errors.New("database exploded"))
		case "nil":
			return nil
		case "":
			return handler.Empty()
		}
		return handler.JSON(map[string]string{"hello": req.Name}, http.StatusCreated)
	})
	h := handler.Wrap(echo,
		handler.WithBinders[echoRequest](binder.BindJSON()),
		handler.WithErrorHandler[echoRequest](handler.NewErrorHandler(nil, mapDomain)),
	)

	serve := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		rec := serve(`{"name":"acme"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, map[string]any{"hello": "acme"}, decodeBody(t, rec).Data)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.StatusNoContent, serve(`{}`).Code)
	})

	t.Run("bind failure", func(t *testing.T) {
		t.Parallel()
		rec := serve(`{"nope":1}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decodeBody(t, rec).Error.Code)
	})

	t.Run("mapped domain error", func(t *testing.T) {
		t.Parallel()
		rec := serve(`{"name":"missing"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "missing", body.Error.Code)
		assert.Equal(t, "thing is missing", body.Error.Message)
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		rec := serve(`{"name":"invalid"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, []string{"is reserved"}, body.Error.Details["name"])
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		t.Parallel()
		rec := serve(`{"name":"boom"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "exploded")
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.StatusInternalServerError, serve(`{"name":"nil"}`).Code)
	})
}

func TestDecorators(t *testing.T) {
	t.Parallel()

	var order []string
	trace := func(name string) handler.Decorator[struct{}] {
		return func(next handler.HandlerFunc[struct{}]) handler.HandlerFunc[struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	h := handler.Wrap(handler.HandlerFunc[struct{}](func(handler.Context, struct{}) handler.Response {
		order = append(order, "handler")
		return handler.EmptyWithStatus(http.StatusAccepted)
	}), handler.WithDecorators(trace("outer"), trace("inner")))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	info := handler.Classify(handler.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, info.StatusCode)
	assert.Equal(t, "forbidden", info.Code)
	assert.Equal(t, "Forbidden", info.Message)

	info = handler.Classify(errors.Join(errors.New("wrapped"), handler.ErrServiceUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, info.StatusCode)
}
