package endpoint

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/letterbox/mailbox-data-api/auth"
	"github.com/letterbox/mailbox-data-api/internal/testutil"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/service"
	"github.com/letterbox/mailbox-data-api/types"
)

const prefix = "/api/crud"

func newLetterService(t *testing.T) *service.ServiceMock {
	s, err := schema.NewMailboxSchema()
	require.NoError(t, err)
	entity, err := s.Entity(schema.TableLetter)
	require.NoError(t, err)
	return service.NewServiceMock(entity)
}

func execute(t *testing.T, svc service.Service, method, target, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	for _, route := range Routes(prefix, []service.Service{svc}, testutil.TestLogger()) {
		router.Handler(route.Method, route.Pattern, route.Handler)
	}
	handler := auth.Middleware(auth.NewHeaderResolver(""), true, testutil.TestLogger())(router)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	r.Header.Set(auth.DefaultHeader, "3")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response), w.Body.String())
	return response
}

func id(value int64) *int64 {
	return &value
}

func TestGetEntities(t *testing.T) {
	svc := newLetterService(t)
	svc.On("RetrieveAll", service.Selection{
		Query: types.Query{"t": []string{"hello"}, "limit": []string{"2"}},
		Actor: 3,
	}).Return(&types.QueryResult{Data: []map[string]interface{}{{"id": 1, "subject": "hello"}}}, nil)

	w := execute(t, svc, http.MethodGet, "/api/crud/letter?t=hello&limit=2", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=UTF-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":[{"id":1,"subject":"hello"}]}`, w.Body.String())
}

func TestGetEntity(t *testing.T) {
	svc := newLetterService(t)
	svc.On("RetrieveFirst", service.Selection{EntityID: id(9), Query: types.Query{}, Actor: 3}).
		Return(types.Record{"id": int64(9)}, true, nil)
	svc.On("RetrieveFirst", service.Selection{EntityID: id(10), Query: types.Query{}, Actor: 3}).
		Return(nil, false, nil)

	w := execute(t, svc, http.MethodGet, "/api/crud/letter/9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":9}`, w.Body.String())

	w = execute(t, svc, http.MethodGet, "/api/crud/letter/10", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]interface{}{"error": "letter 10 not found", "kind": "NotFound"}, decode(t, w))

	w = execute(t, svc, http.MethodGet, "/api/crud/letter/latest", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValueCoercionError", decode(t, w)["kind"])
}

func TestPostCommands(t *testing.T) {
	svc := newLetterService(t)
	payload := map[string]interface{}{"payload": map[string]interface{}{"sender": "a@b.c", "size": json.Number("12")}}
	svc.On("Create", payload, int64(3)).Return(&types.InsertResult{InsertedPK: 5}, nil)
	svc.On("Update", mock.Anything, int64(3), (*int64)(nil)).Return(&types.UpdateResult{UpdatedRows: 2}, nil)
	svc.On("Delete", map[string]interface{}(nil), int64(3), (*int64)(nil)).
		Return(nil, types.NewNoSelectionCriteriaError("delete"))

	w := execute(t, svc, http.MethodPost, "/api/crud/letter/create", `{"payload":{"sender":"a@b.c","size":12}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"inserted_pk":5}`, w.Body.String())

	w = execute(t, svc, http.MethodPost, "/api/crud/letter/update", `{"payload":{"is_read":true},"filter_set":{"user":3}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated_rows":2}`, w.Body.String())

	w = execute(t, svc, http.MethodPost, "/api/crud/letter/delete", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]interface{}{
		"error": "delete requires an identifier or a filter set",
		"kind":  "NoSelectionCriteria",
	}, decode(t, w))

	w = execute(t, svc, http.MethodPost, "/api/crud/letter/send", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NoSelectionCriteria", decode(t, w)["kind"])

	w = execute(t, svc, http.MethodPost, "/api/crud/letter/archive", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]interface{}{"error": "unknown command 'archive'", "kind": "UnknownCommand"}, decode(t, w))

	svc.AssertExpectations(t)
}

func TestPostEntityCommands(t *testing.T) {
	svc := newLetterService(t)
	svc.On("Update", mock.Anything, int64(3), id(4)).Return(&types.UpdateResult{UpdatedRows: 1}, nil)
	svc.On("Delete", map[string]interface{}(nil), int64(3), id(4)).Return(&types.DeleteResult{DeletedRows: 1}, nil)
	svc.On("Send", int64(3), int64(4)).Return(&types.SendResult{Sent: true}, nil)

	w := execute(t, svc, http.MethodPost, "/api/crud/letter/4/update", `{"payload":{"is_read":true}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated_rows":1}`, w.Body.String())

	w = execute(t, svc, http.MethodPost, "/api/crud/letter/4/delete", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted_rows":1}`, w.Body.String())

	w = execute(t, svc, http.MethodPost, "/api/crud/letter/4/send", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sent":true}`, w.Body.String())

	w = execute(t, svc, http.MethodPost, "/api/crud/letter/4/create", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UnknownCommand", decode(t, w)["kind"])

	svc.AssertExpectations(t)
}

func TestMalformedJSONBody(t *testing.T) {
	svc := newLetterService(t)

	for _, body := range []string{`{"payload":`, `[1,2]`, `"payload"`} {
		w := execute(t, svc, http.MethodPost, "/api/crud/letter/create", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, map[string]interface{}{
			"error": "malformed body: body must be a JSON object",
			"kind":  "MalformedBody",
		}, decode(t, w))
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUnknownEntity(t *testing.T) {
	w := execute(t, newLetterService(t), http.MethodGet, "/api/crud/attachment", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]interface{}{
		"error": "table 'attachment' does not exist",
		"kind":  "TableDoesNotExist",
	}, decode(t, w))
}

func TestServiceErrorStatus(t *testing.T) {
	items := []struct {
		err    error
		status int
		body   map[string]interface{}
	}{
		{types.NewFieldDoesNotExistError("letter", "label"), http.StatusBadRequest,
			map[string]interface{}{"error": "field 'label' does not exist in table 'letter'", "kind": "FieldDoesNotExist"}},
		{types.NewConstraintViolationError("Key (username)=(alice) already exists.", nil), http.StatusConflict,
			map[string]interface{}{"error": "Key (username)=(alice) already exists.", "kind": "ConstraintViolation"}},
		{types.NewStorageUnavailableError(errors.New("dial tcp: connection refused")), http.StatusServiceUnavailable,
			map[string]interface{}{"error": "storage unavailable", "kind": "StorageUnavailable"}},
		{service.ErrSendUnsupported, http.StatusBadRequest,
			map[string]interface{}{"error": "send is not supported for this entity", "kind": "SendUnsupported"}},
		{errors.New("smtp: 550 mailbox unavailable"), http.StatusInternalServerError,
			map[string]interface{}{"error": "internal error", "kind": "InternalError"}},
	}

	for _, item := range items {
		svc := newLetterService(t)
		svc.On("Send", int64(3), int64(1)).Return(nil, item.err)

		w := execute(t, svc, http.MethodPost, "/api/crud/letter/1/send", "")
		assert.Equal(t, item.status, w.Code, item.err.Error())
		assert.Equal(t, item.body, decode(t, w))
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusCode(types.KindOperatorDoesNotExist))
	assert.Equal(t, http.StatusBadRequest, StatusCode(types.KindFilterOperatorNotAllowed))
	assert.Equal(t, http.StatusBadRequest, StatusCode(types.KindValueCoercion))
	assert.Equal(t, http.StatusNotFound, StatusCode(types.KindTableDoesNotExist))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(types.Kind("")))
}
