package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"reflect"
	"strconv"

	. "github.com/onsi/gomega"

	"github.com/letterbox/mailbox-data-api/auth"
)

const (
	Prefix = "/api/crud"

	EntityCommandFormat = "/%s/%s"
)

// Client executes requests against a handler on behalf of one user
type Client struct {
	Handler http.Handler
	Actor   int64
}

func (c Client) ExecuteGet(routeFormat string, responsePtr interface{}, values ...interface{}) int {
	return c.execute(http.MethodGet, routeFormat, nil, responsePtr, values...)
}

func (c Client) ExecutePost(
	routeFormat string,
	requestBody interface{},
	responsePtr interface{},
	values ...interface{},
) int {
	return c.execute(http.MethodPost, routeFormat, requestBody, responsePtr, values...)
}

func (c Client) execute(
	method string,
	routeFormat string,
	requestBody interface{},
	responsePtr interface{},
	values ...interface{},
) int {
	rv := reflect.ValueOf(responsePtr)
	if responsePtr != nil && rv.Kind() != reflect.Ptr {
		panic("Provided value should be a pointer or nil")
	}

	targetPath := path.Join(Prefix, fmt.Sprintf(routeFormat, values...))
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		Expect(err).ToNot(HaveOccurred())
		body = bytes.NewBuffer(encoded)
	}

	r := httptest.NewRequest(method, targetPath, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if c.Actor != 0 {
		r.Header.Set(auth.DefaultHeader, strconv.FormatInt(c.Actor, 10))
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, r)

	if responsePtr != nil {
		bodyString := w.Body.String()
		err := json.NewDecoder(bytes.NewBufferString(bodyString)).Decode(responsePtr)
		Expect(err).ToNot(HaveOccurred(),
			fmt.Sprintf("Error decoding response with code %d and body: %s", w.Code, bodyString))
	}

	return w.Code
}
