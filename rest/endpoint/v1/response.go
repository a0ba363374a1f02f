package endpoint

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/letterbox/mailbox-data-api/log"
	m "github.com/letterbox/mailbox-data-api/rest/models"
	"github.com/letterbox/mailbox-data-api/service"
	"github.com/letterbox/mailbox-data-api/types"
)

const (
	kindNotFound        = "NotFound"
	kindUnknownCommand  = "UnknownCommand"
	kindSendUnsupported = "SendUnsupported"
	kindInternal        = "InternalError"
)

// RespondJSONObjectWithCode writes the object and status header to the response. Important to note that if this is being
// used for an error case then an empty return will need to immediately follow the call to this function
func RespondJSONObjectWithCode(w http.ResponseWriter, code int, obj interface{}) {
	setCommonHeaders(w)
	jsonBytes, err := json.Marshal(obj)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"unable to marshal response","kind":"InternalError"}`))
		return
	}

	w.WriteHeader(code)
	_, _ = w.Write(jsonBytes)
}

func RespondWithError(w http.ResponseWriter, code int, message, kind string) {
	RespondJSONObjectWithCode(w, code, m.ModelError{Error: message, Kind: kind})
}

// RespondWithServiceError maps an error returned by a service to its status code. Messages of
// errors outside the taxonomy are not returned to the client.
func RespondWithServiceError(w http.ResponseWriter, err error, logger log.Logger) {
	if errors.Is(err, service.ErrSendUnsupported) {
		RespondWithError(w, http.StatusBadRequest, err.Error(), kindSendUnsupported)
		return
	}

	var e *types.Error
	if !errors.As(err, &e) {
		logger.Error("unexpected service error", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "internal error", kindInternal)
		return
	}
	RespondWithError(w, StatusCode(e.Kind), e.Error(), string(e.Kind))
}

// StatusCode returns the http status of an error kind
func StatusCode(kind types.Kind) int {
	switch {
	case kind.ClientFault():
		return http.StatusBadRequest
	case kind == types.KindTableDoesNotExist:
		return http.StatusNotFound
	case kind == types.KindConstraintViolation:
		return http.StatusConflict
	case kind == types.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func setCommonHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
}
