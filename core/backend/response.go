package backend

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/modelrest/core/logger"
	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/repository"
)

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// errInvalidBody is returned by readFields for bodies which are not a JSON object
var errInvalidBody = errors.New("request body must be a JSON object")

// maxBodySize limits the request bodies read by readFields
var maxBodySize int64 = 1 << 20

// parseUUID returns the lowercase uuid from the route variables
func parseUUID(r *http.Request) (string, bool) {
	id := mux.Vars(r)["uuid"]
	if !uuidPattern.MatchString(id) {
		return "", false
	}
	return strings.ToLower(id), true
}

// statusFromError maps repository and model errors to an http status
func statusFromError(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidValue), errors.Is(err, repository.ErrUnsupportedOperation), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	jsonData, err := json.MarshalWithOption(body, json.DisableHTMLEscape())
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorln("cannot marshal response")
		status = http.StatusInternalServerError
		jsonData = []byte(`{"error":"cannot marshal response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		w.Write(jsonData)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}

// writeFailure responds with the status mapped from err and its message
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, statusFromError(err), err.Error())
}

// readFields returns the fields of a request. For GET requests the fields are the
// query parameters, otherwise the body must be a JSON object of at most maxBodySize
// bytes. An empty body has no fields.
func readFields(w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if r.Method == http.MethodGet {
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		return fields, nil
	}
	if r.Body == nil {
		return fields, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, errInvalidBody
	}
	return fields, nil
}

// queryParameters flattens the query parameters to their first value
func queryParameters(r *http.Request) map[string]string {
	parameters := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			parameters[key] = values[0]
		}
	}
	return parameters
}
