package handler

import (
	"encoding/json"
	"net/http"
)

// JSONBody is the envelope of every JSON response.
type JSONBody struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONBody
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON responds with v as data and status 200, or status if given.
func JSON(v any, status ...int) Response {
	r := jsonResponse{status: http.StatusOK, body: JSONBody{Data: v}}
	if len(status) > 0 {
		r.status = status[0]
	}
	return r
}

// JSONError responds with the classified error.
func JSONError(err error) Response {
	info := Classify(err)
	return jsonResponse{status: info.StatusCode, body: JSONBody{Error: &ErrorDetail{
		Code:    info.Code,
		Message: info.Message,
		Details: info.Details,
	}}}
}

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty responds with 204 No Content.
func Empty() Response { return emptyResponse{status: http.StatusNoContent} }

// EmptyWithStatus responds with status and no body.
func EmptyWithStatus(status int) Response { return emptyResponse{status: status} }

type errorResponse struct {
	err error
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error { return e.err }

// Error hands err to the wrapper's ErrorHandler, which writes the response.
func Error(err error) Response { return errorResponse{err: err} }
