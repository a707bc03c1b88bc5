// Package server exposes the compile daemon's HTTP surface (§D.4): a thin
// adapter over internal/compiler that marshals requests in and results out,
// grounded on the teacher's server/api and server/result packages.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// errorResponse is the JSON body of any non-2xx response.
type errorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// result is a deferred HTTP response: handlers build one and return it rather
// than writing to the ResponseWriter directly, so the calling endpoint
// wrapper can log, attach a request ID, and apply the unauthorized-response
// delay uniformly (teacher's result.Result / api.httpEndpoint split).
type result struct {
	status      int
	isErr       bool
	internalMsg string
	resp        interface{}
}

func ok(respObj interface{}, internalMsg string) result {
	return result{status: http.StatusOK, resp: respObj, internalMsg: internalMsg}
}

func created(respObj interface{}, internalMsg string) result {
	return result{status: http.StatusCreated, resp: respObj, internalMsg: internalMsg}
}

func badRequest(userMsg, internalMsg string) result {
	return result{
		status:      http.StatusBadRequest,
		isErr:       true,
		internalMsg: internalMsg,
		resp:        errorResponse{Error: userMsg, Status: http.StatusBadRequest},
	}
}

func unauthorized(userMsg, internalMsg string) result {
	return result{
		status:      http.StatusUnauthorized,
		isErr:       true,
		internalMsg: internalMsg,
		resp:        errorResponse{Error: userMsg, Status: http.StatusUnauthorized},
	}
}

func internalServerError(internalMsg string) result {
	return result{
		status:      http.StatusInternalServerError,
		isErr:       true,
		internalMsg: internalMsg,
		resp:        errorResponse{Error: "An internal server error occurred", Status: http.StatusInternalServerError},
	}
}

func (r result) withRequestID(id string) result {
	if er, ok := r.resp.(errorResponse); ok {
		er.RequestID = id
		r.resp = er
	}
	return r
}

func (r result) writeTo(w http.ResponseWriter) {
	body, err := json.Marshal(r.resp)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":"could not marshal response","status":500}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.status)
	w.Write(body)
}
