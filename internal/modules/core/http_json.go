package core

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func RequestBody[TRequest any](r *http.Request) (TRequest, error) {
	var request TRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	return request, err
}

type ResponseOption func(http.ResponseWriter, *http.Request)

func WithHeader(header, value string) ResponseOption {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add(header, value)
	}
}

func WriteOK(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, 200, body)
}

func WriteCreated(w http.ResponseWriter, r *http.Request, location string) {
	WriteResponse(w, r, 201, nil, WithHeader("Location", location))
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, 400, body)
}

func WriteNotFound(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, 404, body)
}

func WriteInternalServerError(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, 500, body)
}

func WriteCommandError(w http.ResponseWriter, r *http.Request, err error) {
	WriteResponse(w, r, ErrorStatusCode(err), err)
}

func WriteResponse(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	body interface{},
	opts ...ResponseOption,
) {
	for _, opt := range opts {
		opt(w, r)
	}
	w.WriteHeader(statusCode)
	writeBodyIfPresent(r.Context(), w, body)
}

func writeBodyIfPresent(ctx context.Context, w http.ResponseWriter, body interface{}) {
	if body == nil {
		return
	}

	// An error marshals into an empty object, so it gets special treatment.
	if err, ok := body.(error); ok {
		responseBytes, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
		if marshalErr != nil {
			LogError(ctx, "failed to serialize response error", zap.Error(marshalErr))
			return
		}

		if _, err := w.Write(responseBytes); err != nil {
			LogError(ctx, "failed to write response", zap.Error(err))
		}
		return
	}

	responseBytes, err := json.Marshal(body)
	if err != nil {
		if _, err := w.Write([]byte(err.Error())); err != nil {
			LogError(ctx, "failed to write response", zap.Error(err))
		}
		return
	}

	if _, err := w.Write(responseBytes); err != nil {
		LogError(ctx, "failed to write response", zap.Error(err))
	}
}
