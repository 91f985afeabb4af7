package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-driveway/internal/apiclient"
	"go-driveway/internal/datetime"
	"go-driveway/internal/model"
	"go-driveway/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.Succeeded(data))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	if apiErr, ok := apierror.From(err); ok {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrTokenMissing) {
		status = http.StatusBadGateway
		body.Code = "BAD_GATEWAY"
		body.Message = "Backend response carried no token"
	} else if errors.Is(err, model.ErrBackendUnavailable) {
		status = http.StatusBadGateway
		body.Code = "BACKEND_UNAVAILABLE"
		body.Message = "Backend unavailable"
		body.Details = err.Error()
	} else if errors.Is(err, datetime.ErrMalformed) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Malformed date or time"
		body.Details = err.Error()
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// writeProxied relays a backend response, error payloads included, as is.
func writeProxied(w http.ResponseWriter, resp *apiclient.Response) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// backendError classifies a rejected backend call.
func backendError(err error) error {
	var callErr *apiclient.Error
	if !errors.As(err, &callErr) {
		return err
	}

	if callErr.Response == nil {
		return errors.Join(model.ErrBackendUnavailable, err)
	}

	if callErr.Response.Status == http.StatusUnauthorized {
		return model.ErrUnauthorized
	}

	return apierror.Backend("BACKEND_ERROR", http.StatusText(callErr.Response.Status), callErr.Response.Status)
}

// backendProblem turns a resolved backend failure into an API error keeping
// the backend's status for client errors.
func backendProblem(resp *apiclient.Response, code string) error {
	problem, failed := resp.Problem()
	if !failed {
		return nil
	}

	return apierror.Backend(code, problem, resp.Status)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apierror.BadRequest("invalid JSON body", "")
	}
	return nil
}
