// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"encoding/json"
	"net"
	"net/http"
)

// ErrorResponse is the body written for failed API requests.
type ErrorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes v as the JSON body of a response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_, err = w.Write(append(body, '\n'))

	return err
}

// WriteError writes an ErrorResponse. An empty message uses the status text.
func WriteError(w http.ResponseWriter, status int, message, requestID string) error {
	if message == "" {
		message = http.StatusText(status)
	}

	return WriteJSON(w, status, ErrorResponse{
		Status:    status,
		Error:     message,
		RequestID: requestID,
	})
}

// IsConnectionSecure returns whether a connection is secure.
//
// X-Forwarded-Proto is only trusted from private and loopback peers, so this
// returns false when the last reverse proxy in the chain has a public address.
func IsConnectionSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}

	parsedIP := net.ParseIP(host)
	if parsedIP == nil {
		return false
	}

	return (parsedIP.IsPrivate() || parsedIP.IsLoopback()) && r.Header.Get("X-Forwarded-Proto") == "https"
}
