// Package httputil writes JSON bodies and error envelopes for the HTTP API.
//
// Handlers return client-facing failures as *Problem values and hand every
// error to WriteError, which is the only place a status code is derived
// from an error.
package httputil
