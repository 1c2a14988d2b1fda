// Package http exposes a workspace over a JSON API. Every endpoint maps
// onto one fsclient operation; mutating endpoints accept a "confirm" flag
// that defaults to true. Failures carry the error kind and map onto HTTP
// status codes through StatusFor.
package http
