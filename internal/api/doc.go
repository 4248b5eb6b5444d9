// Package api wires the HTTP surface: routing, request decoding, error
// mapping, and the JSON envelope. Business rules live in the service
// packages; handlers here stay thin.
package api
