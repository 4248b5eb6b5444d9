// Package agent provides the marketing chat assistant backed by AWS
// Bedrock (Claude). The assistant answers free-text questions grounded in
// the caller's current analytics snapshot.
package agent
