// Package campaign implements campaign lifecycle management: creation,
// updates, status transitions, and dispatch bookkeeping.
package campaign
