// Package dispatch sends a personalized message to a set of customers
// over WhatsApp or email, one customer at a time, recording every attempt
// in the delivery log. A failure for one customer never aborts the batch.
package dispatch
