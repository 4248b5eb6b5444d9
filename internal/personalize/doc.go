// Package personalize renders message templates against customer records.
//
// Two renderers live here. Render is the dispatcher's contract: exact
// {{placeholder}} substitution from a fixed variable set, deterministic
// output, unknown placeholders passed through literally. Preview is the
// dashboard's rich renderer built on Liquid, with filters for currency,
// truncation, and phone/email masking.
package personalize
