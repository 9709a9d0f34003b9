// Package domain defines the canonical alert model and the rules for
// reducing raw feed documents to it.
//
// # Feed Conventions
//
// The public warning feed at oref.org.il serves two endpoints with two
// different document shapes:
//
//	Live:    {"data": ["locality", ...], "cat": "1", "desc": "..."}
//	         One JSON object, present only while an alert is active.
//	         "cat" is a numeric category code carried as a string and
//	         "desc" holds the safety instructions for the population.
//	History: [{"alertDate": "...", "data": "locality", "category": "1"}, ...]
//	         One entry per affected locality. Entries older than two
//	         minutes describe alerts that have already ended.
//
// Both endpoints use numeric category codes, but the numbering differs
// between them: code 2 means "general" on the live endpoint and "hostile
// aircraft intrusion" on the history endpoint. [NormalizeAlert] therefore
// keeps two separate mapping tables. Codes outside the tables map to
// [TypeUnknown] rather than failing, since the upstream operator adds
// codes without notice.
//
// The feed periodically carries self-test broadcasts whose locality names
// contain the marker "בדיקה" ("test"). Those localities are synthetic and
// are dropped during normalization. Alert types containing "drill" or
// "test" are likewise never relayed; that policy lives in the dispatch
// engine, not here.
//
// Normalization is total: every decoded payload reduces to an [Alert],
// and a payload with nothing relayable reduces to an Alert with Type set
// to [TypeNone].
package domain
