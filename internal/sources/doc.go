// Package sources produces the raw CSV text the dashboard parses.
//
// Three sources are supported:
//
//   - URLFetcher downloads a remote CSV document over HTTP(S) with a timeout,
//     a user agent and a body size cap. Non-2xx responses surface as
//     *HTTPStatusError ("HTTP 404"), distinct from transport failures.
//   - FileReader turns an uploaded or on-disk file into text. Plain text files
//     pass through unchanged; .xlsx workbooks are flattened to CSV with excelize.
//   - Sample returns the built-in NDAP literacy dataset.
//
// Nothing in this package parses records; that is dataprocessing.Parse.
package sources
