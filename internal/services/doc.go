// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the data sources, owning the currently
// loaded dataset and answering every dashboard query against it.
//
// # Architecture
//
// Services follow these principles:
//
//  1. Interface-driven dependencies (Fetcher, Decoder, Broadcaster) for testability
//  2. Context propagation for cancellation and tracing
//  3. Immutable snapshots: every load builds a new Snapshot and swaps it in
//
// # Available Services
//
//   - DashboardService: loads datasets from the sample, a URL or an upload and
//     computes views, summaries, group averages and record pages
//   - HealthService: health, readiness, liveness and version endpoints
//
// # Error Handling
//
// Queries before the first load return ErrNoDataset. Failed loads keep the
// previous snapshot and update the status line with a user-facing message.
package services
