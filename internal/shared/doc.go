// Package shared holds helpers used across the dashboard codebase that do not belong to a
// single domain or layer.
//
// # Structure
//
//   - testutil: a log-capturing slog handler, sample CSV fixtures and assertions used by the
//     package tests
//
// # Usage Guidelines
//
// This package should only contain test utilities used by multiple packages, generic
// helpers with no domain logic, and shared constants. Business logic belongs in the
// dataprocessing, sources, render and services packages.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := services.NewDashboardService(deps, logger)
//	    // ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset loaded")
//	}
package shared
