// Package shared holds code used across fishstat packages that belongs to
// no single layer.
//
// The testutil subpackage provides the capture-table fixtures and the
// buffered slog handler the package tests assert log output with:
//
//	logger, handler := testutil.NewTestLogger(t)
//	path := testutil.WriteFile(t, "capture.csv", testutil.CaptureCSV)
//	// ...
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "records aggregated")
package shared
