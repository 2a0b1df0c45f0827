// Package shared holds helpers used across MediaPulse packages that do not
// belong to a single domain or layer.
//
// The testutil subpackage provides a capturing slog handler and media dataset
// fixtures for tests:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    csv := testutil.SampleMediaCSV()
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset loaded")
//	}
package shared
