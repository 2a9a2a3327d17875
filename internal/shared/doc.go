// Package shared holds helpers used by the tests of several packages.
//
// The testutil subpackage records slog output so tests can assert on what
// was logged, and writes the small company-year panel most end-to-end tests
// load. It must not import the domain packages, so that their own tests can
// use it.
package shared
