// Package http implements the HTTP handlers of the dtindex API.
//
// Handlers are thin: they bind query parameters into the v1 request
// contracts, validate them, call a service and render the answer as JSON.
// Every failure goes through the shared ErrorHandler so clients always get
// RFC 7807 problem details.
//
//	/api/dataset   overview, detected columns, reload
//	/api/lookup    single-stock report
//	/api/explorer  multi-filter views and export
//	/ws            dataset events
package http
