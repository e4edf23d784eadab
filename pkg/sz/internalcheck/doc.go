// Package internalcheck holds static policy tests over the sz packages.
//
// The tests load the sz package with golang.org/x/tools/go/packages and walk
// its syntax to enforce rules that are easy to break in review:
//
//   - the native settings document, which carries database credentials, is
//     never handed to a logger;
//   - the native error state is only read and cleared by the error
//     translator, which runs on the thread that made the failing call.
//
// # Internal Use Only
//
// This package has no API. Applications should import pkg/sz instead.
package internalcheck
