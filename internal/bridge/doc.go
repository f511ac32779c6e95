// Package bridge implements the media_store method channel.
//
// A MethodCall names a method and carries an argument map. The Dispatcher
// looks the method up in its handler table and produces exactly one
// Outcome: Success, Error with a structured *Error, or NotImplemented for
// methods it has no handler for. Only scanFile is defined; it validates the
// path argument and hands it to a ScanAction.
//
// What a failing ScanAction turns into is governed by the FailurePolicy:
// PolicyReport answers with a SCAN_FAILED error, PolicyPropagate returns
// the failure as a Go error and leaves reporting to the transport.
package bridge
