// Package errors provides structured error handling for asset resolution.
//
// It extends Go's standard error handling with error codes and retry
// classification while staying fully compatible with the standard library
// errors package (errors.Is, errors.As, errors.Unwrap).
//
// Creating errors:
//
//	err := errors.New(errors.CodeNotFound, "asset not found")
//	err := errors.Newf(errors.CodeInvalidConfig, "unknown scope %q", scope)
//
// Wrapping errors:
//
//	if err := backend.Sync(ctx); err != nil {
//	    return errors.Wrap(err, errors.CodeNetwork, "failed to sync repository")
//	}
//
// Inspecting errors:
//
//	if errors.GetCode(err) == errors.CodeNotFound {
//	    // expected miss, not a failure
//	}
//	if errors.IsRetryable(err) {
//	    // transient, safe to retry
//	}
package errors
