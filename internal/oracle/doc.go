// Package oracle turns palm-line features into generated text.
//
// The Oracle composes prompts for the initial reading, follow-up questions
// and translations, and hands them to a Generator. GeminiClient is the
// production Generator; tests substitute their own.
//
// # Errors
//
// Every failure to obtain text from the generator wraps ErrGeneration, so
// callers can report it per request without tearing down anything else:
//
//	text, err := o.Reading(ctx, features)
//	if errors.Is(err, oracle.ErrGeneration) {
//	    // show the error in place of the reading
//	}
package oracle
