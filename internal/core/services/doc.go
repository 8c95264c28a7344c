// Package services implements the driving port interfaces.
// Services contain the core business logic: query normalisation, the
// source searchers, canonical ordering with deferred resort, throttled
// publication, term bookkeeping and the session state machine.
//
// Services are pure Go with no CGO dependencies.
package services
