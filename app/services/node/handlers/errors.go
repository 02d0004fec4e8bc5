package handlers

import "errors"

// errChainInvalid is reported by the readiness check when the local chain
// fails validation.
var errChainInvalid = errors.New("local chain failed validation")
