package types

import "errors"

// errShortWitness is returned by ParseWitnessArgs when the bytes are too
// short to hold the fields they claim to.
var errShortWitness = errors.New("types: truncated witness args")
