package simplex

import "errors"

// ErrBigM is returned for a non-positive artificial cost.
var ErrBigM = errors.New("simplex: big-M cost must be positive")
