package crossfilter

import (
	"errors"
	"fmt"
)

// ErrTooManyDimensions is returned when a dataset already holds MaxDimensions
var ErrTooManyDimensions = errors.New("crossfilter: too many dimensions")

// TypeMismatchError reports a selector whose keys do not match the key
// kind of the dimension it is applied to
type TypeMismatchError struct {
	Dimension string
	Want      Kind
	Got       Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("crossfilter: dimension %q holds %s keys, selector uses %s", e.Dimension, e.Want, e.Got)
}
