package operator

import (
	"fmt"

	"github.com/flowmesh/reactor"
)

// guard invokes fn and converts any panic raised by user-supplied code into
// a *reactor.SignalError of kind UserError, so it never unwinds past the
// operator into a dispatcher worker.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = reactor.NewSignalError(reactor.KindUserError, e)
			} else {
				err = reactor.NewSignalError(reactor.KindUserError, fmt.Errorf("%v", r))
			}
		}
	}()
	fn()
	return nil
}
