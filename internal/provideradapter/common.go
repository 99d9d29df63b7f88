package provideradapter

import (
	"errors"
	"io"
)

// errNoChoices is returned when a backend responds successfully but with an
// empty choices/candidates list, which every SDK in this package treats as
// an unexpected server condition rather than a client error.
var errNoChoices = errors.New("provider returned no completion choices")

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
