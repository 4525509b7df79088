package chunk

import (
	"fmt"

	"github.com/hupe1980/lexgo/model"
)

// LookupError reports an id that no chunk range covers. Since ids reaching
// a table come from the dataset's own indexes, an uncovered id means the
// meta descriptor and the index disagree.
type LookupError struct {
	Domain model.Domain
	ID     int64
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s id %d outside every chunk range", e.Domain, e.ID)
}
