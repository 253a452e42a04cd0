package memory

import "errors"

var ErrDuplicateID = errors.New("memory: duplicate id")
