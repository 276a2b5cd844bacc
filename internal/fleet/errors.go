package fleet

import "errors"

var (
	ErrPrinterNotFound    = errors.New("unknown printer identity")
	ErrDisplayNameInUse   = errors.New("display name already in use")
	ErrNotManual          = errors.New("only manually added printers can be removed")
	ErrInvalidPrinter     = errors.New("invalid printer configuration")
	ErrInvalidLabelSize   = errors.New("invalid label size")
	ErrInvalidDisplayName = errors.New("invalid display name")
)
