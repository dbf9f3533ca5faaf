package apperror

import "errors"

var (
	ErrGameNotActive  = errors.New("game is not active")
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrNodeNotFound   = errors.New("node not found")
	ErrWaitTimeout    = errors.New("wait timed out")
	ErrWaitCanceled   = errors.New("wait canceled")
	ErrUnknownCommand = errors.New("unknown command")
)
