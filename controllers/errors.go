package controllers

import "errors"

var (
	ErrNoPermission  = errors.New("you do not have permission to perform this action")
	ErrNegativePrice = errors.New("price must not be negative")
	ErrTableBusy     = errors.New("table is occupied and cannot be deleted")
)
