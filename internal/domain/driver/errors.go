package driver

import "errors"

var (
	ErrDriverNotFound     = errors.New("driver not found")
	ErrInvalidDriverPhone = errors.New("invalid driver phone")
	ErrInvalidVehicle     = errors.New("vehicle make, model, color and plate number are required")
)
