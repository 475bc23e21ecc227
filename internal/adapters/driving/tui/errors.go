package tui

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("tui: query service is required")

// ErrInvalidPorts is returned when no ports are provided at all.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
