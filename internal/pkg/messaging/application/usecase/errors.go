package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use
// case. Callers should treat it as retryable; validation and access-control
// failures come through as domain sentinels instead.
var ErrPersistence = fmt.Errorf("messaging use case persistence error")
