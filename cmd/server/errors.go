package main

import "fmt"

// Error codes surfaced to intent handlers.
const (
	CodeUnknownSceneResource = "UNKNOWN_SCENE_RESOURCE"
	CodeDoorLocked           = "DOOR_LOCKED"
	CodeNotADoor             = "NOT_A_DOOR"
	CodeInvalidIntent        = "INVALID_INTENT"
)

// PerceptionError represents a perception logic error
type PerceptionError struct {
	Code    string
	Message string
}

func (e *PerceptionError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func perceptionErrorf(code, format string, v ...any) *PerceptionError {
	return &PerceptionError{Code: code, Message: fmt.Sprintf(format, v...)}
}
