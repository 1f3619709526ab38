package model

import "fmt"

// ErrorKind discriminates the AgentError union. The Responder dispatches
// exhaustively over these kinds; everything else falls through to the
// generic branch.
type ErrorKind string

const (
	ErrGeneric            ErrorKind = "generic"
	ErrMissingInformation ErrorKind = "missing_information"
	ErrMissingTool        ErrorKind = "missing_tool"
)

// AgentError is the recoverable failure carried on AgentState. Message may
// contain internal detail for logging; only the Responder translates kinds
// into user-visible text.
type AgentError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewGenericError creates a generic execution failure.
func NewGenericError(message string) *AgentError {
	return &AgentError{Kind: ErrGeneric, Message: message}
}

// NewMissingInformationError signals the request lacks necessary detail.
func NewMissingInformationError(message string) *AgentError {
	return &AgentError{Kind: ErrMissingInformation, Message: message}
}

// NewMissingToolError signals no registered tool can satisfy the request.
func NewMissingToolError(message string) *AgentError {
	return &AgentError{Kind: ErrMissingTool, Message: message}
}
