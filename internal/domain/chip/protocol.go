package chip

import "fmt"

// Command names a store operation.
type Command string

// Supported commands.
const (
	CommandGet    Command = "GET"
	CommandPut    Command = "PUT"
	CommandPost   Command = "POST"
	CommandDelete Command = "DELETE"
)

// Commands returns the command set in wire order.
func Commands() []Command {
	return []Command{CommandGet, CommandPut, CommandPost, CommandDelete}
}

// Request is one client request: a command and its payload.
// The payload is a key for GET and DELETE and a mapping for PUT and POST.
type Request struct {
	Command Command
	Payload any
}

// Response is the reply to a Request.
type Response struct {
	// Success is true when the command was executed.
	Success bool
	// Result is the command result, or an empty mapping on failure.
	Result any
	// Message describes the outcome.
	Message string
}

// Succeeded builds the response for an executed command.
func Succeeded(cmd Command, result any) Response {
	return Response{
		Success: true,
		Result:  result,
		Message: fmt.Sprintf("Successfully executed : %s", cmd),
	}
}

// Failed builds the response for a rejected request.
func Failed(err error) Response {
	return Response{
		Success: false,
		Result:  map[string]any{},
		Message: err.Error(),
	}
}
