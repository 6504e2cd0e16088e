package programmer

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/roadrunner/internal/domain/chip"
)

const (
	// requestArity is the length of the [command, payload] pair.
	requestArity = 2
	// responseArity is the length of the [success, result, message] triple.
	responseArity = 3
)

// EncodeRequest converts a request into its wire form.
func EncodeRequest(req chip.Request) (*structpb.ListValue, error) {
	payload, err := structpb.NewValue(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	return &structpb.ListValue{
		Values: []*structpb.Value{
			structpb.NewStringValue(string(req.Command)),
			payload,
		},
	}, nil
}

// DecodeRequest converts the wire form into a request.
func DecodeRequest(in *structpb.ListValue) (chip.Request, error) {
	values := in.GetValues()
	if len(values) != requestArity {
		return chip.Request{}, fmt.Errorf("%w: request must be a [command, payload] pair, got %d elements",
			chip.ErrInvalidPayload, len(values))
	}

	command, ok := values[0].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return chip.Request{}, fmt.Errorf("%w: command must be a string", chip.ErrInvalidPayload)
	}

	return chip.Request{
		Command: chip.Command(command.StringValue),
		Payload: values[1].AsInterface(),
	}, nil
}

// EncodeResponse converts a response into its wire form.
func EncodeResponse(resp chip.Response) (*structpb.ListValue, error) {
	result, err := structpb.NewValue(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	success := 0.0
	if resp.Success {
		success = 1
	}

	return &structpb.ListValue{
		Values: []*structpb.Value{
			structpb.NewNumberValue(success),
			result,
			structpb.NewStringValue(resp.Message),
		},
	}, nil
}

// DecodeResponse converts the wire form into a response.
func DecodeResponse(out *structpb.ListValue) (chip.Response, error) {
	values := out.GetValues()
	if len(values) != responseArity {
		return chip.Response{}, fmt.Errorf("%w: response must be a [success, result, message] triple, got %d elements",
			chip.ErrInvalidPayload, len(values))
	}

	return chip.Response{
		Success: values[0].GetNumberValue() == 1,
		Result:  values[1].AsInterface(),
		Message: values[2].GetStringValue(),
	}, nil
}
