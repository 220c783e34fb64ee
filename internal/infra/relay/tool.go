package relay

import (
	"encoding/json"
	"fmt"
)

type toolKind int

const (
	toolUnknown toolKind = iota
	toolEndCall
	toolBookService
)

// toolInvocation is the parsed form of a function_call_arguments.done
// event. Only the field matching kind is populated.
type toolInvocation struct {
	kind        toolKind
	goodbye     string
	bookingTime string
}

func parseToolInvocation(name, arguments string) (toolInvocation, error) {
	switch name {
	case "end_call":
		var args struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return toolInvocation{}, fmt.Errorf("parse end_call arguments: %w", err)
		}
		if args.Message == "" {
			args.Message = defaultGoodbye
		}
		return toolInvocation{kind: toolEndCall, goodbye: args.Message}, nil

	case "book_service":
		var args struct {
			BookingTime string `json:"booking_time"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return toolInvocation{}, fmt.Errorf("parse book_service arguments: %w", err)
		}
		return toolInvocation{kind: toolBookService, bookingTime: args.BookingTime}, nil
	}

	return toolInvocation{kind: toolUnknown}, nil
}
