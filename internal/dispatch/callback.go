package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	callbackSeparator = ":"
	// MaxCallbackData is the platform limit for callback data, in bytes.
	MaxCallbackData = 64
)

var (
	ErrCallbackPrefix    = errors.New("callback data: prefix mismatch")
	ErrCallbackMalformed = errors.New("callback data: malformed")
)

// CallbackData is a compact record carried by inline buttons. Fields are
// packed in declaration order after the prefix.
type CallbackData interface {
	Prefix() string
	Fields() []string
	SetFields(fields []string) error
}

// PackCallback serialises a record as "prefix:field:field".
func PackCallback(cd CallbackData) (string, error) {
	parts := append([]string{cd.Prefix()}, cd.Fields()...)
	for _, p := range parts {
		if strings.Contains(p, callbackSeparator) {
			return "", fmt.Errorf("%w: %q contains separator", ErrCallbackMalformed, p)
		}
	}
	packed := strings.Join(parts, callbackSeparator)
	if len(packed) > MaxCallbackData {
		return "", fmt.Errorf("%w: %d bytes exceeds limit", ErrCallbackMalformed, len(packed))
	}
	return packed, nil
}

// MustPackCallback is PackCallback for records whose fields are known to fit.
func MustPackCallback(cd CallbackData) string {
	packed, err := PackCallback(cd)
	if err != nil {
		panic(err)
	}
	return packed
}

// UnpackCallback parses data into cd, rejecting foreign prefixes.
func UnpackCallback(data string, cd CallbackData) error {
	prefix, rest, found := strings.Cut(data, callbackSeparator)
	if prefix != cd.Prefix() {
		return ErrCallbackPrefix
	}
	var fields []string
	if found {
		fields = strings.Split(rest, callbackSeparator)
	}
	if len(fields) != len(cd.Fields()) {
		return fmt.Errorf("%w: want %d fields, got %d", ErrCallbackMalformed, len(cd.Fields()), len(fields))
	}
	if err := cd.SetFields(fields); err != nil {
		return fmt.Errorf("%w: %v", ErrCallbackMalformed, err)
	}
	return nil
}

// CallbackKey is the Values key holding the decoded record.
const CallbackKey = "callback_data"

// CallbackDataFilter matches callback queries that decode into T and satisfy
// pred (nil accepts any). The decoded record is extracted under CallbackKey.
func CallbackDataFilter[T any, P interface {
	*T
	CallbackData
}](pred func(*T) bool) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		cq := ev.Callback()
		if cq == nil {
			return verdict(false), nil
		}
		record := P(new(T))
		if err := UnpackCallback(cq.Data, record); err != nil {
			if errors.Is(err, ErrCallbackMalformed) {
				ev.logger().DebugContext(ctx, "malformed callback data", "data", cq.Data, "error", err)
			}
			return verdict(false), nil
		}
		if pred != nil && !pred((*T)(record)) {
			return verdict(false), nil
		}
		return Matched(map[string]any{CallbackKey: (*T)(record)}), nil
	}
}
