package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// LinkKind is the closed set of deep-link payload kinds.
type LinkKind int

const (
	LinkUnknown LinkKind = iota
	// LinkBundle fetches a bundle by its share-link key.
	LinkBundle
)

const (
	linkKindParam = "a"
	// BundleKeyParam carries the share-link query id.
	BundleKeyParam = "k"
	// MaxStartPayload is the platform limit for a start parameter.
	MaxStartPayload = 64
)

var linkCodes = map[LinkKind]string{
	LinkBundle: "ull",
}

var linkParams = map[LinkKind][]string{
	LinkBundle: {BundleKeyParam},
}

var (
	ErrNoMatch         = errors.New("deeplink: no match")
	ErrUnknownLinkKind = errors.New("deeplink: unknown kind")
	ErrPayloadTooLong  = errors.New("deeplink: payload too long")
)

func (k LinkKind) String() string {
	if code, ok := linkCodes[k]; ok {
		return code
	}
	return "unknown"
}

// EncodeLink packs kind and params into a start payload.
func EncodeLink(kind LinkKind, params map[string]string) (string, error) {
	code, ok := linkCodes[kind]
	if !ok {
		return "", ErrUnknownLinkKind
	}
	allowed := linkParams[kind]
	values := url.Values{}
	values.Set(linkKindParam, code)
	for k, v := range params {
		if !slices.Contains(allowed, k) {
			return "", fmt.Errorf("deeplink: %s does not take %q", kind, k)
		}
		values.Set(k, v)
	}

	payload := base64.RawURLEncoding.EncodeToString([]byte(values.Encode()))
	if len(payload) > MaxStartPayload {
		return "", ErrPayloadTooLong
	}
	return payload, nil
}

// DecodeLink reverses EncodeLink. Anything it cannot attribute to a known
// kind yields ErrNoMatch.
func DecodeLink(payload string) (LinkKind, map[string]string, error) {
	if payload == "" || len(payload) > MaxStartPayload {
		return LinkUnknown, nil, ErrNoMatch
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return LinkUnknown, nil, ErrNoMatch
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return LinkUnknown, nil, ErrNoMatch
	}

	code := values.Get(linkKindParam)
	var kind LinkKind
	for k, c := range linkCodes {
		if c == code {
			kind = k
		}
	}
	if kind == LinkUnknown {
		return LinkUnknown, nil, ErrNoMatch
	}

	params := make(map[string]string)
	for _, name := range linkParams[kind] {
		if vs, ok := values[name]; ok && len(vs) > 0 {
			params[name] = vs[0]
		}
	}
	return kind, params, nil
}

// StartLink is the public deep link opening username with payload.
func StartLink(username, payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", username, payload)
}

// Keys of the fields StartQuery extracts.
const (
	LinkKindKey   = "link_kind"
	LinkParamsKey = "link_params"
)

// StartQuery matches "/start <payload>" whose payload decodes to kind. A
// payload that is not a deep link does not match; a deep link of another
// kind, or one refused by refine, is rejected.
func StartQuery(kind LinkKind, refine func(params map[string]string) bool) Filter {
	return func(ctx context.Context, ev *Event) (Match, error) {
		cmd, args, ok := ev.Message().Command()
		if !ok || cmd != "start" || args == "" {
			return verdict(false), nil
		}
		decoded, params, err := DecodeLink(args)
		if err != nil {
			return verdict(false), nil
		}
		if decoded != kind {
			return Match{}, &RejectionError{Filter: "StartQuery", Reason: "kind " + decoded.String()}
		}
		if refine != nil && !refine(params) {
			return Match{}, &RejectionError{Filter: "StartQuery", Reason: "refinement failed"}
		}
		return Matched(map[string]any{LinkKindKey: decoded, LinkParamsKey: params}), nil
	}
}
