package batchexec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrAuthentication marks an authentication failure, either reported by the
// backend inside an otherwise successful HTTP response (error code 16 in the
// generic frame slot) or by the HTTP layer itself.
var ErrAuthentication = errors.New("authentication expired")

// DecodeStream parses a raw batchexecute response body into JSON frames.
//
// After the anti-XSSI prefix is stripped, the body is a sequence of lines: a
// line that parses as a bare integer announces the byte length of the JSON
// payload on the following line; any other line is tried as JSON directly.
// Malformed lines are skipped, never fatal.
func DecodeStream(text string) []gjson.Result {
	text = strings.TrimPrefix(text, ResponsePrefix)

	lines := strings.Split(strings.TrimSpace(text), "\n")
	frames := make([]gjson.Result, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if _, err := strconv.Atoi(line); err == nil {
			// Length announcement; the payload is the next line.
			i++
			if i < len(lines) {
				if frame, ok := parseFrame(lines[i]); ok {
					frames = append(frames, frame)
				}
			}
			continue
		}

		if frame, ok := parseFrame(line); ok {
			frames = append(frames, frame)
		}
	}

	return frames
}

func parseFrame(line string) (gjson.Result, bool) {
	if !json.Valid([]byte(line)) {
		return gjson.Result{}, false
	}
	return gjson.Parse(line), true
}

// ExtractResult scans decoded frames for the result of rpcID.
//
// The winning item is the first one shaped ["wrb.fr", rpcID, payload, ...];
// duplicates are possible in principle, and first match wins. The payload
// slot holds a JSON string that is parsed as the actual result, falling back
// to the raw string when it is not valid JSON. No matching item means the
// backend returned nothing for this RPC, which is a valid outcome: ok is
// false and err is nil.
func ExtractResult(frames []gjson.Result, rpcID string) (gjson.Result, bool, error) {
	for _, frame := range frames {
		if !frame.IsArray() {
			continue
		}
		for _, item := range frame.Array() {
			fields := item.Array()
			if len(fields) < 3 {
				continue
			}
			if fields[0].String() != FrameTag || fields[1].String() != rpcID {
				continue
			}

			if isSoftAuthError(fields) {
				return gjson.Result{}, false, fmt.Errorf("rpc error 16: %w", ErrAuthentication)
			}

			payload := fields[2]
			if payload.Type == gjson.Null {
				return gjson.Result{}, false, nil
			}
			raw := payload.String()
			if json.Valid([]byte(raw)) {
				return gjson.Parse(raw), true, nil
			}
			return payload, true, nil
		}
	}
	return gjson.Result{}, false, nil
}

// isSoftAuthError matches the backend's soft auth failure signature:
// ["wrb.fr", rpcID, null, null, null, [16], "generic"].
func isSoftAuthError(fields []gjson.Result) bool {
	if len(fields) < 7 || fields[6].String() != "generic" {
		return false
	}
	if !fields[5].IsArray() {
		return false
	}
	for _, code := range fields[5].Array() {
		if code.Int() == 16 {
			return true
		}
	}
	return false
}
