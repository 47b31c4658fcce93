// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package customjob

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// EncodePayload serializes the payload in the byte layout the launcher side
// expects: ", " and ": " separators, non-ASCII escaped as \uXXXX, no HTML
// escaping. Map keys are written in sorted order.
func EncodePayload(p CustomJobPayload) (string, error) {
	return encodePython(p)
}

func encodePython(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode custom job payload: %w", err)
	}
	return string(spaced(bytes.TrimRight(buf.Bytes(), "\n"))), nil
}

// DecodePayload parses a payload produced by EncodePayload (or any JSON of the
// same shape).
func DecodePayload(s string) (CustomJobPayload, error) {
	var p CustomJobPayload
	dec := json.NewDecoder(bytes.NewBufferString(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return CustomJobPayload{}, fmt.Errorf("failed to decode custom job payload: %w", err)
	}
	return p, nil
}

// spaced rewrites compact JSON: a space after every structural ',' and ':',
// and ASCII-only string contents.
func spaced(compact []byte) []byte {
	out := make([]byte, 0, len(compact)+len(compact)/8)
	inString := false
	for i := 0; i < len(compact); {
		c := compact[i]
		if !inString {
			out = append(out, c)
			switch c {
			case '"':
				inString = true
			case ',', ':':
				out = append(out, ' ')
			}
			i++
			continue
		}

		switch {
		case c == '\\':
			out = append(out, c, compact[i+1])
			i += 2
		case c == '"':
			out = append(out, c)
			inString = false
			i++
		case c == 0x7f:
			out = appendUnicodeEscape(out, rune(c))
			i++
		case c < utf8.RuneSelf:
			out = append(out, c)
			i++
		default:
			r, size := utf8.DecodeRune(compact[i:])
			if r >= 0x10000 {
				hi, lo := utf16.EncodeRune(r)
				out = appendUnicodeEscape(out, hi)
				out = appendUnicodeEscape(out, lo)
			} else {
				out = appendUnicodeEscape(out, r)
			}
			i += size
		}
	}
	return out
}

func appendUnicodeEscape(out []byte, r rune) []byte {
	return append(out, '\\', 'u',
		hexDigits[(r>>12)&0xf],
		hexDigits[(r>>8)&0xf],
		hexDigits[(r>>4)&0xf],
		hexDigits[r&0xf],
	)
}
