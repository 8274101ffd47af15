// Package textenc recovers decodable UTF-8 text from export files whose
// encoding is not declared anywhere in the file or its name.
//
// Billing exports in the wild arrive as Shift_JIS, CP932, EUC-JP,
// ISO-2022-JP, or plain UTF-8 depending on which system produced them.
// Detection combines a statistical guess over a bounded prefix with an
// ordered fallthrough of regionally common encodings.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUndecodable is returned when no candidate encoding decodes the input.
// It is a file-level failure: the caller must not attempt partial recovery.
var ErrUndecodable = errors.New("no candidate encoding decoded the file")

// SniffLimit bounds how much of the file the statistical detector reads.
var SniffLimit = 10 * 1024

// ConfidenceThreshold is the minimum chardet confidence (0-100) for a
// statistical guess to be tried ahead of the fixed candidate list.
var ConfidenceThreshold = 70

type candidate struct {
	name string
	enc  encoding.Encoding
}

// candidates is the fixed fallthrough order. Shift_JIS first: it is by far
// the most common encoding for the billing systems this pipeline ingests.
// x/text's ShiftJIS table covers the CP932 extensions.
var candidates = []candidate{
	{"shift_jis", japanese.ShiftJIS},
	{"utf-8", unicode.UTF8},
	{"euc-jp", japanese.EUCJP},
	{"iso-2022-jp", japanese.ISO2022JP},
}

// Result carries the decoded text and the name of the encoding that produced it.
type Result struct {
	Text     string
	Encoding string
}

// Decode converts raw file bytes into UTF-8 text.
//
// It first runs a statistical detector over the file prefix; a confident
// guess is tried before the fixed list. Each candidate must decode the whole
// file without producing a replacement character, otherwise the next is
// tried. Exhausting every candidate returns ErrUndecodable.
func Decode(data []byte) (Result, error) {
	// Valid UTF-8 that actually uses multibyte sequences is UTF-8; no
	// statistical guess needed, and Shift_JIS must not get a chance to
	// misread it as mojibake.
	if hasMultibyte(data) && utf8.Valid(data) {
		if text, ok := tryDecode(unicode.UTF8, data); ok {
			return Result{Text: text, Encoding: "utf-8"}, nil
		}
	}

	for _, c := range orderedCandidates(data) {
		text, ok := tryDecode(c.enc, data)
		if !ok {
			continue
		}
		return Result{Text: text, Encoding: c.name}, nil
	}
	return Result{}, fmt.Errorf("%w (tried %s)", ErrUndecodable, candidateNames())
}

// orderedCandidates returns the candidate list, with a confident statistical
// guess prepended when it names an encoding outside the fixed list.
func orderedCandidates(data []byte) []candidate {
	guess := sniff(data)
	if guess.enc == nil {
		return candidates
	}
	for _, c := range candidates {
		if strings.EqualFold(c.name, guess.name) {
			// Already in the list: promote it to the front.
			ordered := make([]candidate, 0, len(candidates))
			ordered = append(ordered, c)
			for _, o := range candidates {
				if o.name != c.name {
					ordered = append(ordered, o)
				}
			}
			return ordered
		}
	}
	return append([]candidate{guess}, candidates...)
}

// sniff runs the statistical detector over the file prefix. Returns a zero
// candidate when nothing clears the confidence threshold.
func sniff(data []byte) candidate {
	prefix := data
	if len(prefix) > SniffLimit {
		prefix = prefix[:SniffLimit]
	}

	best, err := chardet.NewTextDetector().DetectBest(prefix)
	if err != nil || best == nil || best.Confidence <= ConfidenceThreshold {
		return candidate{}
	}

	enc, err := ianaindex.IANA.Encoding(best.Charset)
	if err != nil || enc == nil {
		return candidate{}
	}
	return candidate{name: strings.ToLower(best.Charset), enc: enc}
}

// tryDecode decodes the full input with one encoding. The x/text decoders
// substitute U+FFFD for invalid sequences rather than erroring, so a
// replacement character in the output marks the candidate as failed.
func tryDecode(enc encoding.Encoding, data []byte) (string, bool) {
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(decoded) || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return string(stripBOM(decoded)), true
}

func hasMultibyte(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return true
		}
	}
	return false
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}

func candidateNames() string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}

// SniffDelimiter inspects the first line of decoded text and returns the
// most frequent of the common delimiters, defaulting to comma.
func SniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best := ','
	bestCount := strings.Count(line, ",")
	for _, d := range []rune{'\t', ';', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
