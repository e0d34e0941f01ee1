package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type EncodingResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"`
	HasBOM     bool    `json:"has_bom"`
}

const maxSampleSize = 8192

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decoders covers the encodings DetectEncoding can report besides utf-8.
var decoders = map[string]encoding.Encoding{
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"windows-1252": charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1251": charmap.Windows1251,
}

// DetectEncoding guesses the charset of text data: byte order marks first,
// then UTF-8 validity, then byte statistics over the first few kilobytes.
func DetectEncoding(data []byte) EncodingResult {
	if len(data) == 0 {
		return EncodingResult{Encoding: "utf-8", Confidence: 1.0}
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingResult{Encoding: "utf-8", Confidence: 1.0, HasBOM: true}
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingResult{Encoding: "utf-16le", Confidence: 1.0, HasBOM: true}
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingResult{Encoding: "utf-16be", Confidence: 1.0, HasBOM: true}
	}

	sample := data
	if len(sample) > maxSampleSize {
		sample = trimPartialRune(data[:maxSampleSize])
	}

	if enc, ok := detectUTF16(sample); ok {
		return EncodingResult{Encoding: enc, Confidence: 0.8}
	}
	if utf8.Valid(sample) {
		return EncodingResult{Encoding: "utf-8", Confidence: 0.95}
	}

	high, c1 := 0, 0
	for _, b := range sample {
		if b >= 0x80 {
			high++
		}
		if b >= 0x80 && b <= 0x9F {
			c1++
		}
	}

	// Cyrillic prose is mostly high bytes; Western prose only has the odd
	// accented letter or smart quote.
	if float64(high)/float64(len(sample)) > 0.3 {
		return EncodingResult{Encoding: "windows-1251", Confidence: 0.6}
	}
	if c1 > 0 {
		return EncodingResult{Encoding: "windows-1252", Confidence: 0.7}
	}
	return EncodingResult{Encoding: "iso-8859-1", Confidence: 0.6}
}

// detectUTF16 spots BOM-less UTF-16 by its NUL bytes in ASCII text.
func detectUTF16(sample []byte) (string, bool) {
	if len(sample) < 4 {
		return "", false
	}
	var even, odd int
	for i, b := range sample {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	half := len(sample) / 2
	switch {
	case odd > half*3/4 && even == 0:
		return "utf-16le", true
	case even > half*3/4 && odd == 0:
		return "utf-16be", true
	}
	return "", false
}

func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// NormalizeToUTF8 decodes data as detected. Undecodable bytes become U+FFFD.
func NormalizeToUTF8(data []byte, detected EncodingResult) string {
	if detected.HasBOM {
		switch detected.Encoding {
		case "utf-8":
			data = bytes.TrimPrefix(data, bomUTF8)
		case "utf-16le":
			data = bytes.TrimPrefix(data, bomUTF16LE)
		case "utf-16be":
			data = bytes.TrimPrefix(data, bomUTF16BE)
		}
	}

	enc, ok := decoders[detected.Encoding]
	if !ok {
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	}
	return decodeWithFallback(data, enc.NewDecoder())
}

// DecodeAs decodes data with a named charset ("latin1", "windows-1252",
// "koi8-r", ...), bypassing detection.
func DecodeAs(data []byte, name string) (string, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return decodeWithFallback(data, enc.NewDecoder()), nil
}

func decodeWithFallback(data []byte, decoder *encoding.Decoder) string {
	if len(data) == 0 {
		return ""
	}

	reader := transform.NewReader(bytes.NewReader(data), decoder)
	result, err := io.ReadAll(reader)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	}

	return string(bytes.ToValidUTF8(result, []byte("\uFFFD")))
}

func ReadFileAsUTF8(path string) (content string, detected EncodingResult, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", EncodingResult{}, err
	}

	detected = DetectEncoding(data)
	content = NormalizeToUTF8(data, detected)
	return content, detected, nil
}
