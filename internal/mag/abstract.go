// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// InvertedAbstract is the bandwidth-saving representation of an abstract:
// each distinct word maps to the positions it occupies, plus the total
// word count. Decoding preserves the order of the inverted index so that
// restoration is deterministic when malformed input maps two words to the
// same position.
type InvertedAbstract struct {
	// Entries holds the inverted index in the order the API returned it.
	Entries []IndexEntry

	// Length is the total number of word positions in the abstract.
	Length int
}

// IndexEntry is one word of the inverted index and the positions where it
// appears.
type IndexEntry struct {
	Word      string
	Positions []int
}

// UnmarshalJSON decodes the API's {"InvertedIndex": {...}, "IndexLength": n}
// shape. A plain map would lose the index key order, so the inverted index
// is walked token by token.
func (ia *InvertedAbstract) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("inverted abstract is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		switch key {
		case "IndexLength":
			if err := dec.Decode(&ia.Length); err != nil {
				return fmt.Errorf("decoding IndexLength: %w", err)
			}
		case "InvertedIndex":
			if err := ia.decodeIndex(dec); err != nil {
				return err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}

	_, err = dec.Token() // closing '}'
	return err
}

func (ia *InvertedAbstract) decodeIndex(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && d == '{' {
		for dec.More() {
			wordTok, err := dec.Token()
			if err != nil {
				return err
			}
			word, _ := wordTok.(string)
			var positions []int
			if err := dec.Decode(&positions); err != nil {
				return fmt.Errorf("decoding positions for %q: %w", word, err)
			}
			ia.Entries = append(ia.Entries, IndexEntry{Word: word, Positions: positions})
		}
		_, err = dec.Token() // closing '}'
		return err
	}
	if tok == nil {
		return nil
	}
	return fmt.Errorf("inverted index is not a JSON object")
}

// MarshalJSON reassembles the API shape, keeping the index order.
func (ia InvertedAbstract) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"IndexLength":`)
	fmt.Fprintf(&buf, "%d", ia.Length)
	buf.WriteString(`,"InvertedIndex":{`)
	for i, e := range ia.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		word, err := json.Marshal(e.Word)
		if err != nil {
			return nil, err
		}
		buf.Write(word)
		buf.WriteByte(':')
		positions, err := json.Marshal(e.Positions)
		if err != nil {
			return nil, err
		}
		buf.Write(positions)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// Restore reconstructs the original abstract text. For each position from
// 0 to Length-1 it appends every word whose position set contains that
// position, in index order, and joins the words with single spaces. A
// position no word claims contributes nothing; a position claimed by
// several words (malformed input) emits all of them.
func (ia *InvertedAbstract) Restore() string {
	var words []string
	for pos := 0; pos < ia.Length; pos++ {
		for _, e := range ia.Entries {
			if slices.Contains(e.Positions, pos) {
				words = append(words, e.Word)
			}
		}
	}
	return strings.Join(words, " ")
}
