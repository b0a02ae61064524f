/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a parsed deck out of the process: as a JSON tree
// checked against an embedded schema, and as a printable PDF handout.
package export

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"presentflow/internal/deck"
	"presentflow/internal/version"
)

// FormatVersion is bumped when the JSON layout changes.
const FormatVersion = 1

//go:embed schema/deck.schema.json
var deckSchema []byte

// Document is the top-level JSON object.
type Document struct {
	Version   int          `json:"version"`
	Generator string       `json:"generator"`
	Slides    []deck.Slide `json:"slides"`
}

func NewDocument(slides []deck.Slide) Document {
	if slides == nil {
		slides = []deck.Slide{}
	}
	return Document{Version: FormatVersion, Generator: "presentflow " + version.String(), Slides: slides}
}

// MarshalDeck encodes slides as an indented JSON document.
func MarshalDeck(slides []deck.Slide) ([]byte, error) {
	b, err := json.MarshalIndent(NewDocument(slides), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}
	return b, nil
}

// WriteJSON writes the document for slides to w, validating it first.
func WriteJSON(w io.Writer, slides []deck.Slide) error {
	b, err := MarshalDeck(slides)
	if err != nil {
		return err
	}
	if err := Validate(b); err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "deck JSON does not match schema: " + strings.Join(e.Problems, "; ")
}

// Validate checks data against the deck schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(deckSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate deck: %w", err)
	}
	if res.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range res.Errors() {
		ve.Problems = append(ve.Problems, e.String())
	}
	return ve
}

// IsValidationError reports whether err came from a schema mismatch.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
