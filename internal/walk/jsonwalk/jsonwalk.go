// Package jsonwalk recursively translates string values in a JSON
// document while preserving object key order — something encoding/json's
// map-based unmarshal would lose, so this walks the raw token stream
// instead, rebuilding the document by hand. Grounded directly on the
// spec's JSON walker description; stdlib only, since order-preserving
// recursive string translation needs the raw-token stream stdlib already
// exposes and no pack library improves on that.
package jsonwalk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/valpere/polyglotter/internal/errs"
)

// Translator turns source text into translated text via the document's
// translation cache.
type Translator func(core string) (string, error)

// Walk parses data as JSON and returns a re-encoded document with every
// string value translated and key order preserved.
func Walk(data []byte, tr Translator) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out bytes.Buffer
	if err := walkValue(dec, &out, tr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func walkValue(dec *json.Decoder, out *bytes.Buffer, tr Translator) error {
	tok, err := dec.Token()
	if err != nil {
		return errs.WithFormat(errs.Parse, "json", err)
	}
	return writeToken(dec, out, tok, tr)
}

func writeToken(dec *json.Decoder, out *bytes.Buffer, tok json.Token, tr Translator) error {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return writeObject(dec, out, tr)
		case '[':
			return writeArray(dec, out, tr)
		default:
			return errs.WithFormat(errs.Parse, "json", fmt.Errorf("unexpected delimiter %q", v))
		}
	case string:
		translated, err := tr(v)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(translated)
		if err != nil {
			return errs.WithFormat(errs.Parse, "json", err)
		}
		out.Write(encoded)
		return nil
	case json.Number:
		out.WriteString(string(v))
		return nil
	case bool:
		out.WriteString(strconv.FormatBool(v))
		return nil
	case nil:
		out.WriteString("null")
		return nil
	default:
		return errs.WithFormat(errs.Parse, "json", fmt.Errorf("unexpected token type %T", tok))
	}
}

func writeObject(dec *json.Decoder, out *bytes.Buffer, tr Translator) error {
	out.WriteByte('{')
	first := true
	for dec.More() {
		if !first {
			out.WriteByte(',')
		}
		first = false

		keyTok, err := dec.Token()
		if err != nil {
			return errs.WithFormat(errs.Parse, "json", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return errs.WithFormat(errs.Parse, "json", fmt.Errorf("expected object key, got %T", keyTok))
		}
		keyEncoded, err := json.Marshal(key)
		if err != nil {
			return errs.WithFormat(errs.Parse, "json", err)
		}
		out.Write(keyEncoded)
		out.WriteByte(':')

		if err := walkValue(dec, out, tr); err != nil {
			return err
		}
	}
	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return errs.WithFormat(errs.Parse, "json", err)
	}
	out.WriteByte('}')
	return nil
}

func writeArray(dec *json.Decoder, out *bytes.Buffer, tr Translator) error {
	out.WriteByte('[')
	first := true
	for dec.More() {
		if !first {
			out.WriteByte(',')
		}
		first = false
		if err := walkValue(dec, out, tr); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return errs.WithFormat(errs.Parse, "json", err)
	}
	out.WriteByte(']')
	return nil
}
