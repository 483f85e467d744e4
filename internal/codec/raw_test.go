package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/relmenu/internal/menu"
)

func TestRawMessageKeepsKeyOrder(t *testing.T) {
	t.Parallel()

	in := json.RawMessage(`{ "Zeta": [{"item":"z"}],
		"Alpha": [{"item":"a","value":"maybe"}] }`)
	tok, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	raw, err := DecodeRaw(tok)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if want := `{"Zeta":[{"item":"z"}],"Alpha":[{"item":"a","value":"maybe"}]}`; string(raw) != want {
		t.Errorf("DecodeRaw = %s, want %s", raw, want)
	}

	var m menu.Menu
	if err := Decode(tok, &m); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]string{"Zeta", "Alpha"}, m.Names()); diff != "" {
		t.Errorf("group order mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRawRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := DecodeRaw(zlibToken(t, []byte(`{"a":`)))
	var de *DecodeError
	if !errors.As(err, &de) || de.Stage != StageJSON {
		t.Fatalf("DecodeRaw error = %v, want json-stage DecodeError", err)
	}
}

func TestEncodeDoesNotEscapeHTML(t *testing.T) {
	t.Parallel()

	m := menu.New(menu.Group{Name: "<Fun & games>", Items: []menu.Item{{Text: "Alex & Sam"}}})
	for _, v := range []any{m, map[string]any{"k": "a<b>&c"}} {
		tok, err := Encode(v)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		raw, err := DecodeRaw(tok)
		if err != nil {
			t.Fatalf("DecodeRaw: %v", err)
		}
		if bytes.Contains(raw, []byte(`\u00`)) {
			t.Errorf("token JSON has escaped HTML characters: %s", raw)
		}
	}
}
