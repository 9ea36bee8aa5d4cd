package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sorul/tradingbot/internal/logger"

	"github.com/tidwall/gjson"
)

// tryLoadJSON reads a snapshot file and checks it parses to a JSON
// object. The terminal rewrites these files in place, so a read racing
// a write can yield truncated JSON; that read counts as "nothing yet",
// exactly like a missing file, and the next poll sees the full write.
func tryLoadJSON(path string) ([]byte, bool) {
	raw, err := os.ReadFile(path)
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	if !gjson.ValidBytes(raw) {
		logger.TraceSnapshotError(path, fmt.Errorf("invalid json (%d bytes)", len(raw)))
		return nil, false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() || len(root.Map()) == 0 {
		return nil, false
	}
	return raw, true
}

// removeIfPresent deletes path, treating a missing file as success.
func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// writeFileAtomic lands content via tmp+rename so readers of the mirror
// never observe a half write.
func writeFileAtomic(path string, content []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// orderedObjectValues walks one JSON object and returns its member
// values in file order, stringified. encoding/json maps shuffle keys,
// and message bodies are positional (first value names the severity).
func orderedObjectValues(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected json object, got %v", tok)
	}
	var out []string
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		out = append(out, stringifyJSONValue(val))
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func stringifyJSONValue(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
