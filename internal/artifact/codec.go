package artifact

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// xz stream magic, used to recognize compressed payloads.
var xzHeader = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Encode marshals v to JSON and compresses it. Large per-file line tables
// otherwise push payloads over typical artifact size limits.
func Encode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling artifact payload")
	}
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "creating xz writer")
	}
	if _, err := w.Write(raw); err != nil {
		return nil, errors.Wrap(err, "compressing artifact payload")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "flushing xz stream")
	}
	return buf.Bytes(), nil
}

// Decode unmarshals an artifact payload into v. Artifacts written under the
// legacy scheme predate compression and are plain JSON, so the payload is
// sniffed before decompressing.
func Decode(payload []byte, v interface{}) error {
	raw := payload
	if bytes.HasPrefix(payload, xzHeader) {
		r, err := xz.NewReader(bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, "opening xz stream")
		}
		raw, err = io.ReadAll(r)
		if err != nil {
			return errors.Wrap(err, "decompressing artifact payload")
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "unmarshaling artifact payload")
	}
	return nil
}
