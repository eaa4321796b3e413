// Package fingerprint derives stable digests from behavior maps so overrides
// can be audited and drift detected without retaining full map copies.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/kingrea/refit/behavior"
)

// Digest is a 32-byte BLAKE3 digest of a behavior map.
type Digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. The bytes are the
// ASCII encoding of the domain name, zero-padded to 32 bytes, so the key is
// readable in hex dumps without losing any cryptographic property.
var mapDomainKey = [32]byte{
	'r', 'e', 'f', 'i', 't', '.', 'b', 'e', 'h', 'a', 'v', 'i', 'o', 'r', '.',
	'm', 'a', 'p', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Map computes the digest of a behavior map. Keys are visited in sorted
// order; callable values hash by their reflected type signature (they carry
// no comparable content), nested maps and slices recurse, scalars render
// with a type prefix. Two maps with the same keys and equivalent rendered
// values share a digest.
func Map(m behavior.Map) Digest {
	hasher, err := blake3.NewKeyed(mapDomainKey[:])
	if err != nil {
		panic("fingerprint: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte{0})
		hasher.Write([]byte(render(m[key])))
		hasher.Write([]byte{0})
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// String returns the canonical hex form used in journals and CLI output.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, enough for display columns.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}

// Parse decodes a 64-character hex digest.
func Parse(value string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return digest, fmt.Errorf("fingerprint: parse digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("fingerprint: digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// render produces a deterministic textual form for one behavior value.
func render(value any) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case behavior.Map:
		return renderStringMap(map[string]any(v))
	case map[string]any:
		return renderStringMap(v)
	case []any:
		out := "["
		for i, item := range v {
			if i > 0 {
				out += ","
			}
			out += render(item)
		}
		return out + "]"
	case string:
		return "s:" + v
	case bool:
		return fmt.Sprintf("b:%t", v)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Func:
		return "fn:" + rv.Type().String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("i:%d", rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("u:%d", rv.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("f:%g", rv.Float())
	default:
		return fmt.Sprintf("%T:%v", value, value)
	}
}

func renderStringMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := "{"
	for i, key := range keys {
		if i > 0 {
			out += ","
		}
		out += key + "=" + render(m[key])
	}
	return out + "}"
}
