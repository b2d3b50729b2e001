package transformer

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Prefixes that keep the AMQP type of a message or correlation id when it is
// carried as a canonical string
const (
	idPrefixUUID   = "AMQP_UUID:"
	idPrefixULong  = "AMQP_ULONG:"
	idPrefixBinary = "AMQP_BINARY:"
	idPrefixString = "AMQP_STRING:"
)

var idPrefixes = []string{idPrefixUUID, idPrefixULong, idPrefixBinary, idPrefixString}

// encodeID renders an AMQP id as a canonical string
func encodeID(path string, id any) (string, error) {
	switch v := id.(type) {
	case nil:
		return "", nil
	case string:
		if hasIDPrefix(v) {
			return idPrefixString + v, nil
		}
		return v, nil
	case uuid.UUID:
		return idPrefixUUID + v.String(), nil
	case uint64:
		return idPrefixULong + strconv.FormatUint(v, 10), nil
	case []byte:
		return idPrefixBinary + strings.ToUpper(hex.EncodeToString(v)), nil
	default:
		return "", unsupported(path, id, "id must be a string, uuid, ulong or binary")
	}
}

// decodeID reverses encodeID. Strings that carry a prefix but do not parse
// are returned unchanged.
func decodeID(id string) any {
	switch {
	case id == "":
		return nil
	case strings.HasPrefix(id, idPrefixString):
		return strings.TrimPrefix(id, idPrefixString)
	case strings.HasPrefix(id, idPrefixUUID):
		if u, err := uuid.Parse(strings.TrimPrefix(id, idPrefixUUID)); err == nil {
			return u
		}
	case strings.HasPrefix(id, idPrefixULong):
		if n, err := strconv.ParseUint(strings.TrimPrefix(id, idPrefixULong), 10, 64); err == nil {
			return n
		}
	case strings.HasPrefix(id, idPrefixBinary):
		if b, err := hex.DecodeString(strings.TrimPrefix(id, idPrefixBinary)); err == nil {
			return b
		}
	}
	return id
}

func hasIDPrefix(s string) bool {
	for _, p := range idPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
