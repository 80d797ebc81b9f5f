package repr

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Kind selects how a raw key or value is rendered for display.
type Kind uint8

const (
	Hex Kind = iota
	UnsignedInt32
	ShortBlockID
	FullBlockID
	ShardState
	Blob
	PackageEntryID
	NodeState
)

// Layout sizes of the binary records written by the node.
const (
	shortBlockIDLen   = 4 + 8 + 4
	hashLen           = 32
	fullBlockIDLen    = shortBlockIDLen + 2*hashLen
	shardStateLen     = 3 * hashLen
	packageEntryIDLen = shortBlockIDLen + hashLen + 1
	dbVersionLen      = 3
)

var kindNames = [...]string{
	Hex:            "hex",
	UnsignedInt32:  "u32",
	ShortBlockID:   "block_id_short",
	FullBlockID:    "block_id_full",
	ShardState:     "shard_state",
	Blob:           "blob",
	PackageEntryID: "package_entry_id",
	NodeState:      "node_state",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Decode renders value as a display string. ctx is the raw row key; only
// NodeState looks at it. Decode never fails: input that does not match the
// expected layout is rendered as an "<invalid ...>" marker.
func (k Kind) Decode(ctx, value []byte) string {
	switch k {
	case UnsignedInt32:
		return decodeU32(value)
	case ShortBlockID:
		return decodeShortBlockID(value)
	case FullBlockID:
		return decodeFullBlockID(value)
	case ShardState:
		return decodeShardState(value)
	case Blob:
		return fmt.Sprintf("<%d bytes>", len(value))
	case PackageEntryID:
		return decodePackageEntryID(value)
	case NodeState:
		return decodeNodeState(ctx, value)
	default:
		return hex.EncodeToString(value)
	}
}

func invalid(value []byte) string {
	return "<invalid " + hex.EncodeToString(value) + ">"
}

func decodeU32(value []byte) string {
	if len(value) != 4 {
		return invalid(value)
	}
	return strconv.FormatUint(uint64(binary.BigEndian.Uint32(value)), 10)
}

// blockIDPrefix formats workchain:shard:seqno from the first 16 bytes.
func blockIDPrefix(value []byte) string {
	workchain := int32(binary.BigEndian.Uint32(value[0:4]))
	shard := binary.BigEndian.Uint64(value[4:12])
	seqno := binary.BigEndian.Uint32(value[12:16])
	return fmt.Sprintf("%2d:%016x:%d", workchain, shard, seqno)
}

func decodeShortBlockID(value []byte) string {
	if len(value) != shortBlockIDLen {
		return invalid(value)
	}
	return blockIDPrefix(value)
}

func decodeFullBlockID(value []byte) string {
	if len(value) != fullBlockIDLen {
		return invalid(value)
	}
	return blockIDPrefix(value) +
		":" + hex.EncodeToString(value[16:48]) +
		":" + hex.EncodeToString(value[48:80])
}

func decodeShardState(value []byte) string {
	if len(value) != shardStateLen {
		return invalid(value)
	}
	return fmt.Sprintf("state_root: %s, root_hash: %s, file_hash: %s",
		hex.EncodeToString(value[0:32]),
		hex.EncodeToString(value[32:64]),
		hex.EncodeToString(value[64:96]))
}

var packageTypes = [...]string{"block", "proof", "proof_link"}

func decodePackageEntryID(value []byte) string {
	if len(value) != packageEntryIDLen {
		return invalid(value)
	}
	packageType := "unknown"
	if t := int(value[48]); t < len(packageTypes) {
		packageType = packageTypes[t]
	}
	return blockIDPrefix(value) + ":" + hex.EncodeToString(value[16:48]) + ": " + packageType
}

// Well-known keys of the node_states family.
const (
	keyBackgroundSyncLow     = "background_sync_low"
	keyBackgroundSyncHigh    = "background_sync_high"
	keyLastUploadedArchive   = "last_uploaded_archive"
	keyLastMcBlockID         = "LastMcBlockId"
	keyInitMcBlockID         = "InitMcBlockId"
	keyShardsClientMcBlockID = "ShardsClientMcBlockId"
	keyDBVersion             = "db_version"
)

// decodeNodeState renders node_states rows. The key decoder is called with
// ctx == value, which is how raw string keys are told apart from records.
// A record that happens to equal its own key is therefore shown as text.
func decodeNodeState(ctx, value []byte) string {
	if string(ctx) == string(value) {
		return lossyUTF8(value)
	}
	switch string(ctx) {
	case keyBackgroundSyncLow, keyBackgroundSyncHigh,
		keyLastMcBlockID, keyInitMcBlockID, keyShardsClientMcBlockID:
		return decodeFullBlockID(value)
	case keyLastUploadedArchive:
		return decodeU32(value)
	case keyDBVersion:
		if len(value) != dbVersionLen {
			return "<invalid version " + hex.EncodeToString(value) + ">"
		}
		return fmt.Sprintf("%d.%d.%d", value[0], value[1], value[2])
	default:
		return hex.EncodeToString(value)
	}
}

// lossyUTF8 decodes b as UTF-8, substituting U+FFFD for invalid bytes.
func lossyUTF8(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
