package repr

import "sort"

// Layout is the pair of decoders used for one column family.
type Layout struct {
	Key   Kind
	Value Kind
}

// DefaultLayout is used for any family not in the catalog.
var DefaultLayout = Layout{Key: Hex, Value: Hex}

var catalog = map[string]Layout{
	"archives":        {Key: UnsignedInt32, Value: Blob},
	"key_blocks":      {Key: UnsignedInt32, Value: FullBlockID},
	"shard_states":    {Key: ShortBlockID, Value: ShardState},
	"prev1":           {Key: Hex, Value: FullBlockID},
	"prev2":           {Key: Hex, Value: FullBlockID},
	"next1":           {Key: Hex, Value: FullBlockID},
	"next2":           {Key: Hex, Value: FullBlockID},
	"package_entries": {Key: PackageEntryID, Value: Blob},
	"node_states":     {Key: NodeState, Value: NodeState},
}

// Lookup returns the layout for a column family name. Unknown names get
// DefaultLayout.
func Lookup(name string) Layout {
	if l, ok := catalog[name]; ok {
		return l
	}
	return DefaultLayout
}

// Known returns the catalogued family names in sorted order.
func Known() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
