package perceptual

import (
	"slices"

	"github.com/ivoronin/dupekeeper/internal/types"
)

// Item is a file with its perceptual hash.
type Item struct {
	Entry types.FileEntry
	Hash  Hash
}

// Cluster is a set of similar items sharing one bucket prefix.
// Members[0] is the seed.
type Cluster struct {
	Prefix  string
	Members []Item
}

// ClusterItems groups items whose distance to a cluster seed is at most
// threshold. Buckets are visited in key order and items in input order.
// Only clusters with two or more members are returned.
func ClusterItems(items []Item, threshold int) []Cluster {
	buckets := make(map[string][]Item)
	for _, it := range items {
		p := it.Hash.Prefix()
		buckets[p] = append(buckets[p], it)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var clusters []Cluster
	for _, key := range keys {
		bucket := buckets[key]
		if len(bucket) < 2 {
			continue
		}
		absorbed := make([]bool, len(bucket))
		for i, seed := range bucket {
			if absorbed[i] {
				continue
			}
			idx := []int{i}
			for j := i + 1; j < len(bucket); j++ {
				if !absorbed[j] && Distance(seed.Hash, bucket[j].Hash) <= threshold {
					idx = append(idx, j)
				}
			}
			if len(idx) < 2 {
				continue
			}
			members := make([]Item, len(idx))
			for n, j := range idx {
				absorbed[j] = true
				members[n] = bucket[j]
			}
			clusters = append(clusters, Cluster{Prefix: key, Members: members})
		}
	}
	return clusters
}
