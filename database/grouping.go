package database

// groupByParent folds flat joined rows into one entry per parent key, keeping
// the order in which parents first appear. newParent builds the entry from the
// first row seen for a key; addChild is called for every row, including that one,
// and decides itself whether the row carries a child (LEFT JOIN rows may not).
func groupByParent[R any, K comparable, P any](
	rows []R,
	key func(R) K,
	newParent func(R) P,
	addChild func(*P, R),
) []P {
	index := make(map[K]int)
	parents := make([]P, 0)

	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			i = len(parents)
			index[k] = i
			parents = append(parents, newParent(row))
		}
		addChild(&parents[i], row)
	}

	return parents
}
