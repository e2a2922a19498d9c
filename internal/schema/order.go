package schema

// TableNode is a table name with the tables it references.
type TableNode struct {
	Name         string
	Dependencies []string
}

// DependencyNodes builds one node per table, in the given order, with the
// parents each table references through rels. Self references are ignored.
func DependencyNodes(tables []string, rels []Relationship) []*TableNode {
	nodes := make([]*TableNode, 0, len(tables))
	index := make(map[string]*TableNode, len(tables))
	for _, name := range tables {
		n := &TableNode{Name: name, Dependencies: []string{}}
		index[name] = n
		nodes = append(nodes, n)
	}
	for _, rel := range rels {
		child, ok := index[rel.ChildTable]
		if !ok || rel.ChildTable == rel.ParentTable {
			continue
		}
		if _, ok := index[rel.ParentTable]; !ok {
			continue
		}
		if !contains(child.Dependencies, rel.ParentTable) {
			child.Dependencies = append(child.Dependencies, rel.ParentTable)
		}
	}
	return nodes
}

// SortByDependencies orders tables so that parents come before children.
// Cycles are broken by picking the table with the fewest unresolved
// dependencies, preferring tables that take part in a cycle.
func SortByDependencies(tables []*TableNode) []*TableNode {
	var sorted []*TableNode
	processed := make(map[string]bool)
	byName := make(map[string]*TableNode, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	for len(sorted) < len(tables) {
		added := false

		// Pass 1: tables whose dependencies are all placed
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}

			allDepsProcessed := true
			for _, dep := range t.Dependencies {
				if !processed[dep] {
					allDepsProcessed = false
					break
				}
			}

			if allDepsProcessed {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
			}
		}

		if added {
			continue
		}

		// Pass 2: cycle, pick the best candidate by score
		var best *TableNode
		bestScore := 0
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}

			score := 0
			for _, dep := range t.Dependencies {
				if !processed[dep] {
					score -= 100
				}
			}
			if inCycle(t, byName, processed) {
				score += 500
			}

			// Ties go to the lexically smaller name
			if best == nil || score > bestScore || (score == bestScore && t.Name < best.Name) {
				best = t
				bestScore = score
			}
		}

		if best == nil {
			break
		}
		sorted = append(sorted, best)
		processed[best.Name] = true
	}

	return sorted
}

// inCycle reports whether one of t's unplaced dependencies references t back.
func inCycle(t *TableNode, byName map[string]*TableNode, processed map[string]bool) bool {
	for _, depName := range t.Dependencies {
		if processed[depName] {
			continue
		}
		dep, ok := byName[depName]
		if !ok {
			continue
		}
		if contains(dep.Dependencies, t.Name) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
