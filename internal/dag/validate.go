package dag

// Validate returns a *CycleError when the graph contains a cycle (self-loops
// included). Acyclic graphs return nil.
func (g *Graph) Validate() error {
	order, rest := g.levelOrder()
	if len(order) == g.NodeCount() {
		return nil
	}
	cyclic := g.cyclicNodes(rest)
	ids := make([]string, 0, len(cyclic))
	for _, id := range g.order {
		if cyclic[id] {
			ids = append(ids, id)
		}
	}
	return &CycleError{Nodes: ids}
}

// TopoOrder returns the order in which the sequential executor visits the
// nodes when every node succeeds.
func (g *Graph) TopoOrder() ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	order, _ := g.levelOrder()
	return order, nil
}

// levelOrder runs FIFO Kahn with every edge satisfied. It returns the visit
// order and the set of nodes that never reached zero in-degree.
func (g *Graph) levelOrder() ([]string, map[string]bool) {
	in := g.InDegrees()
	queue := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if in[id] == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, e := range g.edges[id] {
			t := e.Target.ID()
			in[t]--
			if in[t] == 0 {
				queue = append(queue, t)
			}
		}
	}
	rest := make(map[string]bool)
	for id, n := range in {
		if n > 0 {
			rest[id] = true
		}
	}
	return order, rest
}

// cyclicNodes returns the members of within that lie on a cycle whose nodes
// are all in within. Strongly connected components are found with Tarjan's
// algorithm.
func (g *Graph) cyclicNodes(within map[string]bool) map[string]bool {
	var (
		index   = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		stack   []string
		next    int
		cyclic  = make(map[string]bool)
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		selfLoop := false
		for _, e := range g.edges[v] {
			w := e.Target.ID()
			if !within[w] {
				continue
			}
			if w == v {
				selfLoop = true
			}
			if _, seen := index[w]; !seen {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], index[w])
			}
		}

		if lowlink[v] != index[v] {
			return
		}
		var component []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		if len(component) > 1 || selfLoop {
			for _, w := range component {
				cyclic[w] = true
			}
		}
	}

	for _, id := range g.order {
		if !within[id] {
			continue
		}
		if _, seen := index[id]; !seen {
			strongConnect(id)
		}
	}
	return cyclic
}
