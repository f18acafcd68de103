package bayes

// JointProbability evaluates the chain-rule product of every variable's CPT
// entry for a full assignment, in topological order.
func (n *Network) JointProbability(full Assignment) (float64, error) {
	for _, name := range sortedKeys(full) {
		if _, _, ok := n.reg.lookup(name); !ok {
			return 0, &UnknownVariableError{Name: name}
		}
	}

	values := make([]int, len(n.reg.vars))
	var missing []string
	for i, v := range n.reg.vars {
		val, ok := full[v.Name]
		if !ok {
			missing = append(missing, v.Name)
			continue
		}
		xi := v.valueIndex(val)
		if xi < 0 {
			return 0, &InvalidValueError{Variable: v.Name, Value: val, Domain: v.Domain}
		}
		values[i] = xi
	}
	if len(missing) > 0 {
		return 0, &IncompleteAssignmentError{Missing: missing}
	}

	return n.joint(values, nil), nil
}

// joint multiplies CPT entries for the variables in order (all variables when
// order is nil). values is indexed by variable position and must hold a
// value for every variable in order and for each of their parents.
func (n *Network) joint(values []int, order []int) float64 {
	p := 1.0
	if order == nil {
		for i, e := range n.entries {
			p *= e.rows[e.rowIndex(values)][values[i]]
		}
		return p
	}
	for _, i := range order {
		e := n.entries[i]
		p *= e.rows[e.rowIndex(values)][values[i]]
	}
	return p
}
