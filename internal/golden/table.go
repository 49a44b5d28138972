// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package golden

// DenseModel is a slow, obviously-correct dense voxel cube used as a
// golden reference in property tests: a structure simple enough that
// its correctness needs no proof, run side by side with the DAG
// implementation so tests can diff the two.
type DenseModel struct {
	side int32
	air  uint32
	data []uint32
}

// NewDenseModel allocates a side^3 cube filled with air.
func NewDenseModel(side int32, air uint32) *DenseModel {
	return &DenseModel{
		side: side,
		air:  air,
		data: make([]uint32, side*side*side),
	}
}

func (m *DenseModel) offset(pos [3]int32) int {
	return int(pos[1]*m.side*m.side + pos[2]*m.side + pos[0])
}

// Set stores val at pos.
func (m *DenseModel) Set(pos [3]int32, val uint32) {
	m.data[m.offset(pos)] = val
}

// Fill overwrites every voxel with val.
func (m *DenseModel) Fill(val uint32) {
	for i := range m.data {
		m.data[i] = val
	}
}

// Clear overwrites every voxel with air.
func (m *DenseModel) Clear() {
	m.Fill(m.air)
}

// Get returns the value at pos, and whether it's non-air.
func (m *DenseModel) Get(pos [3]int32) (uint32, bool) {
	v := m.data[m.offset(pos)]
	return v, v != m.air
}

// IsEmpty reports whether every voxel is air.
func (m *DenseModel) IsEmpty() bool {
	for _, v := range m.data {
		if v != m.air {
			return false
		}
	}
	return true
}

// ToVec downsamples using the same "first non-air child in fixed octant
// order" rule Voxelis uses for LOD projection, linearized in x-fastest,
// z, y order.
func (m *DenseModel) ToVec(lod uint8) []uint32 {
	n := m.side >> lod
	if n == 0 {
		n = 1
	}
	out := make([]uint32, 0, n*n*n)
	cell := int32(1) << lod
	for y := int32(0); y < n; y++ {
		for z := int32(0); z < n; z++ {
			for x := int32(0); x < n; x++ {
				out = append(out, m.representative(x*cell, y*cell, z*cell, cell))
			}
		}
	}
	return out
}

// representative recurses through a cell's octants in fixed order,
// descending into the first non-air sub-octant. This mirrors Voxelis's
// deterministic LOD branch tie-break rule.
func (m *DenseModel) representative(x0, y0, z0, size int32) uint32 {
	if size == 1 {
		v, _ := m.Get([3]int32{x0, y0, z0})
		return v
	}
	half := size / 2
	for oct := 0; oct < 8; oct++ {
		dx := int32(oct & 1)
		dy := int32((oct >> 1) & 1)
		dz := int32((oct >> 2) & 1)
		v := m.representative(x0+dx*half, y0+dy*half, z0+dz*half, half)
		if v != m.air {
			return v
		}
	}
	return m.air
}
