package mathutil

// Mat3 is a 3×3 matrix stored row-major.
type Mat3 [9]float64

// Mat3Columns builds a matrix whose columns are a, b and c, e.g. a
// tangent frame mapping tangent-space vectors to model space.
func Mat3Columns(a, b, c Vec3) Mat3 {
	return Mat3{
		a[0], b[0], c[0],
		a[1], b[1], c[1],
		a[2], b[2], c[2],
	}
}

// MulVec3 returns M × v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Scale multiplies every element by s.
func (m Mat3) Scale(s float64) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// Isometric is the fixed isometric view used for debug renderings: x and z
// fold into screen x, y is kept, depth is x+y+z.
var Isometric = Mat3{
	0.866025, 0, -0.866025,
	-0.5, 1, -0.5,
	1, 1, 1,
}
