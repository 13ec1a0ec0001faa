package emath

// Neighbourhood filters. Both pad by reflection about the edge sample
// (the edge itself is not repeated), so a 1-pixel border sees
// its inner neighbour twice rather than itself.

// ReflectIndex maps an out-of-range index back into [0,n).
func ReflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// Median3x3 replaces every sample with the median of its 3x3 neighbourhood.
func (p Plane)Median3x3() Plane {
	w, h := p.Dx(), p.Dy()
	out := p.NewFromThis()
	var win [9]float64

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := ReflectIndex(y+dy, h)
				for dx := -1; dx <= 1; dx++ {
					win[n] = p.values[p.stride*yy + ReflectIndex(x+dx, w)]
					n++
				}
			}
			out.values[p.stride*y + x] = median9(&win)
		}
	}
	return out
}

// insertion sort, 9 elements
func median9(win *[9]float64) float64 {
	for i := 1; i < 9; i++ {
		v := win[i]
		j := i - 1
		for ; j >= 0 && win[j] > v; j-- {
			win[j+1] = win[j]
		}
		win[j+1] = v
	}
	return win[4]
}

// BoxBlur is a separable (2r+1)x(2r+1) mean filter built on prefix
// sums, so the cost per sample does not depend on the radius. A radius
// <= 0 returns a copy.
func (p Plane)BoxBlur(radius int) Plane {
	if radius <= 0 {
		return p.Copy()
	}
	w, h := p.Dx(), p.Dy()
	k := 2*radius + 1

	hor := p.NewFromThis()
	cs := make([]float64, w+k)
	for y := 0; y < h; y++ {
		cs[0] = 0
		for i := 0; i < w+2*radius; i++ {
			cs[i+1] = cs[i] + p.values[p.stride*y + ReflectIndex(i-radius, w)]
		}
		for x := 0; x < w; x++ {
			hor.values[p.stride*y + x] = (cs[x+k] - cs[x]) / float64(k)
		}
	}

	out := p.NewFromThis()
	cs = make([]float64, h+k)
	for x := 0; x < w; x++ {
		cs[0] = 0
		for i := 0; i < h+2*radius; i++ {
			cs[i+1] = cs[i] + hor.values[p.stride*ReflectIndex(i-radius, h) + x]
		}
		for y := 0; y < h; y++ {
			out.values[p.stride*y + x] = (cs[y+k] - cs[y]) / float64(k)
		}
	}
	return out
}
