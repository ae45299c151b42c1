package mandelbrot

// EscapeTime returns the number of z = z*z + c iterations it takes the orbit
// of c = (x, y) to leave the disk of radius 2, starting from z = c and capped
// at maxIterations. A point already outside the disk escapes after zero
// iterations and a point that never escapes returns exactly maxIterations.
//
// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Escape_time_algorithm
func EscapeTime(x float64, y float64, maxIterations int) int {
	zx, zy := x, y
	iteration := 0
	for zx*zx+zy*zy <= 4 && iteration < maxIterations {
		zx, zy = zx*zx-zy*zy+x, 2*zx*zy+y
		iteration++
	}
	return iteration
}
