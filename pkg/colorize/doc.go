// Package colorize turns a luminance plane plus a color plane from an
// all-sky camera into a display-ready color image. It measures the
// background from the frame corners, classifies the scene (day or night,
// roof open or closed), resolves a recipe for that scene, and then
// stretches, denoises and composites.
package colorize
