// Package plotter renders population trend charts with gonum/plot.
//
// A chart shows one group's aggregated yearly values as a line with
// optional point markers. Images are written as PNG or JPEG at the
// configured DPI, or as SVG and PDF.
package plotter
