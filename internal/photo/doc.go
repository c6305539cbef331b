// Package photo loads photos for the server and produces the small
// inspection artefacts its tools return: metadata, colour samples, scaled
// previews and subject-mask images.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X growing
// to the right and Y growing downward. Images loaded through Cache are
// EXIF-oriented, so coordinates refer to the photo as it is displayed.
//
// # Thread Safety
//
// Cache is safe for concurrent use. The helper functions are stateless and
// never modify the images they are given.
//
// # Color Representation
//
// Sampled colours are reported as:
//   - Hex: "#RRGGBB" (alpha excluded)
//   - RGB / RGBA: 8-bit components
//   - HSL: hue 0-360, saturation and lightness 0-100
package photo
