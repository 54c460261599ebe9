// Package egfr evaluates the MDRD estimated Glomerular Filtration Rate.
//
// egfr.go provides the pure Compute(Input) function:
//
//	egfr = 175 × Scr^-1.154 × age^-0.203 × 0.742 (if female) × 1.212 (if black)
//
// rounded to one decimal place. Compute performs no validation; callers
// must pass inputs that already went through Bounds.Parse.
//
// validate.go provides Bounds (the inclusive creatinine and age ranges),
// the two named policies StrictBounds and LenientBounds, and Parse, which
// turns raw textual request fields into a validated Input or a
// *ValidationError listing every field that failed.
package egfr
