// Package utils provides small type conversion helpers.
//
// The remote roster API is loose about payload shapes: a field documented as
// an object sometimes arrives as a raw scalar, and numeric identifiers show
// up as either numbers or strings. These helpers give boundary code a total
// conversion that degrades to a zero value instead of failing.
package utils
