// Package domain models ranked universities and the climate normals of the
// cities they are located in.
//
// # Data Sources
//
// The university list comes from a public ranking page. Every ranked item is
// rendered as a "div.uni_name" container holding an anchor with the
// university name and a span with its place label, e.g. "Cambridge,
// Massachusetts". Page order is the rank.
//
// Climate data comes from the Weatherbit normals endpoint: one record per
// calendar month, averaged over the 1991-2020 baseline, in imperial units
// (degrees Fahrenheit, inches of precipitation and snowfall).
//
// # Identity
//
// Every [RankedEntry] carries a deterministic ID derived from the university
// name (UUID v5, see [NewEntryID]). All later stages key their output by that
// ID, so a university dropped at one stage cannot shift the rows of another.
//
// # Trimesters
//
// The school year is bucketed into academic trimesters:
//
//	T1 (Fall):   Sep, Oct, Nov, Dec
//	T2 (Winter): Jan, Feb, Mar
//	T3 (Spring): Apr, May, Jun
//
// Fall spans four months while the other two span three. A trimester's
// average temperature divides the summed monthly temperatures by the number
// of months the trimester defines, not by the number of records found, and
// is rounded to one decimal place. Precipitation and snowfall are summed.
//
// # Final Table
//
// One row per university:
//
//	University | T1 Avg Temp | T2 Avg Temp | T3 Avg Temp | Total SY Snow | Total SY Rain
//
// School-year totals are the sum of the trimester totals rounded to one
// decimal place.
package domain
