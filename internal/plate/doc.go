// Package plate turns a located plate into ordered character crops and,
// given a classifier, into text.
//
// Enhance binarizes the plate's brightness channel and keeps components shaped
// like printed strokes. Segment labels the resulting mask, filters components
// by area, solidity and position against the plate's vertical midline, and
// joins the strokes of each character in three clustering passes before
// cropping from the untouched plate. Pipeline chains detection.LocatePlate,
// Enhance and Segment; Recognizer adds classification and translation.
//
// A result with fewer than MinCharacters or more than MaxCharacters crops is
// returned with Valid unset rather than as an error, and is never classified.
// Failures are reported as *StageError so callers can tell which stage gave
// up; the underlying sentinel errors remain reachable through errors.Is.
package plate
