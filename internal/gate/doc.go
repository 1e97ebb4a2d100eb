// Package gate decides whether the wizard may move forward from a step.
//
// A Gate reads a document.Draft and returns a Decision. Blocked decisions are
// ordinary values carrying a list of Issues (each naming the view where the user
// can fix it); they are never returned as errors.
//
//	decision := gate.SignableFileGate().CanAdvance(draft)
//	if !decision.Allowed {
//	    fmt.Print(gate.FormatReasons(decision))
//	}
package gate
